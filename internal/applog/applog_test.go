package applog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFlushWithNoRecordsLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := New()
	if err := l.Flush(path); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "existing\n" {
		t.Errorf("Flush with no records modified file: got %q", got)
	}
}

func TestFlushPrependsRecordsAboveExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte("old line\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := New()
	l.Finish("/data/media/movies/Foo", "Foo")
	l.Error("Bar", errors.New("boom"))
	l.Remove("Baz", 1024)

	if err := l.Flush(path); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4 (3 records + 1 old line): %q", len(lines), got)
	}
	if !strings.Contains(lines[0], "Finish:") || !strings.Contains(lines[0], "Foo") {
		t.Errorf("line 0 = %q, want a Finish record for Foo", lines[0])
	}
	if !strings.Contains(lines[1], "Error:") || !strings.Contains(lines[1], "boom") {
		t.Errorf("line 1 = %q, want an Error record mentioning boom", lines[1])
	}
	if !strings.Contains(lines[2], "Remove:") || !strings.Contains(lines[2], "Baz") {
		t.Errorf("line 2 = %q, want a Remove record for Baz", lines[2])
	}
	if lines[3] != "old line" {
		t.Errorf("line 3 = %q, want preserved old line", lines[3])
	}
}

func TestFlushCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "log.txt")
	os.MkdirAll(filepath.Dir(path), 0o755)

	l := New()
	l.Finish("/data/media/movies/Foo", "Foo")
	if err := l.Flush(path); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Flush should create a missing log file: %v", err)
	}
}
