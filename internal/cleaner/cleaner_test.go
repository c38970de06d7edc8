package cleaner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunRemovesUnknownSeedDirEntries(t *testing.T) {
	seedDir := t.TempDir()
	mustWriteFile(t, filepath.Join(seedDir, "known.mkv"), "x")
	mustWriteFile(t, filepath.Join(seedDir, "orphan.mkv"), "x")

	c := New(seedDir, "", false)
	if err := c.Run(map[string]bool{"known.mkv": true}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(seedDir, "known.mkv")); err != nil {
		t.Errorf("known.mkv should survive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(seedDir, "orphan.mkv")); !os.IsNotExist(err) {
		t.Errorf("orphan.mkv should have been removed, stat err = %v", err)
	}
}

func TestRunSkipsPartSuffixWhenBaseNameKnown(t *testing.T) {
	seedDir := t.TempDir()
	mustWriteFile(t, filepath.Join(seedDir, "inflight.mkv.part"), "x")

	c := New(seedDir, "", false)
	if err := c.Run(map[string]bool{"inflight.mkv": true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(seedDir, "inflight.mkv.part")); err != nil {
		t.Errorf("in-progress .part file should survive: %v", err)
	}
}

func TestRunSkipsReservedPrefixedEntries(t *testing.T) {
	seedDir := t.TempDir()
	for _, name := range []string{".hidden", "#incomplete", "@eaDir"} {
		mustWriteFile(t, filepath.Join(seedDir, name), "x")
	}

	c := New(seedDir, "", false)
	if err := c.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, name := range []string{".hidden", "#incomplete", "@eaDir"} {
		if _, err := os.Stat(filepath.Join(seedDir, name)); err != nil {
			t.Errorf("%s should survive (reserved prefix): %v", name, err)
		}
	}
}

func TestRunRemovesEmptyWatchDirTorrents(t *testing.T) {
	watchDir := t.TempDir()
	mustWriteFile(t, filepath.Join(watchDir, "empty.torrent"), "")
	mustWriteFile(t, filepath.Join(watchDir, "pending.torrent"), "still-writing")

	c := New(t.TempDir(), watchDir, false)
	if err := c.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(watchDir, "empty.torrent")); !os.IsNotExist(err) {
		t.Errorf("empty.torrent should have been removed, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(watchDir, "pending.torrent")); err != nil {
		t.Errorf("non-empty .torrent should survive: %v", err)
	}
}

func TestDryRunDeletesNothing(t *testing.T) {
	seedDir := t.TempDir()
	mustWriteFile(t, filepath.Join(seedDir, "orphan.mkv"), "x")

	c := New(seedDir, "", true)
	if err := c.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(seedDir, "orphan.mkv")); err != nil {
		t.Errorf("dry-run must not delete: %v", err)
	}
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile(%q): %v", path, err)
	}
}
