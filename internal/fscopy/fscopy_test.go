package fscopy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "dst.txt")

	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile(dst): %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("dst contents = %q, want %q", got, "hello")
	}
}

func TestCopyDirectoryTree(t *testing.T) {
	srcRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(srcRoot, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcRoot, "top.txt"), []byte("a"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcRoot, "sub", "nested.txt"), []byte("b"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "copied")
	if err := Copy(srcRoot, dst); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	top, err := os.ReadFile(filepath.Join(dst, "top.txt"))
	if err != nil || string(top) != "a" {
		t.Errorf("top.txt = %q, %v, want %q, nil", top, err, "a")
	}
	nested, err := os.ReadFile(filepath.Join(dst, "sub", "nested.txt"))
	if err != nil || string(nested) != "b" {
		t.Errorf("sub/nested.txt = %q, %v, want %q, nil", nested, err, "b")
	}
}

func TestCopyOverwritesExistingDestination(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.txt")
	os.WriteFile(src, []byte("new"), 0o644)
	dst := filepath.Join(t.TempDir(), "dst.txt")
	os.WriteFile(dst, []byte("stale-and-longer"), 0o644)

	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "new" {
		t.Errorf("dst contents = %q, %v, want %q, nil", got, err, "new")
	}
}
