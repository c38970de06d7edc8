package placer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"seedcurator/internal/applog"
	"seedcurator/internal/category"
	"seedcurator/internal/config"
)

// scriptCategorizer writes an executable shell script that ignores its
// stdin and regex-file argument and always prints category to stdout.
func scriptCategorizer(t *testing.T, category string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "categorize.sh")
	script := "#!/bin/sh\ncat >/dev/null\necho " + category + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func newTestPlacer(t *testing.T, cat string) *Placer {
	t.Helper()
	cfg := &config.Config{
		SeedDir:            "/data/seed",
		RegexFile:          filepath.Join(t.TempDir(), "av.regex"),
		CategorizerProgram: scriptCategorizer(t, cat),
		Destinations:       config.Destinations{Default: "/data/media/default"},
	}
	return New(cfg, nil, applog.New())
}

func TestClassifyParsesCategorizerOutput(t *testing.T) {
	p := newTestPlacer(t, "tv")
	bag := category.Bag{{Path: "Show/Show.S01E01.mkv", Size: 1024}}
	got, err := p.classify(context.Background(), bag)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != category.TV {
		t.Errorf("classify() = %q, want %q", got, category.TV)
	}
}

func TestClassifyRejectsUnknownCategoryToken(t *testing.T) {
	p := newTestPlacer(t, "not-a-real-category")
	bag := category.Bag{{Path: "x", Size: 1}}
	if _, err := p.classify(context.Background(), bag); err == nil {
		t.Error("expected an error for an unrecognized category token")
	}
}

func TestSameDirByLexicalEquality(t *testing.T) {
	if !sameDir("/data/seed", "/data/seed") {
		t.Error("identical paths should be considered the same directory")
	}
	if !sameDir("/data/seed/", "/data/seed") {
		t.Error("a trailing slash should not defeat sameDir")
	}
}

func TestSameDirByFilesystemIdentity(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(t.TempDir(), "alias")
	if err := os.Symlink(dir, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	if !sameDir(dir, link) {
		t.Error("a symlinked alias should be considered the same directory as its target")
	}
}

func TestSameDirFalseForDistinctDirs(t *testing.T) {
	if sameDir(t.TempDir(), t.TempDir()) {
		t.Error("two distinct temp dirs should not be considered the same directory")
	}
}
