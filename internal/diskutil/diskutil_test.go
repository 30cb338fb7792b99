package diskutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateEmptyFileCreatesParentsAndIsZeroLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c.txt")

	if err := CreateEmptyFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected zero length, got %d", info.Size())
	}
}

func TestDeleteFileMissingPathIsNoop(t *testing.T) {
	dir := t.TempDir()
	if err := DeleteFile(filepath.Join(dir, "missing")); err != nil {
		t.Fatalf("expected no error deleting missing path, got %v", err)
	}
}

func TestDeleteFileRemovesRecursively(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := DeleteFile(filepath.Join(dir, "a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a")); !os.IsNotExist(err) {
		t.Fatalf("expected directory to be gone, stat err = %v", err)
	}
}

func TestCopyFileOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	if err := os.WriteFile(src, []byte("new content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old content"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Copy(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new content" {
		t.Fatalf("expected dst to contain new content, got %q", got)
	}

	// no leftover temp files
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "src.txt" && e.Name() != "dst.txt" {
			t.Fatalf("unexpected leftover entry: %s", e.Name())
		}
	}
}

func TestCopyDirectoryRecursive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "nested", "deep.txt"), []byte("deep"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Copy(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top, err := os.ReadFile(filepath.Join(dst, "top.txt"))
	if err != nil || string(top) != "top" {
		t.Fatalf("expected top.txt copied, got %q err=%v", top, err)
	}
	deep, err := os.ReadFile(filepath.Join(dst, "nested", "deep.txt"))
	if err != nil || string(deep) != "deep" {
		t.Fatalf("expected nested/deep.txt copied, got %q err=%v", deep, err)
	}
}

func TestCopyMissingSourceLeavesDestinationUntouched(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(dst, []byte("untouched"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Copy(filepath.Join(dir, "missing"), dst); err != nil {
		t.Fatalf("expected missing source to not be a fatal error, got %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "untouched" {
		t.Fatalf("expected dst untouched, got %q err=%v", got, err)
	}
}

func TestReplaceWithExistingTargetSwapsAndRemovesBackup(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.json")
	source := filepath.Join(dir, "source.json")

	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(source, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Replace(target, source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil || string(got) != "new" {
		t.Fatalf("expected target to contain new content, got %q err=%v", got, err)
	}
	if _, err := os.Stat(target + ".bkp"); !os.IsNotExist(err) {
		t.Fatalf("expected backup to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("expected source to be consumed by rename")
	}
}

func TestReplaceWithNoExistingTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.json")
	source := filepath.Join(dir, "source.json")

	if err := os.WriteFile(source, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Replace(target, source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil || string(got) != "new" {
		t.Fatalf("expected target to contain new content, got %q err=%v", got, err)
	}
}

func TestIntegrateDirectoryMovesFilesAndRemovesSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	target := filepath.Join(dir, "target")

	if err := os.MkdirAll(filepath.Join(source, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "sub", "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := IntegrateDirectory(source, target, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, err := os.ReadFile(filepath.Join(target, "a.txt")); err != nil || string(got) != "a" {
		t.Fatalf("expected a.txt integrated, got %q err=%v", got, err)
	}
	if got, err := os.ReadFile(filepath.Join(target, "sub", "b.txt")); err != nil || string(got) != "b" {
		t.Fatalf("expected sub/b.txt integrated, got %q err=%v", got, err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("expected source to be removed after integration")
	}
}

func TestIntegrateDirectoryCollisionReplaceExistingTrue(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	target := filepath.Join(dir, "target")

	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "f.txt"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "f.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := IntegrateDirectory(source, target, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(target, "f.txt"))
	if err != nil || string(got) != "new" {
		t.Fatalf("expected collision resolved in favor of source, got %q err=%v", got, err)
	}
}

func TestIntegrateDirectoryCollisionReplaceExistingFalse(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	target := filepath.Join(dir, "target")

	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "f.txt"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "f.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := IntegrateDirectory(source, target, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(target, "f.txt"))
	if err != nil || string(got) != "old" {
		t.Fatalf("expected target to keep old content, got %q err=%v", got, err)
	}
}

func TestIntegrateDirectoryMissingSourceIsNoop(t *testing.T) {
	dir := t.TempDir()
	if err := IntegrateDirectory(filepath.Join(dir, "missing"), filepath.Join(dir, "target"), true); err != nil {
		t.Fatalf("expected no error for missing source, got %v", err)
	}
}

func TestIntegrateDirectoryIdempotentOnRerun(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	target := filepath.Join(dir, "target")

	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "f.txt"), []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := IntegrateDirectory(source, target, true); err != nil {
		t.Fatalf("unexpected error on first integrate: %v", err)
	}

	// Simulate a crash mid-promotion: source reappears with new WIP content.
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, "f.txt"), []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := IntegrateDirectory(source, target, true); err != nil {
		t.Fatalf("unexpected error on second integrate: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(target, "f.txt"))
	if err != nil || string(got) != "v2" {
		t.Fatalf("expected target to reflect the latest integration, got %q err=%v", got, err)
	}
}
