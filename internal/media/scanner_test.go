package media

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"gallery-viewer/internal/filesystem"
)

func TestWalkFindsSupportedImagesSorted(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "b.png"), "x")
	writeFile(t, filepath.Join(root, "a.JPG"), "x")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "noext"), "x")
	writeFile(t, filepath.Join(root, "sub", "c.webp"), "x")
	writeFile(t, filepath.Join(root, "sub", "deeper", "d.tiff"), "x")
	writeFile(t, filepath.Join(root, "sub", "deeper", "e.mp4"), "x")

	got, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{
		filepath.Join(root, "a.JPG"),
		filepath.Join(root, "b.png"),
		filepath.Join(root, "sub", "c.webp"),
		filepath.Join(root, "sub", "deeper", "d.tiff"),
	}
	sort.Strings(want)

	if len(got) != len(want) {
		t.Fatalf("Walk() returned %d paths, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Walk()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkEmptyDirectory(t *testing.T) {
	got, err := Walk(t.TempDir())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Walk() = %v, want empty", got)
	}
}

func TestWalkRejectsNonDirectoryRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "photo.jpg")
	writeFile(t, file, "x")

	tests := []struct {
		name string
		root string
	}{
		{"regular file", file},
		{"missing path", filepath.Join(dir, "missing")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Walk(tt.root)
			if !errors.Is(err, ErrNotDirectory) {
				t.Errorf("Walk(%q) error = %v, want ErrNotDirectory", tt.root, err)
			}
		})
	}
}

func TestWalkSkipsUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.png"), "x")
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "hidden.png"), "x")

	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got, stats, err := WalkWithOptions(root, DefaultWalkOptions())
	if err != nil {
		t.Fatalf("WalkWithOptions() error = %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(root, "ok.png") {
		t.Errorf("WalkWithOptions() = %v, want only ok.png", got)
	}
	if stats.SkippedDirectories != 1 {
		t.Errorf("SkippedDirectories = %d, want 1", stats.SkippedDirectories)
	}
}

func TestWalkSkipsDirectoryThatFailsToList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.png"), "x")
	writeFile(t, filepath.Join(root, "locked", "hidden.png"), "x")
	writeFile(t, filepath.Join(root, "partial", "kept.png"), "x")
	locked := filepath.Join(root, "locked")
	partial := filepath.Join(root, "partial")

	opts := DefaultWalkOptions()
	opts.ReadDir = func(path string, config filesystem.RetryConfig) ([]os.DirEntry, error) {
		switch path {
		case locked:
			return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
		case partial:
			entries, _ := filesystem.ReadDirWithRetry(path, config)
			return entries, &fs.PathError{Op: "readdirent", Path: path, Err: fs.ErrPermission}
		}
		return filesystem.ReadDirWithRetry(path, config)
	}

	got, stats, err := WalkWithOptions(root, opts)
	if err != nil {
		t.Fatalf("WalkWithOptions() error = %v", err)
	}
	want := []string{filepath.Join(root, "ok.png"), filepath.Join(partial, "kept.png")}
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WalkWithOptions() = %v, want %v", got, want)
	}
	if stats.SkippedDirectories != 1 {
		t.Errorf("SkippedDirectories = %d, want 1", stats.SkippedDirectories)
	}
	if stats.SkippedEntries != 1 {
		t.Errorf("SkippedEntries = %d, want 1", stats.SkippedEntries)
	}
}

func TestWalkSkipsDirectoryRemovedDuringWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.png"), "x")
	gone := filepath.Join(root, "gone")
	writeFile(t, filepath.Join(gone, "b.png"), "x")

	opts := DefaultWalkOptions()
	opts.ReadDir = func(path string, config filesystem.RetryConfig) ([]os.DirEntry, error) {
		if path == gone {
			if err := os.RemoveAll(gone); err != nil {
				t.Errorf("RemoveAll() error = %v", err)
			}
		}
		return filesystem.ReadDirWithRetry(path, config)
	}

	got, stats, err := WalkWithOptions(root, opts)
	if err != nil {
		t.Fatalf("WalkWithOptions() error = %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(root, "a.png") {
		t.Errorf("WalkWithOptions() = %v, want only a.png", got)
	}
	if stats.SkippedDirectories != 1 {
		t.Errorf("SkippedDirectories = %d, want 1", stats.SkippedDirectories)
	}
}

func TestWalkSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	target := filepath.Join(outside, "real.png")
	writeFile(t, target, "x")
	writeFile(t, filepath.Join(outside, "dir", "inner.png"), "x")

	if err := os.Symlink(target, filepath.Join(root, "link.png")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "dir"), filepath.Join(root, "dirlink")); err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "gone.png"), filepath.Join(root, "dangling.png")); err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}

	got, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(root, "link.png") {
		t.Errorf("Walk() = %v, want only link.png", got)
	}
}

func TestWalkSkipHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".cache", "a.png"), "x")
	writeFile(t, filepath.Join(root, ".b.png"), "x")
	writeFile(t, filepath.Join(root, "c.png"), "x")

	all, _, err := WalkWithOptions(root, DefaultWalkOptions())
	if err != nil {
		t.Fatalf("WalkWithOptions() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("default walk found %d images, want 3", len(all))
	}

	opts := DefaultWalkOptions()
	opts.SkipHidden = true
	visible, _, err := WalkWithOptions(root, opts)
	if err != nil {
		t.Fatalf("WalkWithOptions() error = %v", err)
	}
	if len(visible) != 1 {
		t.Errorf("SkipHidden walk found %v, want only c.png", visible)
	}
}

func TestWalkDeepTree(t *testing.T) {
	root := t.TempDir()
	dir := root
	for i := 0; i < 200; i++ {
		dir = filepath.Join(dir, "d")
	}
	writeFile(t, filepath.Join(dir, "bottom.gif"), "x")

	got, stats, err := WalkWithOptions(root, DefaultWalkOptions())
	if err != nil {
		t.Fatalf("WalkWithOptions() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("WalkWithOptions() = %v, want 1 path", got)
	}
	if stats.Directories != 201 {
		t.Errorf("Directories = %d, want 201", stats.Directories)
	}
}

func TestIsDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.png")
	writeFile(t, file, "x")

	if !IsDirectory(dir) {
		t.Error("IsDirectory(dir) = false")
	}
	if IsDirectory(file) {
		t.Error("IsDirectory(file) = true")
	}
	if IsDirectory(filepath.Join(dir, "nope")) {
		t.Error("IsDirectory(missing) = true")
	}
}
