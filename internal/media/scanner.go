package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gallery-viewer/internal/filesystem"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/mediatypes"
)

// ErrNotDirectory is returned by Walk when the root is not a directory.
var ErrNotDirectory = errors.New("not a valid directory")

// WalkOptions tunes Walk.
type WalkOptions struct {
	// SkipHidden skips files and directories whose name starts with "."
	SkipHidden bool
	// Retry configures stale-handle retries for readdir and stat calls.
	Retry filesystem.RetryConfig
	// ReadDir lists one directory. Nil means filesystem.ReadDirWithRetry.
	ReadDir func(path string, config filesystem.RetryConfig) ([]os.DirEntry, error)
}

// DefaultWalkOptions returns the options used by Walk.
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{
		SkipHidden: false,
		Retry:      filesystem.DefaultRetryConfig(),
	}
}

// WalkStats counts what a walk saw.
type WalkStats struct {
	Directories        int
	Images             int
	SkippedDirectories int
	SkippedEntries     int
}

// Walk returns every supported image under root, sorted by path.
// It fails only if root is not a directory.
func Walk(root string) ([]string, error) {
	images, _, err := WalkWithOptions(root, DefaultWalkOptions())
	return images, err
}

// WalkWithOptions is Walk with explicit options; it also reports statistics.
//
// Traversal uses an explicit stack of directories, so tree depth is not
// bounded by the goroutine stack. Unreadable directories and entries are
// logged and skipped. Symlinks to files are followed; symlinks to
// directories are not, which keeps link cycles from looping forever.
func WalkWithOptions(root string, opts WalkOptions) ([]string, WalkStats, error) {
	var stats WalkStats
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}
	info, err := filesystem.StatWithRetry(absRoot, opts.Retry)
	if err != nil || !info.IsDir() {
		return nil, stats, fmt.Errorf("%s: %w", absRoot, ErrNotDirectory)
	}

	readDir := opts.ReadDir
	if readDir == nil {
		readDir = filesystem.ReadDirWithRetry
	}

	var images []string
	directories := []string{absRoot}

	for len(directories) > 0 {
		current := directories[len(directories)-1]
		directories = directories[:len(directories)-1]
		stats.Directories++

		entries, err := readDir(current, opts.Retry)
		if err != nil {
			if len(entries) == 0 {
				logging.Warn("Skipping unreadable directory while scanning (%s): %v", current, err)
				stats.SkippedDirectories++
				continue
			}
			logging.Warn("Partial listing of directory %s: %v", current, err)
			stats.SkippedEntries++
		}

		for _, entry := range entries {
			name := entry.Name()
			if opts.SkipHidden && strings.HasPrefix(name, ".") {
				continue
			}
			path := filepath.Join(current, name)

			switch mode := entry.Type(); {
			case mode.IsDir():
				directories = append(directories, path)
			case mode.IsRegular():
				if mediatypes.IsSupported(path) {
					images = append(images, path)
				}
			case mode&fs.ModeSymlink != 0:
				if !mediatypes.IsSupported(path) {
					continue
				}
				target, err := filesystem.StatWithRetry(path, opts.Retry)
				if err != nil {
					logging.Warn("Skipping unreadable folder entry %s: %v", path, err)
					stats.SkippedEntries++
					continue
				}
				if target.Mode().IsRegular() {
					images = append(images, path)
				}
			}
		}
	}

	sort.Strings(images)
	stats.Images = len(images)

	logging.Debug("Walked %s: %d images in %d directories (%d unreadable) in %v",
		absRoot, stats.Images, stats.Directories, stats.SkippedDirectories, time.Since(start))
	return images, stats, nil
}

// IsDirectory reports whether path exists and is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
