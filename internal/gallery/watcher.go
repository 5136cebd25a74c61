package gallery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/media"
	"gallery-viewer/internal/mediatypes"
	"gallery-viewer/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a Watcher waits for the tree to settle
// before re-scanning.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-scans a folder through a Session whenever images or
// directories under it change.
type Watcher struct {
	session      *Session
	folder       string
	maxDimension int
	opts         ScanOptions
	debounce     time.Duration
	fsWatcher    *fsnotify.Watcher
}

// NewWatcher registers folder and its subdirectories with fsnotify.
func NewWatcher(session *Session, folder string, maxDimension int, opts ScanOptions, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(folder)
	if err != nil || !media.IsDirectory(abs) {
		return nil, &Error{Kind: InvalidRoot, Path: folder, Op: "watch"}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		session:      session,
		folder:       abs,
		maxDimension: maxDimension,
		opts:         opts,
		debounce:     debounce,
		fsWatcher:    fsw,
	}
	count := w.addRecursive(abs)
	metrics.WatcherWatchedDirectories.Set(float64(count))
	logging.Debug("Folder watcher started, watching %d directories under %s", count, abs)
	return w, nil
}

// Run blocks until ctx is done, calling onScan after every re-scan.
// It does not perform an initial scan.
func (w *Watcher) Run(ctx context.Context, onScan func(*ScanResult, error)) error {
	defer func() {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()

		case <-timer.C:
			metrics.WatcherRescansTotal.Inc()
			logging.Info("Changes detected under %s, rescanning", w.folder)
			result, err := w.session.Scan(ctx, w.folder, w.maxDimension, w.opts)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if onScan != nil {
				onScan(result, err)
			}
		}
	}
}

// handleEvent reports whether event should trigger a re-scan.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	switch {
	case event.Op&fsnotify.Create != 0:
		if media.IsDirectory(event.Name) {
			added := w.addRecursive(event.Name)
			metrics.WatcherWatchedDirectories.Add(float64(added))
			return true
		}
		return mediatypes.IsSupported(event.Name)
	case event.Op&(fsnotify.Write|fsnotify.Chmod) != 0:
		// Chmod covers touch-only mtime updates on some platforms.
		return mediatypes.IsSupported(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// The path is gone, so a removed directory cannot be told apart
		// from a file without an extension.
		return mediatypes.IsSupported(event.Name) || filepath.Ext(event.Name) == ""
	}
	return false
}

// addRecursive watches dir and every readable directory beneath it.
func (w *Watcher) addRecursive(dir string) int {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.fsWatcher.Add(path); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, addErr)
			metrics.WatcherErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Warn("failed to walk %s for watcher: %v", dir, err)
		metrics.WatcherErrors.Inc()
	}
	return count
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return "chmod"
	}
}
