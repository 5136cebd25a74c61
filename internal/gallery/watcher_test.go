package gallery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherRescansOnNewImage(t *testing.T) {
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "first.png"), 16, 16, 0)

	db := openTestStore(t)
	session := NewSession(NewService(db, newCountingGenerator(), 1))
	w, err := NewWatcher(session, root, 64, ScanOptions{}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scans := make(chan *ScanResult, 4)
	stopped := make(chan error, 1)
	go func() {
		stopped <- w.Run(ctx, func(result *ScanResult, err error) {
			if err != nil {
				t.Errorf("rescan error = %v", err)
				return
			}
			scans <- result
		})
	}()

	// Move a finished directory in so no rescan sees a half-written file.
	staging := filepath.Join(t.TempDir(), "nested")
	writeImage(t, filepath.Join(staging, "second.png"), 16, 16, 1)
	if err := os.Rename(staging, filepath.Join(root, "nested")); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case result := <-scans:
			if len(result.Items) == 2 {
				cancel()
				if err := <-stopped; err != nil {
					t.Errorf("Run() error = %v", err)
				}
				if n := rowCount(t, db, ""); n != 2 {
					t.Errorf("rows = %d, want 2", n)
				}
				return
			}
		case <-deadline:
			t.Fatal("no rescan observed the new image")
		}
	}
}

func TestNewWatcherInvalidRoot(t *testing.T) {
	session := NewSession(NewService(openTestStore(t), newCountingGenerator(), 1))
	_, err := NewWatcher(session, filepath.Join(t.TempDir(), "missing"), 64, ScanOptions{}, 0)
	if !errors.Is(err, ErrInvalidRoot) {
		t.Errorf("NewWatcher() error = %v, want ErrInvalidRoot", err)
	}
}
