package gallery

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"gallery-viewer/internal/database"
	"gallery-viewer/internal/media"
)

func writeImage(t *testing.T, path string, width, height int, shade uint8) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x), B: uint8(y), A: 255})
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func writeText(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// photosFixture lays out a.png, b.jpg, notes.txt and sub/c.png.
func photosFixture(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "photos")
	writeImage(t, filepath.Join(root, "a.png"), 400, 300, 10)
	writeImage(t, filepath.Join(root, "b.jpg"), 300, 500, 20)
	writeText(t, filepath.Join(root, "notes.txt"), "not an image")
	writeImage(t, filepath.Join(root, "sub", "c.png"), 64, 64, 30)
	return root
}

func openTestStore(t *testing.T) *database.Database {
	t.Helper()
	db, err := OpenStore(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func rowCount(t *testing.T, db *database.Database, key string) int64 {
	t.Helper()
	n, err := db.Count(context.Background(), key)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	return n
}

// countingGenerator wraps the real generator and counts invocations.
type countingGenerator struct {
	inner  media.ThumbnailGenerator
	calls  atomic.Int32
	before func(path string)
}

func newCountingGenerator() *countingGenerator {
	return &countingGenerator{inner: media.NewGenerator()}
}

func (g *countingGenerator) Generate(path string, maxDimension int) ([]byte, string, error) {
	g.calls.Add(1)
	if g.before != nil {
		g.before(path)
	}
	return g.inner.Generate(path, maxDimension)
}

// faultyStore fails the operations it is told to.
type faultyStore struct {
	Store
	lookupErr error
	batchErr  error
}

func (s *faultyStore) LookupFresh(ctx context.Context, key string, modifiedUnix int64) (database.Thumbnail, bool, error) {
	if s.lookupErr != nil {
		return database.Thumbnail{}, false, s.lookupErr
	}
	return s.Store.LookupFresh(ctx, key, modifiedUnix)
}

func (s *faultyStore) UpsertBatch(ctx context.Context, entries []database.CacheEntry) error {
	if s.batchErr != nil {
		return s.batchErr
	}
	return s.Store.UpsertBatch(ctx, entries)
}

var errInjected = errors.New("injected failure")

func itemPaths(items []GalleryItem) []string {
	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = item.Path
	}
	return paths
}
