package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := OpenInDir(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("OpenInDir: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func entry(key string, mtime int64, blob string) CacheEntry {
	return CacheEntry{
		CacheKey:           key,
		SourcePath:         "/photos/" + key + ".png",
		SourceModifiedUnix: mtime,
		Thumbnail:          []byte(blob),
		MimeType:           "image/png",
	}
}

func TestOpenInDirCreatesDirectoryAndFile(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "app-data")

	db, err := OpenInDir(context.Background(), dataDir)
	if err != nil {
		t.Fatalf("OpenInDir: %v", err)
	}
	defer db.Close()

	want := filepath.Join(dataDir, FileName)
	if db.Path() != want {
		t.Errorf("Path() = %q, want %q", db.Path(), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("cache file not created: %v", err)
	}
}

func TestOpenInDirFailsWhenDirectoryCannotBeCreated(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenInDir(context.Background(), filepath.Join(blocker, "data")); err == nil {
		t.Fatal("OpenInDir under a regular file should fail")
	}
	if _, err := OpenInDir(context.Background(), ""); err == nil {
		t.Fatal("OpenInDir with empty dir should fail")
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Upsert(ctx, entry("k1", 10, "blob")); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := db.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema call %d: %v", i, err)
		}
	}

	n, err := db.Count(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count = %d after repeated EnsureSchema, want 1", n)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := OpenInDir(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Upsert(ctx, entry("persist", 99, "data")); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = OpenInDir(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	thumb, ok, err := db.LookupFresh(ctx, "persist", 99)
	if err != nil || !ok {
		t.Fatalf("LookupFresh after reopen = (%v, %v), want hit", ok, err)
	}
	if string(thumb.Blob) != "data" {
		t.Errorf("blob = %q, want %q", thumb.Blob, "data")
	}
}

func TestLookupFresh(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Upsert(ctx, entry("a", 100, "thumb-a")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		key     string
		mtime   int64
		wantHit bool
	}{
		{name: "matching key and mtime", key: "a", mtime: 100, wantHit: true},
		{name: "newer mtime is stale", key: "a", mtime: 101, wantHit: false},
		{name: "older mtime is stale", key: "a", mtime: 99, wantHit: false},
		{name: "unknown key", key: "b", mtime: 100, wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb, ok, err := db.LookupFresh(ctx, tt.key, tt.mtime)
			if err != nil {
				t.Fatalf("LookupFresh: %v", err)
			}
			if ok != tt.wantHit {
				t.Fatalf("hit = %v, want %v", ok, tt.wantHit)
			}
			if ok {
				if string(thumb.Blob) != "thumb-a" || thumb.MimeType != "image/png" {
					t.Errorf("thumb = %+v, want thumb-a/image/png", thumb)
				}
			} else if thumb.Blob != nil || thumb.MimeType != "" {
				t.Errorf("miss returned partial data: %+v", thumb)
			}
		})
	}
}

func TestUpsertOverwritesSameKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Upsert(ctx, entry("k", 1, "old")); err != nil {
		t.Fatal(err)
	}
	updated := entry("k", 2, "new")
	updated.MimeType = "image/png"
	if err := db.Upsert(ctx, updated); err != nil {
		t.Fatal(err)
	}

	n, err := db.Count(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows for key = %d, want 1", n)
	}

	got, err := db.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if got.SourceModifiedUnix != 2 || string(got.Thumbnail) != "new" {
		t.Errorf("entry = %+v, want mtime 2 and blob new", got)
	}

	if _, ok, _ := db.LookupFresh(ctx, "k", 1); ok {
		t.Error("old mtime still reported fresh after overwrite")
	}
}

func TestUpsertBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entries := []CacheEntry{entry("x", 1, "1"), entry("y", 2, "22"), entry("z", 3, "333")}
	if err := db.UpsertBatch(ctx, entries); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.TotalBytes != 6 {
		t.Errorf("TotalBytes = %d, want 6", stats.TotalBytes)
	}

	if err := db.UpsertBatch(ctx, nil); err != nil {
		t.Errorf("UpsertBatch(nil) = %v, want nil", err)
	}
}

func TestUpsertBatchIsAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bad := entry("bad", 5, "x")
	bad.Thumbnail = nil // violates NOT NULL
	err := db.UpsertBatch(ctx, []CacheEntry{entry("good1", 1, "a"), bad, entry("good2", 2, "b")})
	if err == nil {
		t.Fatal("UpsertBatch with invalid entry should fail")
	}

	n, err := db.Count(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Count = %d after failed batch, want 0", n)
	}
}

func TestUpsertBatchCancelledContext(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := db.UpsertBatch(ctx, []CacheEntry{entry("c", 1, "c")}); err == nil {
		t.Fatal("UpsertBatch with cancelled context should fail")
	}
	n, err := db.Count(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestGetMissing(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestConcurrentReadersAndBatchWriter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, _, err := db.LookupFresh(ctx, "shared", 1); err != nil {
					t.Errorf("LookupFresh: %v", err)
					return
				}
			}
		}()
	}
	for j := 0; j < 5; j++ {
		if err := db.UpsertBatch(ctx, []CacheEntry{entry("shared", 1, "v")}); err != nil {
			t.Fatalf("UpsertBatch: %v", err)
		}
	}
	wg.Wait()

	thumb, ok, err := db.LookupFresh(ctx, "shared", 1)
	if err != nil || !ok || !bytes.Equal(thumb.Blob, []byte("v")) {
		t.Errorf("final LookupFresh = (%q, %v, %v)", thumb.Blob, ok, err)
	}
}

func TestRecordQueryDoesNotPanic(t *testing.T) {
	recordQuery("test_operation", time.Now(), nil)
	recordQuery("test_operation", time.Now(), errors.New("boom"))
}
