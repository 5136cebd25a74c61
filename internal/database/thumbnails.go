package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gallery-viewer/internal/metrics"
)

// ErrNotFound is returned by Get when no entry exists for the key.
var ErrNotFound = errors.New("cache entry not found")

const upsertQuery = `
INSERT INTO thumbnails (cache_key, source_path, source_modified_unix, thumbnail_blob, mime_type)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(cache_key) DO UPDATE SET
	source_path = excluded.source_path,
	source_modified_unix = excluded.source_modified_unix,
	thumbnail_blob = excluded.thumbnail_blob,
	mime_type = excluded.mime_type
`

// LookupFresh returns the cached thumbnail for key only if it was generated
// from a source whose modification time equals modifiedUnix. A missing row
// and a stale row are both reported as a miss (ok == false).
func (d *Database) LookupFresh(ctx context.Context, key string, modifiedUnix int64) (Thumbnail, bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("lookup_fresh", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var thumb Thumbnail
	err = d.db.QueryRowContext(ctx, `
		SELECT thumbnail_blob, mime_type
		FROM thumbnails
		WHERE cache_key = ? AND source_modified_unix = ?
	`, key, modifiedUnix).Scan(&thumb.Blob, &thumb.MimeType)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return Thumbnail{}, false, nil
	}
	if err != nil {
		return Thumbnail{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return thumb, true, nil
}

// Upsert inserts entry or overwrites the existing row with the same key.
func (d *Database) Upsert(ctx context.Context, entry CacheEntry) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, upsertQuery,
		entry.CacheKey,
		entry.SourcePath,
		entry.SourceModifiedUnix,
		entry.Thumbnail,
		entry.MimeType,
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// UpsertBatch writes all entries inside one transaction. Either every entry
// is persisted or, on any failure, none are.
func (d *Database) UpsertBatch(ctx context.Context, entries []CacheEntry) (err error) {
	if len(entries) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { recordQuery("upsert_batch", start, err) }()

	tx, txStart, err := d.beginBatch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start cache transaction: %w", err)
	}
	defer func() { err = d.endBatch(tx, txStart, err) }()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare cache upsert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err = stmt.ExecContext(ctx,
			entry.CacheKey,
			entry.SourcePath,
			entry.SourceModifiedUnix,
			entry.Thumbnail,
			entry.MimeType,
		); err != nil {
			return fmt.Errorf("failed to write cache entry for %s: %w", entry.SourcePath, err)
		}
	}

	metrics.DBRowsUpserted.Observe(float64(len(entries)))
	return nil
}

// Get returns the stored entry for key regardless of freshness.
func (d *Database) Get(ctx context.Context, key string) (*CacheEntry, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entry := CacheEntry{CacheKey: key}
	err = d.db.QueryRowContext(ctx, `
		SELECT source_path, source_modified_unix, thumbnail_blob, mime_type
		FROM thumbnails WHERE cache_key = ?
	`, key).Scan(&entry.SourcePath, &entry.SourceModifiedUnix, &entry.Thumbnail, &entry.MimeType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Count returns the number of rows in the cache, optionally restricted to
// a single key when key is non-empty.
func (d *Database) Count(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	if key == "" {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM thumbnails").Scan(&n)
	} else {
		err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM thumbnails WHERE cache_key = ?", key).Scan(&n)
	}
	return n, err
}

// Stats returns the number of entries and total thumbnail bytes.
func (d *Database) Stats(ctx context.Context) (Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := Stats{Path: d.dbPath}
	err = d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(thumbnail_blob)), 0) FROM thumbnails
	`).Scan(&stats.Entries, &stats.TotalBytes)
	return stats, err
}
