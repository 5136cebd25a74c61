package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/metrics"
)

// FileName is the fixed name of the cache file inside the data directory.
const FileName = "thumbnail_cache.sqlite"

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS thumbnails (
	cache_key TEXT PRIMARY KEY,
	source_path TEXT NOT NULL,
	source_modified_unix INTEGER NOT NULL,
	thumbnail_blob BLOB NOT NULL,
	mime_type TEXT NOT NULL
);
`

// Database is the thumbnail cache store.
type Database struct {
	db     *sql.DB
	dbPath string
}

// OpenInDir creates dataDir if needed and opens the cache file inside it.
func OpenInDir(ctx context.Context, dataDir string) (*Database, error) {
	if dataDir == "" {
		return nil, errors.New("application data directory is not set")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create app data directory %s: %w", dataDir, err)
	}
	return New(ctx, filepath.Join(dataDir, FileName))
}

// New opens (creating if necessary) the cache database at dbPath and
// ensures its schema. The parent directory must already exist.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Debug("Cache database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Cache database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	// One connection: the store is never mutated concurrently.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.EnsureSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Debug("Cache database ready at %s", dbPath)
	return d, nil
}

// EnsureSchema creates the thumbnails table if it does not exist.
// Safe to call on every open.
func (d *Database) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// beginBatch starts a transaction for a batch write.
func (d *Database) beginBatch(ctx context.Context) (*sql.Tx, time.Time, error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, nil)
	return tx, start, err
}

// endBatch commits or rolls back a transaction depending on err.
func (d *Database) endBatch(tx *sql.Tx, start time.Time, err error) error {
	duration := time.Since(start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		return fmt.Errorf("failed to commit cache transaction: %w", err)
	}
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return nil
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Cache database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile) // Explicitly ignore cleanup error

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Cache file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("Cache file %s is read-only (mode %v), writes will fail", path, info.Mode())
		}
	}

	return nil
}
