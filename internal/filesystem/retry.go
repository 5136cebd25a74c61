package filesystem

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"gallery-viewer/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn, reissuing it on ESTALE with exponential backoff.
func withRetry[T any](operation, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	obs := defaultObserver
	backoff := config.InitialBackoff

	var (
		result T
		err    error
	)
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", operation, attempt, path)
			}
			break
		}

		if !isNFSStaleError(err) {
			break
		}

		if obs != nil {
			obs.ObserveStaleError(operation)
		}

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			if obs != nil {
				obs.ObserveRetryAttempt(operation)
			}
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				operation, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		} else {
			logging.Warn("NFS %s failed after %d retries for %s: %v", operation, config.MaxRetries, path, err)
		}
	}

	if obs != nil {
		obs.ObserveOperation(operation, time.Since(start).Seconds(), err)
	}
	return result, err
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// ReadDirWithRetry performs os.ReadDir with retry logic for NFS stale file handle errors.
// Like os.ReadDir, it may return a partial listing together with an error.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}

// ReadFileWithRetry performs os.ReadFile with retry logic for NFS stale file handle errors
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	return withRetry("read", path, config, func() ([]byte, error) {
		return os.ReadFile(path)
	})
}

// ModifiedUnix returns the file's last-modified time in whole seconds since
// the Unix epoch. Times before the epoch are rejected.
func ModifiedUnix(path string) (int64, error) {
	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil {
		return 0, fmt.Errorf("failed to read metadata for %s: %w", path, err)
	}
	secs := info.ModTime().Unix()
	if secs < 0 {
		return 0, fmt.Errorf("invalid modified time for %s: %v", path, info.ModTime())
	}
	return secs, nil
}
