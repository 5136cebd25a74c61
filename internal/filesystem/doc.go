/*
Package filesystem wraps the handful of filesystem calls the gallery scan
depends on (stat, readdir, read) with retry logic for NFS stale file handle
errors.

Photo libraries commonly live on network shares. ESTALE (errno 116) shows up
there when the server rotates file handles under a long-running scan; the
operation usually succeeds if simply reissued. Every other error is returned
immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

	mtime, err := filesystem.ModifiedUnix(path) // whole seconds since the epoch

# Metrics

The package does not import the metrics package. Instead, an Observer is
installed at startup:

	filesystem.SetObserver(metrics.NewFilesystemObserver())

With no observer installed (tests, the CLI without metrics) recording is
skipped.
*/
package filesystem
