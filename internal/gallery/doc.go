// Package gallery coordinates folder scans against the thumbnail cache.
//
// A scan walks a folder, looks every image up in the cache store in sorted
// order while reporting progress, generates the missing or stale
// thumbnails on a worker pool, and persists them in a single batch. Scans
// are cooperative: a CancelToken is polled before each classified item,
// before each generation unit and once more before persisting.
//
// Session serializes scans and owns the token of the scan in flight, so a
// cancel request never leaks into the next scan. Watcher re-runs a scan
// when the folder tree changes on disk.
package gallery
