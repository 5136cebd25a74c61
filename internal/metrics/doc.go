// Package metrics provides Prometheus instrumentation for the gallery viewer.
//
// All metrics are prefixed with "gallery_viewer_" and registered on the
// default registry through promauto, so they are exported by promhttp as
// soon as the package is imported.
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Cache Store Metrics
//   - DBQueryTotal / DBQueryDuration: per operation (lookup_fresh, upsert, upsert_batch, ...)
//   - DBTransactionDuration: batch transactions by outcome (commit, rollback)
//   - DBRowsUpserted: rows written per batch
//
// ## Scan Metrics
//   - ScansTotal: completed scans by outcome (completed, cancelled, error)
//   - ScanDuration, ScanItems
//   - CacheLookupsTotal: classify-pass lookups by result (hit, miss, error)
//   - ScanSkippedItems: items dropped during classify or generation
//
// ## Thumbnail Metrics
//   - ThumbnailGenerationsTotal: by status (success, error_decode, error_encode, error_io, skipped_cancelled)
//   - ThumbnailGenerationDuration: by phase (decode, resize, encode, total)
//   - ThumbnailWorkersBusy: workers currently generating
//
// ## Filesystem Metrics
//   - FilesystemOperationDuration / FilesystemOperationErrors
//   - FilesystemRetryAttempts / FilesystemStaleErrors
//
// Call InitializeMetrics once at startup so that every label combination is
// exported from the first scrape.
package metrics
