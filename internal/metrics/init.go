package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, op := range []string{"lookup_fresh", "upsert", "upsert_batch", "get", "count", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	for _, outcome := range []string{"completed", "cancelled", "error"} {
		ScansTotal.WithLabelValues(outcome)
	}
	for _, result := range []string{"hit", "miss", "error"} {
		CacheLookupsTotal.WithLabelValues(result)
	}
	for _, stage := range []string{"classify", "generate"} {
		ScanSkippedItems.WithLabelValues(stage)
	}

	for _, status := range []string{"success", "error_decode", "error_encode", "error_io", "skipped_cancelled"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}
	for _, phase := range []string{"decode", "resize", "encode", "total"} {
		ThumbnailGenerationDuration.WithLabelValues(phase)
	}

	for _, typ := range []string{"create", "write", "remove", "rename", "chmod"} {
		WatcherEventsTotal.WithLabelValues(typ)
	}

	for _, op := range []string{"stat", "readdir", "read"} {
		FilesystemOperationDuration.WithLabelValues(op)
		FilesystemOperationErrors.WithLabelValues(op)
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}
}
