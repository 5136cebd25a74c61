package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Cache store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_db_queries_total",
			Help: "Total number of cache store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_db_query_duration_seconds",
			Help:    "Cache store query duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_db_transaction_duration_seconds",
			Help:    "Duration of batch upsert transactions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"outcome"},
	)

	DBRowsUpserted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_db_rows_upserted",
			Help:    "Number of cache entries written per batch",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)
)

// Scan metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_scans_total",
			Help: "Total number of gallery scans by outcome",
		},
		[]string{"outcome"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_scan_duration_seconds",
			Help:    "End-to-end gallery scan duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	ScanItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_scan_items",
			Help:    "Number of images discovered per scan",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	ScanInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_scan_running",
			Help: "Whether a gallery scan is currently running (1 = running, 0 = idle)",
		},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_cache_lookups_total",
			Help: "Thumbnail cache lookups by result",
		},
		[]string{"result"},
	)

	ScanSkippedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_scan_skipped_items_total",
			Help: "Images skipped during a scan by stage",
		},
		[]string{"stage"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by status",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds by phase",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"phase"},
	)

	ThumbnailWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_thumbnail_workers_busy",
			Help: "Number of workers currently generating a thumbnail",
		},
	)

	ThumbnailBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_thumbnail_bytes",
			Help:    "Encoded thumbnail size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 10),
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_filesystem_operation_errors_total",
			Help: "Total filesystem operation errors",
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_filesystem_retry_attempts_total",
			Help: "Total retries of filesystem operations after stale file handle errors",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_filesystem_stale_errors_total",
			Help: "Total ESTALE errors observed",
		},
		[]string{"operation"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_watcher_events_total",
			Help: "Total filesystem events seen by the folder watcher",
		},
		[]string{"type"},
	)

	WatcherWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_watcher_watched_directories",
			Help: "Number of directories registered with the folder watcher",
		},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_watcher_errors_total",
			Help: "Total folder watcher errors",
		},
	)

	WatcherRescansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_watcher_rescans_total",
			Help: "Total scans triggered by filesystem changes",
		},
	)
)

// Memory metrics
var (
	GoMemLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_go_memlimit_bytes",
			Help: "Configured GOMEMLIMIT in bytes (0 if unset)",
		},
	)

	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_memory_paused",
			Help: "1 while thumbnail generation is paused for memory pressure",
		},
	)

	MemoryPauseWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_memory_pause_waits_total",
			Help: "Total thumbnail jobs that waited for memory pressure to clear",
		},
	)
)

// AppInfo exposes build information as labels on a constant gauge.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "gallery_viewer_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
