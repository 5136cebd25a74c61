// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [Load] resolves configuration from three layers, later layers winning:
// built-in defaults, an optional TOML file named by GALLERY_CONFIG, and
// environment variables:
//
//   - GALLERY_DATA_DIR: directory holding thumbnail_cache.sqlite (default: user config dir/gallery-viewer)
//   - GALLERY_INITIAL_FOLDER: folder offered to the UI when no folder argument is given
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: enable or disable the metrics server (default: true)
//   - THUMBNAIL_SIZE: default bounding box for thumbnails in pixels (default: 256)
//   - THUMBNAIL_WORKERS: generation worker count (default: one per CPU)
//   - VIPS_ENABLED: use libvips for decode-time shrinking (default: false)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log health check requests (default: true)
//
// Invalid values are reported with a warning and replaced by the default.
// The data directory is created if missing and must be writable.
//
// # Startup Logging
//
// [LoadConfig] wraps Load with a banner, system information and a summary
// of the effective configuration. The Log* helpers print the remaining
// startup and shutdown phases in the same format.
package startup
