// Package main is the gallery-viewer backend.
//
// It serves the HTTP API a desktop or browser shell uses to browse a folder
// of images: scans that return the folder's images in path order while
// filling the SQLite thumbnail cache, single thumbnails and full images as
// data URLs, cancellation, and a Server-Sent Events progress stream.
//
// # Startup
//
//  1. GOMEMLIMIT is derived from MEMORY_LIMIT when set.
//  2. Configuration is loaded from defaults, the TOML file named by
//     GALLERY_CONFIG, and environment variables.
//  3. libvips starts if VIPS_ENABLED is true.
//  4. The thumbnail cache opens in the data directory.
//  5. The scan service, session and progress broadcaster are built.
//  6. If an initial folder was given, a watcher rescans it on change.
//  7. The API listens on PORT and Prometheus metrics on METRICS_PORT.
//
// # Routes
//
//	POST /api/gallery/scan      scan a folder
//	POST /api/gallery/cancel    cancel the running scan
//	GET  /api/thumbnail?path=   one thumbnail as a data URL
//	GET  /api/image?path=       one full image as a data URL
//	GET  /api/initial-folder    folder given at startup, or null
//	GET  /api/progress          thumbnail-progress event stream
//	GET  /api/cache/stats       cache entry count and size
//	GET  /api/version           build information
//	GET  /health, /livez        probes
//
// SIGINT and SIGTERM cancel any running scan and shut the servers down.
package main
