// Package handlers provides the HTTP API the gallery front end talks to.
//
// It includes handlers for:
//   - Folder scans, scan cancellation and the progress event stream
//   - Single thumbnails and full-resolution images as data URLs
//   - The initial folder passed on the command line
//   - Cache statistics, health checks and version information
package handlers
