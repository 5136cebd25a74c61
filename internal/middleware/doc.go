// Package middleware provides the HTTP middleware used by the gallery
// server: access logging, Prometheus request metrics keyed by route
// template, and gzip compression of JSON responses.
package middleware
