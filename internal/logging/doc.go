// Package logging provides a simple leveled logging interface for the
// gallery viewer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (cache hits, per-worker activity)
//   - INFO: General operational messages
//   - WARN: Skipped items and other recoverable conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is read from the DEBUG and LOG_LEVEL environment variables
// on first use and can be overridden with SetLevel (the CLI does this for
// its --log-level flag).
package logging
