package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// statusForError maps an operation error onto an HTTP status.
func statusForError(err error) int {
	switch gallery.KindOf(err) {
	case gallery.InvalidRoot:
		return http.StatusBadRequest
	case gallery.NotFound:
		return http.StatusNotFound
	case gallery.UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case gallery.DecodeFailed:
		return http.StatusUnprocessableEntity
	case gallery.StoreUnavailable:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// sizeParam reads a positive thumbnail size from the query, or fallback.
func sizeParam(r *http.Request, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v > 0 {
		return v
	}
	return fallback
}
