package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/media"
)

// ScanRequest is the body of POST /api/gallery/scan.
type ScanRequest struct {
	FolderPath      string `json:"folderPath"`
	ThumbnailSize   int    `json:"thumbnailSize"`
	EmbedThumbnails bool   `json:"embedThumbnails"`
}

// DataURLResponse carries one encoded image.
type DataURLResponse struct {
	Path    string `json:"path"`
	DataURL string `json:"dataUrl"`
}

// ScanFolder runs a scan and returns its items. Progress is published to
// the progress stream while the request is open.
func (h *Handlers) ScanFolder(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FolderPath == "" {
		writeJSONError(w, "folderPath is required", http.StatusBadRequest)
		return
	}
	if req.ThumbnailSize <= 0 {
		req.ThumbnailSize = h.thumbnailSize
	}

	result, err := h.session.Scan(r.Context(), req.FolderPath, req.ThumbnailSize, gallery.ScanOptions{
		Progress:        h.progress,
		EmbedThumbnails: req.EmbedThumbnails,
	})
	if err != nil {
		logging.Warn("Scan of %s failed: %v", req.FolderPath, err)
		writeJSONError(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, result)
}

// CancelScan requests cancellation of the scan in flight, if any.
func (h *Handlers) CancelScan(w http.ResponseWriter, _ *http.Request) {
	if h.session.Cancel() {
		logging.Info("Scan cancellation requested")
		writeJSONStatus(w, "cancelling")
		return
	}
	writeJSONStatus(w, "idle")
}

// GetThumbnail returns the cached or freshly generated thumbnail for one
// image as a data URL.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	url, err := h.session.Service().GetThumbnail(r.Context(), path, sizeParam(r, h.thumbnailSize))
	if err != nil {
		logging.Debug("Thumbnail for %s failed: %v", path, err)
		writeJSONError(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, DataURLResponse{Path: path, DataURL: url})
}

// GetFullImage returns the unmodified image as a data URL.
func (h *Handlers) GetFullImage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	url, err := media.LoadFullImage(path)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, media.ErrNotAFile), errors.Is(err, os.ErrNotExist):
			status = http.StatusNotFound
		case errors.Is(err, media.ErrUnsupportedFormat):
			status = http.StatusUnsupportedMediaType
		}
		logging.Debug("Full image %s failed: %v", path, err)
		writeJSONError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, DataURLResponse{Path: path, DataURL: url})
}

// GetInitialFolder returns the folder given on the command line, or null.
func (h *Handlers) GetInitialFolder(w http.ResponseWriter, _ *http.Request) {
	var folder *string
	if h.initialFolder != "" {
		folder = &h.initialFolder
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]*string{"folder": folder})
}

// GetCacheStats returns the size of the thumbnail cache.
func (h *Handlers) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		logging.Error("Failed to read cache stats: %v", err)
		writeJSONError(w, "Failed to read cache stats", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, stats)
}
