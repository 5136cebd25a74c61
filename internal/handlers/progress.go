package handlers

import (
	"errors"
	"net/http"
	"time"

	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/streaming"
)

// StreamProgress serves scan progress as Server-Sent Events named
// thumbnail-progress until the client goes away.
func (h *Handlers) StreamProgress(w http.ResponseWriter, r *http.Request) {
	events, unsubscribe := h.progress.Subscribe()
	defer unsubscribe()

	stream, err := streaming.NewEventStream(w, h.streamConfig)
	if err != nil {
		if errors.Is(err, streaming.ErrStreamingUnsupported) {
			writeJSONError(w, "Streaming unsupported", http.StatusInternalServerError)
		}
		return
	}

	start := time.Now()
	defer func() {
		logging.Debug("Progress stream closed after %v: %d events, %d bytes",
			time.Since(start).Round(time.Millisecond), stream.Events(), stream.BytesWritten())
	}()

	heartbeat := time.NewTicker(h.streamConfig.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if err := stream.Comment("ping"); err != nil {
				return
			}
		case p, ok := <-events:
			if !ok {
				return
			}
			if err := stream.Send(gallery.ProgressEvent, p); err != nil {
				logging.Debug("Progress stream write failed: %v", err)
				return
			}
		}
	}
}
