package streaming

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	// ErrStreamingUnsupported is returned when the response cannot be flushed.
	ErrStreamingUnsupported = errors.New("streaming unsupported")

	// ErrWriteTimeout is returned when a client does not accept an event
	// within the write timeout.
	ErrWriteTimeout = errors.New("write timeout exceeded")
)

// EventStreamConfig configures a Server-Sent Events stream.
type EventStreamConfig struct {
	// WriteTimeout bounds each event write. Zero disables the deadline.
	WriteTimeout time.Duration

	// Heartbeat is the interval between keep-alive comments.
	Heartbeat time.Duration
}

// DefaultEventStreamConfig returns the stream defaults.
func DefaultEventStreamConfig() EventStreamConfig {
	return EventStreamConfig{
		WriteTimeout: 10 * time.Second,
		Heartbeat:    15 * time.Second,
	}
}

// EventStream writes Server-Sent Events to one client. It is not safe for
// concurrent use.
type EventStream struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	config EventStreamConfig

	events       int64
	bytesWritten int64
}

// NewEventStream sends the event-stream headers and an initial comment.
func NewEventStream(w http.ResponseWriter, config EventStreamConfig) (*EventStream, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &EventStream{w: w, rc: http.NewResponseController(w), config: config}
	if err := s.Comment("connected"); err != nil {
		return nil, err
	}
	return s, nil
}

// Comment writes a comment line, which clients ignore.
func (s *EventStream) Comment(text string) error {
	return s.write(": " + text + "\n\n")
}

// Send writes one named event whose data is v encoded as JSON.
func (s *EventStream) Send(name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	if err := s.write("event: " + name + "\ndata: " + string(data) + "\n\n"); err != nil {
		return err
	}
	s.events++
	return nil
}

// Events returns the number of events sent.
func (s *EventStream) Events() int64 {
	return s.events
}

// BytesWritten returns the number of bytes written, comments included.
func (s *EventStream) BytesWritten() int64 {
	return s.bytesWritten
}

func (s *EventStream) write(frame string) error {
	if s.config.WriteTimeout > 0 {
		// Writers without deadline support (recorders, wrapping
		// middleware) return ErrNotSupported. Those writes are unbounded.
		_ = s.rc.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}

	n, err := strings.NewReader(frame).WriteTo(s.w)
	s.bytesWritten += n
	if err == nil {
		err = s.rc.Flush()
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrWriteTimeout
	}
	return err
}
