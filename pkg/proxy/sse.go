package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// SSE event names written by the chat relay.
const (
	EventChunk = "chunk"
	EventDone  = "done"
	EventError = "error"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming not supported by response writer")

// SSEWriter writes Server-Sent Events, flushing after each one.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter wraps w. It fails if w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Start sets the event-stream headers, writes the 200 status and flushes, so
// the caller sees the stream open before the first event.
func (s *SSEWriter) Start() {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
}

// WriteEvent writes one event:
//
//	event: <name>
//	data: <data>
//
// data must be a single line; compact JSON always is.
func (s *SSEWriter) WriteEvent(name string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return fmt.Errorf("failed to write SSE event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// WriteChunk forwards one upstream payload.
func (s *SSEWriter) WriteChunk(data json.RawMessage) error {
	return s.WriteEvent(EventChunk, data)
}

// WriteDone writes the terminal done event.
func (s *SSEWriter) WriteDone() error {
	return s.WriteEvent(EventDone, []byte("{}"))
}

// WriteError writes the terminal error event carrying message.
func (s *SSEWriter) WriteError(message string) error {
	data, err := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal SSE error: %w", err)
	}
	return s.WriteEvent(EventError, data)
}
