// Package mockupstream provides an httptest server that imitates the
// streaming Responses API for tests.
package mockupstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Event is one SSE event the mock server sends.
type Event struct {
	// Name is written as the "event:" field when set
	Name string

	// Data is written verbatim as the "data:" field
	Data string
}

// Response defines how the mock answers a path.
type Response struct {
	// StatusCode for non-streaming answers; streaming answers are always 200
	StatusCode int

	// Body is written for non-streaming answers
	Body string

	// Headers are set on the response
	Headers map[string]string

	// Events are streamed as SSE when non-empty
	Events []Event

	// Delay is slept between streamed events
	Delay time.Duration

	// Hold keeps the stream open after the last event until the client
	// goes away
	Hold bool

	// Raw is written verbatim after Events, for malformed streams
	Raw string
}

// Server is a mock upstream server.
type Server struct {
	server *httptest.Server

	mu           sync.Mutex
	responses    map[string]Response
	requestCount int
	lastBody     []byte
	lastHeader   http.Header
	closed       chan struct{}
}

// NewServer starts a mock server.
func NewServer() *Server {
	s := &Server{
		responses: make(map[string]Response),
		closed:    make(chan struct{}, 16),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handler))
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.CloseClientConnections()
	s.server.Close()
}

// SetResponse sets the answer for path.
func (s *Server) SetResponse(path string, response Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = response
}

// RequestCount returns the number of requests received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestCount
}

// LastRequestBody returns the body of the most recent request.
func (s *Server) LastRequestBody() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody
}

// LastRequestHeader returns the headers of the most recent request.
func (s *Server) LastRequestHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeader
}

// Disconnected is signalled each time a held stream sees its client go away.
func (s *Server) Disconnected() <-chan struct{} {
	return s.closed
}

func (s *Server) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requestCount++
	s.lastBody = body
	s.lastHeader = r.Header.Clone()
	response, ok := s.responses[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.Events) > 0 || response.Hold || response.Raw != "" {
		s.stream(w, r, response)
		return
	}

	w.WriteHeader(response.StatusCode)
	_, _ = io.WriteString(w, response.Body)
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, response Response) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for _, ev := range response.Events {
		if response.Delay > 0 {
			select {
			case <-time.After(response.Delay):
			case <-r.Context().Done():
				s.closed <- struct{}{}
				return
			}
		}
		if ev.Name != "" {
			fmt.Fprintf(w, "event: %s\n", ev.Name)
		}
		fmt.Fprintf(w, "data: %s\n\n", ev.Data)
		flusher.Flush()
	}

	if response.Raw != "" {
		_, _ = io.WriteString(w, response.Raw)
		flusher.Flush()
	}

	if response.Hold {
		<-r.Context().Done()
		s.closed <- struct{}{}
	}
}

// TextDelta returns a response.output_text.delta event.
func TextDelta(delta string) Event {
	data, _ := json.Marshal(map[string]any{
		"type":  "response.output_text.delta",
		"delta": delta,
	})
	return Event{Name: "response.output_text.delta", Data: string(data)}
}

// Completed returns a response.completed event.
func Completed() Event {
	return Event{
		Name: "response.completed",
		Data: `{"type":"response.completed","response":{"status":"completed"}}`,
	}
}

// Failed returns a response.failed event carrying message.
func Failed(message string) Event {
	data, _ := json.Marshal(map[string]any{
		"type": "response.failed",
		"response": map[string]any{
			"status": "failed",
			"error":  map[string]any{"message": message},
		},
	})
	return Event{Name: "response.failed", Data: string(data)}
}

// ErrorBody returns an OpenAI-style JSON error body.
func ErrorBody(message string) string {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]any{"message": message},
	})
	return string(data)
}
