package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/providers"
	"github.com/dkolkovskiy/qola/pkg/telemetry/metrics"
)

// fakeStreamer replays a fixed list of events. With hold set it keeps the
// stream open after the events until the caller's context ends.
type fakeStreamer struct {
	events  []*providers.StreamEvent
	openErr error
	hold    bool

	mu        sync.Mutex
	request   *providers.ResponseRequest
	opened    chan struct{}
	cancelled chan struct{}
}

func newFakeStreamer(events ...*providers.StreamEvent) *fakeStreamer {
	return &fakeStreamer{
		events:    events,
		opened:    make(chan struct{}),
		cancelled: make(chan struct{}),
	}
}

func (f *fakeStreamer) Name() string { return "fake" }

func (f *fakeStreamer) StreamResponse(ctx context.Context, req *providers.ResponseRequest) (<-chan *providers.StreamEvent, error) {
	f.mu.Lock()
	f.request = req
	f.mu.Unlock()

	if f.openErr != nil {
		return nil, f.openErr
	}

	ch := make(chan *providers.StreamEvent)
	go func() {
		defer close(ch)
		for _, ev := range f.events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				close(f.cancelled)
				return
			}
		}
		close(f.opened)
		if f.hold {
			<-ctx.Done()
			close(f.cancelled)
		}
	}()
	return ch, nil
}

func (f *fakeStreamer) lastRequest() *providers.ResponseRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.request
}

func chunk(data string) *providers.StreamEvent {
	return &providers.StreamEvent{Type: "response.output_text.delta", Data: json.RawMessage(data)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestChatHandler(streamer providers.ResponseStreamer, relay config.RelayConfig, collector *metrics.Collector) *ChatHandler {
	return NewChatHandler(streamer, "test-model", relay, collector, discardLogger())
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ai/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const validChat = `{"seniorId":"s1","message":"hello"}`

func TestChatHandler_RelaysChunksThenDone(t *testing.T) {
	streamer := newFakeStreamer(chunk(`{"n":1}`), chunk(`{"n":2}`))
	collector := metrics.NewCollector("test")
	h := newTestChatHandler(streamer, config.RelayConfig{IdleTimeout: time.Second}, collector)

	w := postChat(t, h, validChat)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	want := "event: chunk\ndata: {\"n\":1}\n\n" +
		"event: chunk\ndata: {\"n\":2}\n\n" +
		"event: done\ndata: {}\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("body =\n%q\nwant\n%q", got, want)
	}

	expected := `
# HELP test_relay_chunks_total Total number of upstream events forwarded to callers
# TYPE test_relay_chunks_total counter
test_relay_chunks_total 2
# HELP test_relay_streams_total Total number of chat streams by outcome
# TYPE test_relay_streams_total counter
test_relay_streams_total{outcome="done"} 1
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
		"test_relay_chunks_total", "test_relay_streams_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestChatHandler_SendsSystemPromptAndMessage(t *testing.T) {
	streamer := newFakeStreamer()
	h := newTestChatHandler(streamer, config.RelayConfig{SystemPrompt: "be kind"}, nil)

	postChat(t, h, validChat)

	req := streamer.lastRequest()
	if req == nil {
		t.Fatal("upstream was not called")
	}
	if req.Model != "test-model" {
		t.Errorf("model = %q, want test-model", req.Model)
	}
	if len(req.Input) != 2 {
		t.Fatalf("input has %d messages, want 2", len(req.Input))
	}
	if req.Input[0].Role != providers.RoleSystem || req.Input[0].Content != "be kind" {
		t.Errorf("first message = %+v, want system prompt", req.Input[0])
	}
	if req.Input[1].Role != providers.RoleUser || req.Input[1].Content != "hello" {
		t.Errorf("second message = %+v, want user message", req.Input[1])
	}
}

func TestChatHandler_DefaultSystemPrompt(t *testing.T) {
	streamer := newFakeStreamer()
	h := newTestChatHandler(streamer, config.RelayConfig{}, nil)

	postChat(t, h, validChat)

	if got := streamer.lastRequest().Input[0].Content; got != config.DefaultSystemPrompt {
		t.Errorf("system prompt = %q, want default", got)
	}
}

func TestChatHandler_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "empty body", body: ``},
		{name: "missing message", body: `{"seniorId":"s1"}`},
		{name: "missing senior", body: `{"message":"hi"}`},
		{name: "empty strings", body: `{"seniorId":"","message":""}`},
		{name: "malformed json", body: `{"seniorId":`},
		{name: "wrong type", body: `{"seniorId":42,"message":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streamer := newFakeStreamer()
			h := newTestChatHandler(streamer, config.RelayConfig{}, nil)

			w := postChat(t, h, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
				t.Errorf("Content-Type = %q, want JSON", w.Header().Get("Content-Type"))
			}
			want := `{"error":"seniorId and message are required"}`
			if got := strings.TrimSpace(w.Body.String()); got != want {
				t.Errorf("body = %s, want %s", got, want)
			}
			if streamer.lastRequest() != nil {
				t.Error("upstream must not be called for an invalid request")
			}
		})
	}
}

func TestChatHandler_MethodNotAllowed(t *testing.T) {
	h := newTestChatHandler(newFakeStreamer(), config.RelayConfig{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ai/chat", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	if allow := w.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %q, want POST", allow)
	}
}

func TestChatHandler_ErrorAfterEvents(t *testing.T) {
	streamer := newFakeStreamer(
		chunk(`{"n":1}`),
		chunk(`{"n":2}`),
		&providers.StreamEvent{Err: &providers.StreamError{Provider: "fake", Message: "boom"}},
	)
	collector := metrics.NewCollector("test")
	h := newTestChatHandler(streamer, config.RelayConfig{}, collector)

	w := postChat(t, h, validChat)

	want := "event: chunk\ndata: {\"n\":1}\n\n" +
		"event: chunk\ndata: {\"n\":2}\n\n" +
		"event: error\ndata: {\"message\":\"boom\"}\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("body =\n%q\nwant\n%q", got, want)
	}
	if strings.Contains(w.Body.String(), "event: done") {
		t.Error("error stream must not also end with done")
	}

	expected := `
# HELP test_relay_streams_total Total number of chat streams by outcome
# TYPE test_relay_streams_total counter
test_relay_streams_total{outcome="error"} 1
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
		"test_relay_streams_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestChatHandler_OpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "auth failure carries upstream message",
			err:     &providers.AuthError{Provider: "fake", Message: "Incorrect API key provided"},
			message: "Incorrect API key provided",
		},
		{
			name:    "provider error carries upstream message",
			err:     &providers.ProviderError{Provider: "fake", StatusCode: 500, Message: "server overloaded"},
			message: "server overloaded",
		},
		{
			name:    "empty message falls back",
			err:     &providers.StreamError{Provider: "fake"},
			message: "OpenAI error",
		},
		{
			name:    "plain error",
			err:     errors.New("dial tcp: connection refused"),
			message: "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streamer := newFakeStreamer()
			streamer.openErr = tt.err
			h := newTestChatHandler(streamer, config.RelayConfig{}, nil)

			w := postChat(t, h, validChat)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (stream already open)", w.Code)
			}
			data, _ := json.Marshal(map[string]string{"message": tt.message})
			want := "event: error\ndata: " + string(data) + "\n\n"
			if got := w.Body.String(); got != want {
				t.Errorf("body = %q, want %q", got, want)
			}
		})
	}
}

func TestChatHandler_SkipsEmptyEvents(t *testing.T) {
	streamer := newFakeStreamer(&providers.StreamEvent{Type: "keepalive"}, chunk(`{"n":1}`))
	h := newTestChatHandler(streamer, config.RelayConfig{}, nil)

	w := postChat(t, h, validChat)

	want := "event: chunk\ndata: {\"n\":1}\n\nevent: done\ndata: {}\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestChatHandler_IdleTimeout(t *testing.T) {
	streamer := newFakeStreamer(chunk(`{"n":1}`))
	streamer.hold = true
	h := newTestChatHandler(streamer, config.RelayConfig{IdleTimeout: 50 * time.Millisecond}, nil)

	w := postChat(t, h, validChat)

	want := "event: chunk\ndata: {\"n\":1}\n\n" +
		"event: error\ndata: {\"message\":\"upstream stream idle timeout\"}\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}

	select {
	case <-streamer.cancelled:
	case <-time.After(time.Second):
		t.Fatal("upstream call was not cancelled after idle timeout")
	}
}

func TestChatHandler_StreamTimeout(t *testing.T) {
	streamer := newFakeStreamer()
	streamer.hold = true
	h := newTestChatHandler(streamer, config.RelayConfig{StreamTimeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	w := postChat(t, h, validChat)

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("stream took %v, expected it to end near the timeout", elapsed)
	}
	want := "event: error\ndata: {\"message\":\"upstream stream timed out\"}\n\n"
	if got := w.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestChatHandler_ClientDisconnectCancelsUpstream(t *testing.T) {
	streamer := newFakeStreamer(chunk(`{"n":1}`))
	streamer.hold = true
	collector := metrics.NewCollector("test")
	h := newTestChatHandler(streamer, config.RelayConfig{}, collector)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/ai/chat", strings.NewReader(validChat)).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(w, req)
	}()

	select {
	case <-streamer.opened:
	case <-time.After(time.Second):
		t.Fatal("stream never opened")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after client disconnect")
	}
	select {
	case <-streamer.cancelled:
	case <-time.After(time.Second):
		t.Fatal("upstream call was not cancelled")
	}

	body := w.Body.String()
	if strings.Contains(body, "event: done") || strings.Contains(body, "event: error") {
		t.Errorf("no terminal event expected after disconnect, got %q", body)
	}

	expected := `
# HELP test_relay_streams_total Total number of chat streams by outcome
# TYPE test_relay_streams_total counter
test_relay_streams_total{outcome="disconnected"} 1
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected),
		"test_relay_streams_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

// nonFlushingWriter hides the recorder's Flush method.
type nonFlushingWriter struct {
	http.ResponseWriter
}

func TestChatHandler_StreamingUnsupported(t *testing.T) {
	streamer := newFakeStreamer()
	h := newTestChatHandler(streamer, config.RelayConfig{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ai/chat", strings.NewReader(validChat))
	h.ServeHTTP(nonFlushingWriter{rec}, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if streamer.lastRequest() != nil {
		t.Error("upstream must not be called without a flushable writer")
	}
}
