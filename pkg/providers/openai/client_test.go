package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dkolkovskiy/qola/internal/mockupstream"
	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/providers"
	"github.com/dkolkovskiy/qola/pkg/telemetry/tracing"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := config.NewDefault().Upstream
	cfg.BaseURL = baseURL
	cfg.APIKey = "test-key"
	cfg.ConnectTimeout = 2 * time.Second
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testRequest() *providers.ResponseRequest {
	return &providers.ResponseRequest{
		Model: "gpt-4.1-mini",
		Input: []providers.InputMessage{
			{Role: providers.RoleSystem, Content: "be kind"},
			{Role: providers.RoleUser, Content: "hello"},
		},
	}
}

// collect drains events with a deadline.
func collect(t *testing.T, events <-chan *providers.StreamEvent) []*providers.StreamEvent {
	t.Helper()
	var out []*providers.StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func TestStreamResponse_ForwardsEventsInOrder(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		Events: []mockupstream.Event{
			{Data: `{"n":1}`},
			{Data: `{"n": 2}`},
			mockupstream.TextDelta("hi"),
		},
	})

	client := newTestClient(t, mock.URL())
	events, err := client.StreamResponse(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("StreamResponse() error = %v", err)
	}

	got := collect(t, events)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if string(got[0].Data) != `{"n":1}` {
		t.Errorf("event 0 = %s", got[0].Data)
	}
	if string(got[1].Data) != `{"n":2}` {
		t.Errorf("event 1 = %s, want compacted JSON", got[1].Data)
	}
	if got[2].Type != "response.output_text.delta" {
		t.Errorf("event 2 type = %q", got[2].Type)
	}
	for i, ev := range got {
		if ev.Err != nil {
			t.Errorf("event %d has unexpected error %v", i, ev.Err)
		}
	}
}

func TestStreamResponse_RequestShape(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		Events: []mockupstream.Event{mockupstream.Completed()},
	})

	client := newTestClient(t, mock.URL()+"/")
	events, err := client.StreamResponse(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("StreamResponse() error = %v", err)
	}
	collect(t, events)

	var body struct {
		Model  string                   `json:"model"`
		Stream bool                     `json:"stream"`
		Input  []providers.InputMessage `json:"input"`
	}
	if err := json.Unmarshal(mock.LastRequestBody(), &body); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if !body.Stream {
		t.Error("expected stream: true")
	}
	if body.Model != "gpt-4.1-mini" {
		t.Errorf("model = %q", body.Model)
	}
	if len(body.Input) != 2 || body.Input[0].Role != "system" || body.Input[1].Content != "hello" {
		t.Errorf("input = %+v", body.Input)
	}
	if got := mock.LastRequestHeader().Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestStreamResponse_EventTypeFromPayload(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		Events: []mockupstream.Event{{Data: `{"type":"response.created"}`}},
	})

	events, err := newTestClient(t, mock.URL()).StreamResponse(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	got := collect(t, events)
	if len(got) != 1 || got[0].Type != "response.created" {
		t.Fatalf("got %+v", got)
	}
}

func TestStreamResponse_DoneSentinel(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		Events: []mockupstream.Event{{Data: `{"n":1}`}, {Data: "[DONE]"}, {Data: `{"n":2}`}},
	})

	events, err := newTestClient(t, mock.URL()).StreamResponse(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if got := collect(t, events); len(got) != 1 {
		t.Errorf("got %d events, want 1", len(got))
	}
}

func TestStreamResponse_UpstreamFailureEvent(t *testing.T) {
	tests := []struct {
		name  string
		event mockupstream.Event
		want  string
	}{
		{"response.failed", mockupstream.Failed("model overloaded"), "model overloaded"},
		{"error", mockupstream.Event{Name: "error", Data: `{"type":"error","message":"bad things"}`}, "bad things"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := mockupstream.NewServer()
			defer mock.Close()
			mock.SetResponse("/responses", mockupstream.Response{
				Events: []mockupstream.Event{{Data: `{"n":1}`}, tt.event, {Data: `{"n":2}`}},
			})

			events, err := newTestClient(t, mock.URL()).StreamResponse(context.Background(), testRequest())
			if err != nil {
				t.Fatal(err)
			}
			got := collect(t, events)

			if len(got) != 3 {
				t.Fatalf("got %d events, want 3 (chunk, failure, terminal error)", len(got))
			}
			last := got[2]
			if last.Err == nil {
				t.Fatal("expected terminal error event")
			}
			if providers.Message(last.Err) != tt.want {
				t.Errorf("message = %q, want %q", providers.Message(last.Err), tt.want)
			}
		})
	}
}

func TestStreamResponse_MalformedPayload(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		Events: []mockupstream.Event{{Data: `{"n":1}`}, {Data: `{not json`}},
	})

	events, err := newTestClient(t, mock.URL()).StreamResponse(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}

	var parseErr *providers.ParseError
	if !errors.As(got[1].Err, &parseErr) {
		t.Errorf("expected ParseError, got %T", got[1].Err)
	}
}

func TestStreamResponse_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: 401,
			check: func(t *testing.T, err error) {
				var authErr *providers.AuthError
				if !errors.As(err, &authErr) {
					t.Fatalf("expected AuthError, got %T", err)
				}
				if authErr.Message != "invalid key" {
					t.Errorf("message = %q", authErr.Message)
				}
			},
		},
		{
			name:    "rate limited",
			status:  429,
			headers: map[string]string{"Retry-After": "7"},
			check: func(t *testing.T, err error) {
				var rateErr *providers.RateLimitError
				if !errors.As(err, &rateErr) {
					t.Fatalf("expected RateLimitError, got %T", err)
				}
				if rateErr.RetryAfter != 7*time.Second {
					t.Errorf("retry after = %v", rateErr.RetryAfter)
				}
			},
		},
		{
			name:   "server error",
			status: 500,
			check: func(t *testing.T, err error) {
				var provErr *providers.ProviderError
				if !errors.As(err, &provErr) {
					t.Fatalf("expected ProviderError, got %T", err)
				}
				if provErr.StatusCode != 500 {
					t.Errorf("status = %d", provErr.StatusCode)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := mockupstream.NewServer()
			defer mock.Close()
			mock.SetResponse("/responses", mockupstream.Response{
				StatusCode: tt.status,
				Body:       mockupstream.ErrorBody("invalid key"),
				Headers:    tt.headers,
			})

			_, err := newTestClient(t, mock.URL()).StreamResponse(context.Background(), testRequest())
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
			if mock.RequestCount() != 1 {
				t.Errorf("requests = %d, want exactly 1 (no retries)", mock.RequestCount())
			}
		})
	}
}

func TestStreamResponse_MissingAPIKey(t *testing.T) {
	cfg := config.NewDefault().Upstream
	cfg.APIKey = ""
	client := NewClient(cfg, nil)

	_, err := client.StreamResponse(context.Background(), testRequest())
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestStreamResponse_InvalidRequest(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.StreamResponse(context.Background(), &providers.ResponseRequest{Model: "m"})
	var valErr *providers.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestStreamResponse_ContextCancelStopsProducer(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		Events: []mockupstream.Event{{Data: `{"n":1}`}},
		Hold:   true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	events, err := newTestClient(t, mock.URL()).StreamResponse(ctx, testRequest())
	if err != nil {
		t.Fatal(err)
	}

	first := <-events
	if first == nil || string(first.Data) != `{"n":1}` {
		t.Fatalf("first event = %+v", first)
	}

	cancel()

	got := collect(t, events)
	for _, ev := range got {
		if ev.Err == nil {
			t.Errorf("unexpected data event after cancel: %s", ev.Data)
		}
	}

	select {
	case <-mock.Disconnected():
	case <-time.After(5 * time.Second):
		t.Fatal("upstream request was not aborted")
	}
}

func TestStreamResponse_NonStreamingSuccess(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		StatusCode: 200,
		Body:       `{"id":"x"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})

	events, err := newTestClient(t, mock.URL()).StreamResponse(context.Background(), testRequest())
	if err == nil {
		t.Fatalf("expected error, got stream with %d events", len(collect(t, events)))
	}

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.StatusCode != 200 || !strings.Contains(provErr.Message, "application/json") {
		t.Errorf("error = %+v", provErr)
	}
}

func TestStreamResponse_InlineStreamError(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		Events: []mockupstream.Event{
			{Data: `{"n":1}`},
			{Data: `{"error":{"message":"quota exceeded"}}`},
			{Data: `{"n":2}`},
		},
	})

	events, err := newTestClient(t, mock.URL()).StreamResponse(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}

	var streamErr *providers.StreamError
	if !errors.As(got[1].Err, &streamErr) {
		t.Fatalf("expected StreamError, got %T", got[1].Err)
	}
	if streamErr.Message != "quota exceeded" {
		t.Errorf("message = %q", streamErr.Message)
	}
}

func TestStreamResponse_Unreachable(t *testing.T) {
	_, err := newTestClient(t, "http://127.0.0.1:1").StreamResponse(context.Background(), testRequest())

	var streamErr *providers.StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected StreamError, got %v", err)
	}
	if streamErr.Message != "failed to reach upstream" {
		t.Errorf("message = %q", streamErr.Message)
	}
}

func TestStreamResponse_PropagatesTraceContext(t *testing.T) {
	mock := mockupstream.NewServer()
	defer mock.Close()
	mock.SetResponse("/responses", mockupstream.Response{
		Events: []mockupstream.Event{mockupstream.Completed()},
	})

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(&config.TracingConfig{
		Enabled:     true,
		ServiceName: "qola-test",
		Sampler:     tracing.SamplerAlways,
	}, exporter, sdktrace.WithSyncer(exporter))
	if err != nil {
		t.Fatal(err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.Start(context.Background(), "chat.relay")
	defer span.End()

	events, err := newTestClient(t, mock.URL()).StreamResponse(ctx, testRequest())
	if err != nil {
		t.Fatal(err)
	}
	collect(t, events)

	traceparent := mock.LastRequestHeader().Get("traceparent")
	if !strings.Contains(traceparent, tracing.TraceID(ctx)) {
		t.Errorf("traceparent = %q, want trace %s", traceparent, tracing.TraceID(ctx))
	}
}
