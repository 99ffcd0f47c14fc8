package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// plainWriter hides the recorder's Flush method.
type plainWriter struct {
	http.ResponseWriter
}

func TestNewSSEWriter_RequiresFlusher(t *testing.T) {
	if _, err := NewSSEWriter(plainWriter{httptest.NewRecorder()}); err != ErrStreamingUnsupported {
		t.Errorf("error = %v, want ErrStreamingUnsupported", err)
	}
}

func TestSSEWriter_Framing(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	if err != nil {
		t.Fatal(err)
	}

	sse.Start()
	if !rec.Flushed {
		t.Error("expected headers to be flushed on Start")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if c := rec.Header().Get("Connection"); c != "keep-alive" {
		t.Errorf("Connection = %q", c)
	}

	sse.WriteChunk(json.RawMessage(`{"n":1}`))
	sse.WriteChunk(json.RawMessage(`{"n":2}`))
	sse.WriteDone()

	want := "event: chunk\ndata: {\"n\":1}\n\nevent: chunk\ndata: {\"n\":2}\n\nevent: done\ndata: {}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body =\n%q\nwant\n%q", got, want)
	}
}

func TestSSEWriter_WriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, _ := NewSSEWriter(rec)

	sse.WriteError(`upstream said "no"`)

	want := "event: error\ndata: {\"message\":\"upstream said \\\"no\\\"\"}\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}
