package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPTarget     = attribute.Key("http.target")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrRequestID      = attribute.Key("qola.request_id")
	AttrModel          = attribute.Key("qola.model")
	AttrSeniorID       = attribute.Key("qola.senior_id")
	AttrStreamOutcome  = attribute.Key("qola.stream.outcome")
	AttrStreamChunks   = attribute.Key("qola.stream.chunks")
)

// Span event names.
const (
	EventFirstChunk = "first_chunk"
)

// SetRelayAttributes annotates span with the chat stream being relayed.
func SetRelayAttributes(span trace.Span, model, seniorID string) {
	span.SetAttributes(
		AttrModel.String(model),
		AttrSeniorID.String(seniorID),
	)
}

// SetStreamResult annotates span with how a relay stream ended.
func SetStreamResult(span trace.Span, outcome string, chunks int) {
	span.SetAttributes(
		AttrStreamOutcome.String(outcome),
		AttrStreamChunks.Int(chunks),
	)
}
