package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkolkovskiy/qola/pkg/telemetry/logging"
	"github.com/dkolkovskiy/qola/pkg/telemetry/tracing"
)

// TracingMiddleware starts a server span per request, continuing any trace
// the client sent in a traceparent header. It runs inside
// RequestIDMiddleware so the span carries the request ID, and outside
// LoggingMiddleware so access logs carry the trace ID. Responses with a 5xx status
// mark the span failed.
//
// Example usage:
//
//	handler = TracingMiddleware(tracer)(handler)
func TracingMiddleware(tracer *tracing.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !tracer.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tracing.Extract(r.Context(), r.Header)
			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					tracing.AttrHTTPMethod.String(r.Method),
					tracing.AttrHTTPTarget.String(r.URL.Path),
					tracing.AttrRequestID.String(logging.GetRequestID(r.Context())),
				),
			)
			defer span.End()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(tracing.AttrHTTPStatusCode.Int(rw.statusCode))
			if rw.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}
