// Package middleware provides HTTP middleware for cross-cutting concerns:
// panic recovery, request IDs, tracing, access logging, CORS and request
// metrics.
//
// # Middleware Chain
//
// The server composes the chain outermost first:
//
//		handler = Recovery(RequestID(Tracing(Logging(CORS(Metrics(mux))))))
//
//	 1. Recovery: turn handler panics into 500s and report them to the fault handler
//	 2. RequestID: assign X-Request-ID and store it for log correlation
//	 3. Tracing: server span per request, continuing a client traceparent
//	 4. Logging: one structured log line per completed request
//	 5. CORS: cross-origin headers and preflight answers
//	 6. Metrics: per-route request counter and latency histogram
//
// All middleware share one response writer wrapper that captures the status
// code and forwards Flush, so Server-Sent Event streams pass through intact.
//
// There is no per-request timeout middleware; chat streams are bounded by the
// relay's own idle and total timeouts.
package middleware
