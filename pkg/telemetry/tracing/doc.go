// Package tracing provides OpenTelemetry tracing for the QoLA API.
//
// Each HTTP request gets a server span, started by the tracing middleware
// after any W3C traceparent header sent by the client has been extracted. The
// chat relay annotates that span with the model, the stream outcome and the
// number of chunks written, and the upstream client injects the span context
// into its outgoing request so the LLM call joins the same trace.
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.1
//
// Spans are exported over OTLP gRPC. With tracing disabled the package hands
// out no-op spans, so instrumented code needs no conditionals.
package tracing
