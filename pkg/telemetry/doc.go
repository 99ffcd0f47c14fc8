/*
Package telemetry groups the observability packages of the QoLA API.

# Logging

Subpackage logging builds a structured log/slog logger from configuration.
Records written with a request context carry the request ID and, when
tracing is on, the trace ID. Sensitive attribute values are redacted.

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)

# Metrics

Subpackage metrics owns a Prometheus registry with HTTP, relay, transport
and certificate metrics. Collector methods are safe on a nil receiver, so
code paths with metrics disabled need no checks.

	collector := metrics.NewCollector("qola")
	collector.RecordStreamEnd(metrics.OutcomeDone, elapsed)

# Tracing

Subpackage tracing exports OpenTelemetry spans over OTLP gRPC. Each request
gets a server span that continues any client traceparent, and the upstream
request carries the same trace.

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	defer tracer.Shutdown(context.Background())

# Subpackages

  - logging: slog logger construction, context attributes, redaction
  - metrics: Prometheus collector and scrape handler
  - tracing: OpenTelemetry tracer, propagation and span attributes
*/
package telemetry
