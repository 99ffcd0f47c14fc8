// Package metrics exposes Prometheus metrics for the relay service.
//
// A Collector owns a private registry so tests and multiple servers in one
// process never collide on the global default registry. The Handler method
// serves the registry in the Prometheus exposition format.
//
// Metric families:
//
//	<ns>_http_requests_total{route,method,status}
//	<ns>_http_request_duration_seconds{route,method}
//	<ns>_relay_streams_active
//	<ns>_relay_streams_total{outcome}
//	<ns>_relay_chunks_total
//	<ns>_relay_first_chunk_seconds
//	<ns>_relay_stream_duration_seconds
//	<ns>_server_transport_mode{mode}
//	<ns>_server_recovered_panics_total
//	<ns>_tls_certificate_expiry_days
package metrics
