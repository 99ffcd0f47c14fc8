package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stream outcomes recorded by RecordStreamEnd.
const (
	OutcomeDone         = "done"
	OutcomeError        = "error"
	OutcomeDisconnected = "disconnected"
)

// Collector owns the Prometheus registry and every metric the service exports.
//
// All methods are safe on a nil *Collector, so components can be built
// without metrics in tests.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	streamsActive   prometheus.Gauge
	streamsTotal    *prometheus.CounterVec
	chunksTotal     prometheus.Counter
	firstChunk      prometheus.Histogram
	streamDuration  prometheus.Histogram
	transportMode   *prometheus.GaugeVec
	recoveredPanics prometheus.Counter
	certExpiryDays  prometheus.Gauge
}

// NewCollector creates a collector with its own registry. namespace prefixes
// every metric name; an empty namespace defaults to "qola".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "qola"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"route", "method"},
		),

		streamsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "streams_active",
				Help:      "Number of chat streams currently open",
			},
		),
		streamsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "streams_total",
				Help:      "Total number of chat streams by outcome",
			},
			[]string{"outcome"},
		),
		chunksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "chunks_total",
				Help:      "Total number of upstream events forwarded to callers",
			},
		),
		firstChunk: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "first_chunk_seconds",
				Help:      "Time from opening the upstream call to the first forwarded event",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		streamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "stream_duration_seconds",
				Help:      "Total duration of chat streams",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		transportMode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "transport_mode",
				Help:      "Transport the listener came up with (1 for the active mode)",
			},
			[]string{"mode"},
		),
		recoveredPanics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "recovered_panics_total",
				Help:      "Total number of panics recovered in request handling",
			},
		),
		certExpiryDays: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "tls",
				Name:      "certificate_expiry_days",
				Help:      "Days until the served certificate expires",
			},
		),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.streamsActive,
		c.streamsTotal,
		c.chunksTotal,
		c.firstChunk,
		c.streamDuration,
		c.transportMode,
		c.recoveredPanics,
		c.certExpiryDays,
	)

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordHTTPRequest records a completed HTTP request.
func (c *Collector) RecordHTTPRequest(route, method, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, method, status).Inc()
	c.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordStreamStart records a stream entering the streaming state.
func (c *Collector) RecordStreamStart() {
	if c == nil {
		return
	}
	c.streamsActive.Inc()
}

// RecordChunk records one forwarded upstream event.
func (c *Collector) RecordChunk() {
	if c == nil {
		return
	}
	c.chunksTotal.Inc()
}

// RecordFirstChunk records the latency to the first forwarded event.
func (c *Collector) RecordFirstChunk(latency time.Duration) {
	if c == nil {
		return
	}
	c.firstChunk.Observe(latency.Seconds())
}

// RecordStreamEnd records a stream reaching its terminal state.
func (c *Collector) RecordStreamEnd(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.streamsActive.Dec()
	c.streamsTotal.WithLabelValues(outcome).Inc()
	c.streamDuration.Observe(duration.Seconds())
}

// SetTransportMode marks mode as the active transport.
func (c *Collector) SetTransportMode(mode string) {
	if c == nil {
		return
	}
	c.transportMode.Reset()
	c.transportMode.WithLabelValues(mode).Set(1)
}

// RecordRecoveredPanic records a panic recovered by the fault handler.
func (c *Collector) RecordRecoveredPanic() {
	if c == nil {
		return
	}
	c.recoveredPanics.Inc()
}

// SetCertificateExpiry records the days left on the served certificate.
func (c *Collector) SetCertificateExpiry(days int) {
	if c == nil {
		return
	}
	c.certExpiryDays.Set(float64(days))
}
