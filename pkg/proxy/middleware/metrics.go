package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dkolkovskiy/qola/pkg/telemetry/metrics"
)

// unmatchedRoute labels requests no route claimed, keeping label cardinality
// bounded.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records request count and duration per route. It must sit
// directly around the http.ServeMux so the matched pattern is visible on the
// request after routing.
//
// Example usage:
//
//	handler = MetricsMiddleware(collector)(mux)
func MetricsMiddleware(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if collector == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			collector.RecordHTTPRequest(route, r.Method, strconv.Itoa(rw.statusCode), time.Since(start))
		})
	}
}
