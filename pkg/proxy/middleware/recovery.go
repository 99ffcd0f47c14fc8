package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/dkolkovskiy/qola/pkg/proxy"
)

// PanicReporter is told about every panic recovered from a handler. The
// server's fault handler implements it to apply the configured fault policy.
type PanicReporter interface {
	ReportPanic(ctx context.Context, recovered any, stack []byte)
}

// RecoveryMiddleware recovers from panics in HTTP handlers. If the handler had
// not yet written a response, a 500 JSON error is returned; otherwise the
// connection is simply ended. The panic and stack are logged and passed to
// reporter, which may be nil.
//
// http.ErrAbortHandler is re-panicked so net/http aborts the response
// silently, as it expects.
//
// Example usage:
//
//	handler = RecoveryMiddleware(faults)(handler)
func RecoveryMiddleware(reporter PanicReporter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newResponseWriter(w)

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				stack := debug.Stack()

				slog.ErrorContext(r.Context(), "panic in handler",
					"error", recovered,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(stack),
				)

				if !rw.written {
					_ = proxy.WriteErrorResponse(rw, http.StatusInternalServerError,
						"An internal error occurred. Please try again later.")
				}

				if reporter != nil {
					reporter.ReportPanic(r.Context(), recovered, stack)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
