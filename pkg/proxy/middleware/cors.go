package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/dkolkovskiy/qola/pkg/config"
)

// CORSMiddleware adds Cross-Origin Resource Sharing headers. With the default
// configuration every origin is allowed, so the avatar page and mobile web
// views can call the API from anywhere.
//
// A preflight (OPTIONS with Access-Control-Request-Method) is answered with
// 204 and never reaches the handler.
//
// Example usage:
//
//	handler = CORSMiddleware(cfg.Server.CORS)(handler)
func CORSMiddleware(cfg config.CORSConfig) func(http.Handler) http.Handler {
	allowMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposedHeaders, ", ")
	wildcard := slices.Contains(cfg.AllowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			if origin != "" {
				h.Add("Vary", "Origin")

				switch {
				case slices.Contains(cfg.AllowedOrigins, origin) || (wildcard && cfg.AllowCredentials):
					// Credentials cannot be combined with "*", so the origin is echoed.
					h.Set("Access-Control-Allow-Origin", origin)
				case wildcard:
					h.Set("Access-Control-Allow-Origin", "*")
				default:
					// Disallowed origin: no CORS headers; the browser blocks it.
					next.ServeHTTP(w, r)
					return
				}

				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if exposeHeaders != "" {
					h.Set("Access-Control-Expose-Headers", exposeHeaders)
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowMethods != "" {
					h.Set("Access-Control-Allow-Methods", allowMethods)
				}
				if allowHeaders != "" {
					h.Set("Access-Control-Allow-Headers", allowHeaders)
				}
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
