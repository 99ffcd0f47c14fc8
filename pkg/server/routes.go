package server

import (
	"net/http"

	"github.com/dkolkovskiy/qola/pkg/proxy/handlers"
	"github.com/dkolkovskiy/qola/pkg/proxy/middleware"
)

// Route paths.
const (
	PathHealth = "/health"
	PathAvatar = "/avatar.html"
	PathToken  = "/ai/token"
	PathChat   = "/ai/chat"
)

// routes builds the mux and wraps it in the middleware chain:
//
//	Recovery(RequestID(Tracing(Logging(CORS(Metrics(mux))))))
//
// Routes are registered by path only; each handler answers a method
// mismatch with a 405 JSON error.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(PathHealth, handlers.NewHealthHandler())
	mux.Handle(PathAvatar, handlers.NewAvatarHandler(s.cfg.Avatar, s.logger))
	mux.Handle(PathToken, handlers.NewTokenHandler(s.cfg.Relay.TokenTTL))
	mux.Handle(PathChat, handlers.NewChatHandler(s.streamer, s.cfg.Upstream.Model, s.cfg.Relay, s.metrics, s.logger))

	if s.cfg.Telemetry.Metrics.Enabled && s.metrics != nil {
		mux.Handle(s.cfg.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.MetricsMiddleware(s.metrics)(handler)
	handler = middleware.CORSMiddleware(s.cfg.Server.CORS)(handler)
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.TracingMiddleware(s.tracer)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(s.faults)(handler)

	return handler
}
