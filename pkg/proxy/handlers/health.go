package handlers

import (
	"net/http"

	"github.com/dkolkovskiy/qola/pkg/proxy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// HealthHandler reports liveness. It has no dependencies and always
// returns 200 while the process is serving.
type HealthHandler struct{}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		proxy.MethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	_ = proxy.WriteJSONResponse(w, http.StatusOK, HealthResponse{OK: true})
}
