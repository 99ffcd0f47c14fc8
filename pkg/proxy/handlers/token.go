package handlers

import (
	"net/http"
	"time"

	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/proxy"
)

// StubToken is the placeholder credential issued until real ephemeral
// tokens exist.
const StubToken = "stub-token"

// TokenResponse is the body of POST /ai/token.
type TokenResponse struct {
	Token string `json:"token"`

	// ExpiresAt is a Unix timestamp in milliseconds.
	ExpiresAt int64 `json:"expires_at"`
}

// TokenHandler issues stub session tokens.
type TokenHandler struct {
	ttl time.Duration
	now func() time.Time
}

// NewTokenHandler creates a token handler whose tokens expire after ttl.
func NewTokenHandler(ttl time.Duration) *TokenHandler {
	if ttl <= 0 {
		ttl = config.DefaultRelayTokenTTL
	}
	return &TokenHandler{ttl: ttl, now: time.Now}
}

// ServeHTTP implements http.Handler.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		proxy.MethodNotAllowed(w, http.MethodPost)
		return
	}
	_ = proxy.WriteJSONResponse(w, http.StatusOK, TokenResponse{
		Token:     StubToken,
		ExpiresAt: h.now().Add(h.ttl).UnixMilli(),
	})
}
