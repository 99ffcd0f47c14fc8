package handlers

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/proxy"
)

//go:embed avatar.html
var defaultAvatarTemplate string

// AvatarHandler serves the avatar page with the streaming avatar key
// substituted into it.
//
// A template on disk is read on every request, so edits show up without a
// restart. Without a template path the built-in page is served.
type AvatarHandler struct {
	cfg    config.AvatarConfig
	logger *slog.Logger
}

// NewAvatarHandler creates an avatar page handler.
func NewAvatarHandler(cfg config.AvatarConfig, logger *slog.Logger) *AvatarHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = config.DefaultAvatarPlaceholder
	}
	return &AvatarHandler{cfg: cfg, logger: logger.With("handler", "avatar")}
}

// ServeHTTP implements http.Handler.
func (h *AvatarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		proxy.MethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	page, err := h.render()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render avatar page", "error", err)
		_ = proxy.WriteErrorResponse(w, http.StatusInternalServerError, "avatar page unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(page))
	}
}

// render loads the template and replaces every placeholder occurrence.
func (h *AvatarHandler) render() (string, error) {
	template := defaultAvatarTemplate
	if h.cfg.TemplatePath != "" {
		data, err := os.ReadFile(h.cfg.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("failed to read avatar template: %w", err)
		}
		template = string(data)
	}
	return strings.ReplaceAll(template, h.cfg.Placeholder, h.cfg.APIKey), nil
}
