package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// eventStreamType is the media type of a Server-Sent Events body.
const eventStreamType = "text/event-stream"

// ProviderConfig configures the HTTP transport shared by upstream adapters.
type ProviderConfig struct {
	// Name identifies the upstream in logs and errors
	Name string

	// ConnectTimeout bounds dialing, the TLS handshake and waiting for
	// response headers. The body of a streaming response is not bounded.
	ConnectTimeout time.Duration

	// MaxIdleConns and IdleConnTimeout tune connection pooling
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// NewHTTPClient creates a pooled client for streaming calls. Its timeouts
// live on the transport; Client.Timeout would bound stream bodies.
func NewHTTPClient(config ProviderConfig) *http.Client {
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConns,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.ConnectTimeout,
		ResponseHeaderTimeout: config.ConnectTimeout,
		ForceAttemptHTTP2:     true,
	}}
}

// StatusError maps a failed HTTP status to AuthError, RateLimitError or
// ProviderError. An empty message falls back to the status text.
func StatusError(provider string, status int, header http.Header, message string) error {
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Provider: provider, Message: message}

	case http.StatusTooManyRequests:
		return &RateLimitError{
			Provider:   provider,
			RetryAfter: parseRetryAfter(header.Get("Retry-After")),
			Message:    message,
		}

	default:
		return &ProviderError{
			Provider:   provider,
			StatusCode: status,
			Message:    message,
		}
	}
}

// TransportError maps a failure to reach the upstream. It returns the context
// error when ctx ended first and TimeoutError for network timeouts.
func TransportError(ctx context.Context, provider string, timeout time.Duration, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Provider: provider, Timeout: timeout}
	}
	return &StreamError{
		Provider: provider,
		Message:  "failed to reach upstream",
		Cause:    err,
	}
}

// CheckEventStream rejects a successful response that is not an SSE body.
// Anything else would read as a stream that ended without events.
func CheckEventStream(provider string, resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil
	}
	contentType := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Type")))
	if strings.HasPrefix(contentType, eventStreamType) {
		return nil
	}
	if contentType == "" {
		contentType = "none"
	}
	return &ProviderError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    "upstream returned a non-streaming response (content type " + contentType + ")",
	}
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
