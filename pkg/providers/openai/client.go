package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/responses"

	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/providers"
	"github.com/dkolkovskiy/qola/pkg/telemetry/tracing"
)

// ProviderName is the name this adapter reports.
const ProviderName = "openai"

// PanicHandler is told about a panic recovered in a stream producer.
type PanicHandler func(ctx context.Context, recovered any, stack []byte)

// Client streams responses from the OpenAI Responses API.
type Client struct {
	api            openaisdk.Client
	httpClient     *http.Client
	apiKey         string
	connectTimeout time.Duration
	buffer         int
	logger         *slog.Logger

	// OnPanic, when set, is called after a producer panic has been turned
	// into a terminal error event.
	OnPanic PanicHandler
}

// NewClient creates a client from the upstream configuration. Requests are
// never retried.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	buffer := cfg.StreamBuffer
	if buffer <= 0 {
		buffer = config.DefaultUpstreamStreamBuffer
	}

	c := &Client{
		httpClient: providers.NewHTTPClient(providers.ProviderConfig{
			Name:           ProviderName,
			ConnectTimeout: cfg.ConnectTimeout,
		}),
		apiKey:         cfg.APIKey,
		connectTimeout: cfg.ConnectTimeout,
		buffer:         buffer,
		logger:         logger.With("component", "openai.client"),
	}
	c.api = openaisdk.NewClient(
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
		option.WithHeader("Accept", "text/event-stream"),
		option.WithMiddleware(c.middleware),
	)
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Close releases idle upstream connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// middleware propagates the trace context and rejects successful responses
// that are not event streams.
func (c *Client) middleware(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	ctx := req.Context()
	tracing.Inject(ctx, req.Header)

	c.logger.DebugContext(ctx, "sending request to provider", "method", req.Method, "url", req.URL.String())

	resp, err := next(req)
	if err != nil {
		return resp, err
	}
	if err := providers.CheckEventStream(ProviderName, resp); err != nil {
		resp.Body.Close()
		c.logger.WarnContext(ctx, "provider returned a non-streaming response",
			"status", resp.StatusCode,
			"content_type", resp.Header.Get("Content-Type"),
		)
		return nil, err
	}
	return resp, nil
}

// StreamResponse opens a streaming call and returns its events. Failures to
// open the stream are returned directly.
//
// Events are produced by a goroutine into a channel of the configured buffer
// size. The goroutine stops and closes the channel when the upstream ends,
// fails, or ctx is cancelled.
func (c *Client) StreamResponse(ctx context.Context, req *providers.ResponseRequest) (<-chan *providers.StreamEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, &providers.ConfigError{
			Provider: ProviderName,
			Field:    "api_key",
			Message:  "OPENAI_API_KEY is not configured",
		}
	}

	stream := c.api.Responses.NewStreaming(ctx, newParams(req))
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, c.openError(ctx, err)
	}

	events := make(chan *providers.StreamEvent, c.buffer)

	go c.produce(ctx, stream, events)

	return events, nil
}

// newParams builds the request body. The SDK adds "stream": true.
func newParams(req *providers.ResponseRequest) responses.ResponseNewParams {
	items := make(responses.ResponseInputParam, 0, len(req.Input))
	for _, msg := range req.Input {
		items = append(items, responses.ResponseInputItemParamOfMessage(
			msg.Content,
			responses.EasyInputMessageRole(msg.Role),
		))
	}

	return responses.ResponseNewParams{
		Model: req.Model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: items},
	}
}

// produce pumps events from stream into events until the stream ends.
func (c *Client) produce(ctx context.Context, stream *ssestream.Stream[responses.ResponseStreamEventUnion], events chan<- *providers.StreamEvent) {
	start := time.Now()
	count := 0

	defer close(events)
	defer stream.Close()
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			c.logger.ErrorContext(ctx, "panic in stream producer", "panic", r)
			send(ctx, events, &providers.StreamEvent{Err: &providers.StreamError{
				Provider: ProviderName,
				Message:  "internal error while reading upstream stream",
				Cause:    fmt.Errorf("panic: %v", r),
			}})
			if c.OnPanic != nil {
				c.OnPanic(ctx, r, stack)
			}
		}
	}()

	for stream.Next() {
		current := stream.Current()
		ev, err := newEvent(current.Type, current.RawJSON())
		if err != nil {
			send(ctx, events, &providers.StreamEvent{Err: err})
			return
		}

		if !send(ctx, events, ev) {
			return
		}
		count++

		if failure := terminalError(ev); failure != nil {
			send(ctx, events, &providers.StreamEvent{Err: failure})
			return
		}
	}

	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		send(ctx, events, &providers.StreamEvent{Err: readError(err)})
		return
	}

	c.logger.DebugContext(ctx, "upstream stream completed",
		"events", count,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// openError maps a failure to open the stream onto the provider error types.
func (c *Client) openError(ctx context.Context, err error) error {
	var (
		apiErr      *openaisdk.Error
		providerErr *providers.ProviderError
	)
	switch {
	case errors.As(err, &apiErr):
		c.logger.WarnContext(ctx, "provider returned error status", "status", apiErr.StatusCode)
		header := http.Header{}
		if apiErr.Response != nil {
			header = apiErr.Response.Header
		}
		return providers.StatusError(ProviderName, apiErr.StatusCode, header, apiErr.Message)

	case errors.As(err, &providerErr):
		return err
	}

	return providers.TransportError(ctx, ProviderName, c.connectTimeout, err)
}

// readError maps a failure while reading an open stream.
func readError(err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &providers.ParseError{Provider: ProviderName, Cause: err}
	}
	if msg, ok := inlineErrorMessage(err); ok {
		return &providers.StreamError{Provider: ProviderName, Message: msg, Cause: err}
	}
	return &providers.StreamError{
		Provider: ProviderName,
		Message:  "failed to read stream",
		Cause:    err,
	}
}

// send delivers ev unless ctx ends first.
func send(ctx context.Context, events chan<- *providers.StreamEvent, ev *providers.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
