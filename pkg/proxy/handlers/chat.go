package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/providers"
	"github.com/dkolkovskiy/qola/pkg/proxy"
	"github.com/dkolkovskiy/qola/pkg/telemetry/metrics"
	"github.com/dkolkovskiy/qola/pkg/telemetry/tracing"
)

// Messages sent in terminal error events when the upstream gave none.
const (
	upstreamErrorMessage = "OpenAI error"
	idleTimeoutMessage   = "upstream stream idle timeout"
	streamTimeoutMessage = "upstream stream timed out"
)

// ChatHandler relays a streamed model response to the client as
// Server-Sent Events.
//
// Every stream the handler opens ends with exactly one terminal event:
// "done" after a clean upstream end, or "error" after a failure. When the
// client goes away first nothing more is written and the upstream call is
// cancelled.
type ChatHandler struct {
	streamer providers.ResponseStreamer
	model    string
	relay    config.RelayConfig
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewChatHandler creates a chat relay handler. collector may be nil.
func NewChatHandler(streamer providers.ResponseStreamer, model string, relay config.RelayConfig, collector *metrics.Collector, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if relay.SystemPrompt == "" {
		relay.SystemPrompt = config.DefaultSystemPrompt
	}
	return &ChatHandler{
		streamer: streamer,
		model:    model,
		relay:    relay,
		metrics:  collector,
		logger:   logger.With("handler", "chat"),
	}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		proxy.MethodNotAllowed(w, http.MethodPost)
		return
	}

	req, err := proxy.ParseChatRequest(r)
	if err != nil {
		h.logger.DebugContext(r.Context(), "rejected chat request", "error", err)
		_ = proxy.WriteErrorResponse(w, http.StatusBadRequest, proxy.ChatRequiredFieldsMessage)
		return
	}

	sse, err := proxy.NewSSEWriter(w)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "cannot stream response", "error", err)
		_ = proxy.WriteErrorResponse(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sse.Start()
	h.serveStream(r, sse, req)
}

// serveStream runs one stream from open to terminal event.
func (h *ChatHandler) serveStream(r *http.Request, sse *proxy.SSEWriter, req *proxy.ChatRequest) {
	start := time.Now()
	h.metrics.RecordStreamStart()

	// Returning cancels the upstream call whatever the outcome.
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if h.relay.StreamTimeout > 0 {
		ctx, cancel = context.WithTimeout(r.Context(), h.relay.StreamTimeout)
	} else {
		ctx, cancel = context.WithCancel(r.Context())
	}
	defer cancel()

	span := trace.SpanFromContext(ctx)
	tracing.SetRelayAttributes(span, h.model, req.SeniorID)

	h.logger.InfoContext(ctx, "chat stream started", "senior_id", req.SeniorID, "model", h.model)

	outcome, chunks := h.pump(ctx, r.Context(), sse, req, start)

	tracing.SetStreamResult(span, outcome, chunks)
	h.metrics.RecordStreamEnd(outcome, time.Since(start))
	h.logger.InfoContext(ctx, "chat stream ended",
		"outcome", outcome,
		"chunks", chunks,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// pump forwards upstream events and writes the terminal event. It returns
// the stream outcome and the number of chunks written. clientCtx is the
// request context; ctx additionally carries the total stream timeout.
func (h *ChatHandler) pump(ctx, clientCtx context.Context, sse *proxy.SSEWriter, req *proxy.ChatRequest, start time.Time) (string, int) {
	events, err := h.streamer.StreamResponse(ctx, &providers.ResponseRequest{
		Model: h.model,
		Input: []providers.InputMessage{
			{Role: providers.RoleSystem, Content: h.relay.SystemPrompt},
			{Role: providers.RoleUser, Content: req.Message},
		},
	})
	if err != nil {
		return h.fail(ctx, clientCtx, sse, err), 0
	}

	var idle <-chan time.Time
	var idleTimer *time.Timer
	if h.relay.IdleTimeout > 0 {
		idleTimer = time.NewTimer(h.relay.IdleTimeout)
		defer idleTimer.Stop()
		idle = idleTimer.C
	}

	chunks := 0
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return h.fail(ctx, clientCtx, sse, ctx.Err()), chunks
				}
				if err := sse.WriteDone(); err != nil {
					return metrics.OutcomeDisconnected, chunks
				}
				return metrics.OutcomeDone, chunks
			}

			if ev.Err != nil {
				return h.fail(ctx, clientCtx, sse, ev.Err), chunks
			}
			if len(ev.Data) == 0 {
				continue
			}

			if err := sse.WriteChunk(ev.Data); err != nil {
				h.logger.DebugContext(ctx, "client write failed", "error", err)
				return metrics.OutcomeDisconnected, chunks
			}
			if chunks == 0 {
				h.metrics.RecordFirstChunk(time.Since(start))
				trace.SpanFromContext(ctx).AddEvent(tracing.EventFirstChunk)
			}
			chunks++
			h.metrics.RecordChunk()

			if idleTimer != nil {
				idleTimer.Reset(h.relay.IdleTimeout)
			}

		case <-idle:
			h.logger.WarnContext(ctx, "upstream stream idle", "idle_timeout", h.relay.IdleTimeout)
			tracing.SetError(trace.SpanFromContext(ctx), errors.New(idleTimeoutMessage))
			if err := sse.WriteError(idleTimeoutMessage); err != nil {
				return metrics.OutcomeDisconnected, chunks
			}
			return metrics.OutcomeError, chunks

		case <-ctx.Done():
			return h.fail(ctx, clientCtx, sse, ctx.Err()), chunks
		}
	}
}

// fail writes the terminal error event for err, unless the client has
// already disconnected.
func (h *ChatHandler) fail(ctx, clientCtx context.Context, sse *proxy.SSEWriter, err error) string {
	if clientCtx.Err() != nil {
		h.logger.InfoContext(ctx, "client disconnected during stream")
		return metrics.OutcomeDisconnected
	}

	message := providers.Message(err)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		message = streamTimeoutMessage
	case message == "":
		message = upstreamErrorMessage
	}

	h.logger.WarnContext(ctx, "chat stream failed", "error", err)
	tracing.SetError(trace.SpanFromContext(ctx), err)
	if writeErr := sse.WriteError(message); writeErr != nil {
		return metrics.OutcomeDisconnected
	}
	return metrics.OutcomeError
}
