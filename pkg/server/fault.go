package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/telemetry/metrics"
)

// ErrFatalFault is returned by Serve when a panic was recovered under the
// exit fault policy.
var ErrFatalFault = errors.New("recovered panic under exit fault policy")

// FaultHandler applies the fault policy to every recovered panic, whether it
// came from a request handler or from an upstream stream producer.
//
// Under "continue" the panic is logged and counted and only the affected
// request ends. Under "exit" the first panic also closes Fatal, which makes
// Serve shut down and return ErrFatalFault.
type FaultHandler struct {
	policy  string
	metrics *metrics.Collector
	logger  *slog.Logger

	once  sync.Once
	fatal chan struct{}
}

// NewFaultHandler creates a fault handler for policy. collector may be nil.
func NewFaultHandler(policy string, collector *metrics.Collector, logger *slog.Logger) *FaultHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = config.DefaultFaultPolicy
	}
	return &FaultHandler{
		policy:  policy,
		metrics: collector,
		logger:  logger.With("component", "fault"),
		fatal:   make(chan struct{}),
	}
}

// ReportPanic records a recovered panic and applies the policy.
func (f *FaultHandler) ReportPanic(ctx context.Context, recovered any, stack []byte) {
	f.metrics.RecordRecoveredPanic()

	if f.policy != config.FaultPolicyExit {
		f.logger.WarnContext(ctx, "recovered panic, continuing", "panic", recovered)
		return
	}

	f.logger.ErrorContext(ctx, "recovered panic, shutting down",
		"panic", recovered,
		"stack", string(stack),
	)
	f.once.Do(func() { close(f.fatal) })
}

// Fatal is closed once a panic has been reported under the exit policy.
func (f *FaultHandler) Fatal() <-chan struct{} {
	return f.fatal
}

// Policy returns the active fault policy.
func (f *FaultHandler) Policy() string {
	return f.policy
}
