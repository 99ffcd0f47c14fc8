package tls

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// ExpiryChecker periodically inspects the certificate file and logs a warning
// when it is close to expiry. Self-signed certificates are never renewed
// automatically, so an operator has to act on the warning.
type ExpiryChecker struct {
	certFile string
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron

	// OnCheck, when set, receives the days remaining after every check.
	OnCheck func(days int)

	mu      sync.Mutex
	running bool
}

// NewExpiryChecker creates a checker for certFile on the given cron schedule.
func NewExpiryChecker(certFile, schedule string, logger *slog.Logger) *ExpiryChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpiryChecker{
		certFile: certFile,
		schedule: schedule,
		logger:   logger.With("component", "tls.expiry"),
		cron:     cron.New(),
	}
}

// Start runs one check immediately and schedules the rest. An empty schedule
// disables the checker. The checker stops when ctx is cancelled.
func (c *ExpiryChecker) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.schedule == "" {
		c.logger.Info("expiry check schedule not configured, skipping checker")
		return nil
	}

	if _, err := cron.ParseStandard(c.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.schedule, err)
	}

	if _, err := c.cron.AddFunc(c.schedule, func() { c.Check() }); err != nil {
		return fmt.Errorf("failed to schedule expiry check: %w", err)
	}

	c.Check()

	c.cron.Start()
	c.running = true

	c.logger.Debug("certificate expiry checker started", "schedule", c.schedule)

	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	return nil
}

// Check inspects the certificate once and returns the days until expiry.
func (c *ExpiryChecker) Check() (int, error) {
	cert, err := ReadCertificateFile(c.certFile)
	if err != nil {
		c.logger.Error("certificate expiry check failed", "error", err, "cert_file", c.certFile)
		return 0, err
	}

	days, warning := CheckCertificateExpiration(cert)
	if warning != "" {
		c.logger.Warn(warning, "cert_file", c.certFile, "expires_in_days", days)
	} else {
		c.logger.Debug("certificate expiry checked", "cert_file", c.certFile, "expires_in_days", days)
	}

	if c.OnCheck != nil {
		c.OnCheck(days)
	}

	return days, nil
}

// Stop stops the scheduler and waits for a running check to finish.
func (c *ExpiryChecker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		<-c.cron.Stop().Done()
		c.running = false
	}
}

// IsRunning reports whether checks are scheduled.
func (c *ExpiryChecker) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
