package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/providers"
	"github.com/dkolkovskiy/qola/pkg/providers/openai"
	securityTLS "github.com/dkolkovskiy/qola/pkg/security/tls"
	"github.com/dkolkovskiy/qola/pkg/telemetry/metrics"
	"github.com/dkolkovskiy/qola/pkg/telemetry/tracing"
)

// Mode is the transport the listener ended up using.
type Mode string

const (
	// ModeTLS serves HTTPS.
	ModeTLS Mode = "tls"
	// ModePlaintext serves plain HTTP.
	ModePlaintext Mode = "plaintext"
)

// Dependencies are optional collaborators. Zero values are replaced with
// defaults built from the configuration.
type Dependencies struct {
	// Streamer opens upstream calls. Default: an OpenAI Responses client.
	Streamer providers.ResponseStreamer

	// Metrics receives server and relay metrics. Default: a new collector
	// when metrics are enabled, otherwise none.
	Metrics *metrics.Collector

	// Tracer creates request spans. Default: built from the tracing
	// configuration, or a disabled tracer when that fails.
	Tracer *tracing.Tracer

	// Logger is the base logger. Default: slog.Default().
	Logger *slog.Logger
}

// Server is the QoLA HTTP server.
//
// Listen binds the port, preferring TLS and falling back to plaintext;
// Serve then handles requests until its context ends.
type Server struct {
	cfg      *config.Config
	streamer providers.ResponseStreamer
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	faults   *FaultHandler
	logger   *slog.Logger
	handler  http.Handler

	mu         sync.RWMutex
	listener   net.Listener
	httpServer *http.Server
	mode       Mode
	reloader   *securityTLS.CertificateReloader
	expiry     *securityTLS.ExpiryChecker
}

// New creates a server from cfg. The configuration is expected to have been
// loaded and validated.
func New(cfg *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	collector := deps.Metrics
	if collector == nil && cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics.Namespace)
	}

	tracer := deps.Tracer
	if tracer == nil {
		var err error
		tracer, err = tracing.New(&cfg.Telemetry.Tracing)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
			tracer = tracing.Disabled()
		}
	}

	faults := NewFaultHandler(cfg.Server.FaultPolicy, collector, logger)

	streamer := deps.Streamer
	if streamer == nil {
		client := openai.NewClient(cfg.Upstream, logger)
		client.OnPanic = faults.ReportPanic
		streamer = client
	}

	s := &Server{
		cfg:      cfg,
		streamer: streamer,
		metrics:  collector,
		tracer:   tracer,
		faults:   faults,
		logger:   logger.With("component", "server"),
	}
	s.handler = s.routes()

	return s
}

// Listen binds the configured address.
//
// With TLS enabled it first makes sure a certificate exists (when
// auto-generation is on), then tries to serve TLS. Any failure on the TLS
// path is logged and the server falls back to plaintext on the same address.
// Only a failure to bind in plaintext is returned.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("server is already listening on %s", s.listener.Addr())
	}

	addr := s.cfg.Server.Address()

	if s.cfg.TLS.Enabled {
		ln, err := s.listenTLS(addr)
		if err == nil {
			s.bind(ln, ModeTLS)
			return nil
		}
		s.logger.Warn("TLS unavailable, falling back to plaintext", "error", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.bind(ln, ModePlaintext)

	return nil
}

// listenTLS provisions certificate material and binds a TLS listener.
func (s *Server) listenTLS(addr string) (net.Listener, error) {
	tlsCfg := &s.cfg.TLS

	if tlsCfg.AutoGenerate {
		generated, err := securityTLS.EnsureCertificate(tlsCfg.CertFile, tlsCfg.KeyFile, securityTLS.OptionsFromConfig(tlsCfg))
		switch {
		case err != nil:
			s.logger.Warn("failed to provision certificate", "error", err)
		case generated && s.cfg.IsProduction():
			s.logger.Warn("generated self-signed certificate in production; clients will not trust it",
				"cert_file", tlsCfg.CertFile,
				"key_file", tlsCfg.KeyFile,
				"hosts", tlsCfg.Hosts,
			)
		case generated:
			s.logger.Info("generated self-signed certificate",
				"cert_file", tlsCfg.CertFile,
				"key_file", tlsCfg.KeyFile,
				"hosts", tlsCfg.Hosts,
			)
		}
	}

	var (
		serverTLS *tls.Config
		reloader  *securityTLS.CertificateReloader
	)
	if tlsCfg.Watch {
		reloader = securityTLS.NewCertificateReloader(tlsCfg.CertFile, tlsCfg.KeyFile, s.logger)
		if err := reloader.Load(); err != nil {
			return nil, err
		}
		serverTLS = securityTLS.ToReloadingTLSConfig(tlsCfg, reloader)
	} else {
		var err error
		serverTLS, err = securityTLS.ToTLSConfig(tlsCfg)
		if err != nil {
			return nil, err
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.reloader = reloader
	s.expiry = securityTLS.NewExpiryChecker(tlsCfg.CertFile, tlsCfg.ExpiryCheckSchedule, s.logger)
	s.expiry.OnCheck = s.metrics.SetCertificateExpiry

	return tls.NewListener(ln, serverTLS), nil
}

// bind records the listener and builds the http.Server around it.
func (s *Server) bind(ln net.Listener, mode Mode) {
	s.listener = ln
	s.mode = mode
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.metrics.SetTransportMode(string(mode))

	scheme := "http"
	if mode == ModeTLS {
		scheme = "https"
	}
	s.logger.Info("listening",
		"mode", string(mode),
		"address", ln.Addr().String(),
		"url", fmt.Sprintf("%s://%s", scheme, ln.Addr()),
	)
}

// Serve handles requests until ctx is cancelled or a fatal fault is
// reported, then shuts down gracefully. It returns nil after a
// cancellation, ErrFatalFault after a fatal fault, and the serve error if the
// listener fails.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.RLock()
	ln, httpServer := s.listener, s.httpServer
	reloader, expiry := s.reloader, s.expiry
	s.mu.RUnlock()

	if ln == nil {
		return errors.New("server is not listening; call Listen first")
	}

	if reloader != nil {
		if err := reloader.Start(ctx); err != nil {
			s.logger.Warn("certificate reload disabled", "error", err)
		}
	}
	if expiry != nil {
		if err := expiry.Start(ctx); err != nil {
			s.logger.Warn("certificate expiry check disabled", "error", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	case <-s.faults.Fatal():
		if err := s.Shutdown(context.Background()); err != nil {
			s.logger.Error("shutdown after fatal fault failed", "error", err)
		}
		return ErrFatalFault
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by the configured shutdown timeout. Open streams see their
// request context cancelled when the timeout expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	httpServer, expiry := s.httpServer, s.expiry
	s.mu.RUnlock()

	if expiry != nil {
		expiry.Stop()
	}

	var shutdownErr error
	if httpServer != nil {
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			_ = httpServer.Close()
		}
	}

	if closer, ok := s.streamer.(io.Closer); ok {
		_ = closer.Close()
	}

	flushCtx, cancel := context.WithTimeout(ctx, config.DefaultTracingTimeout)
	defer cancel()
	if err := s.tracer.Shutdown(flushCtx); err != nil {
		s.logger.Warn("failed to flush spans", "error", err)
	}

	s.logger.Info("server stopped")
	return shutdownErr
}

// Mode returns the transport chosen by Listen, or "" before Listen.
func (s *Server) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Faults returns the server's fault handler.
func (s *Server) Faults() *FaultHandler {
	return s.faults
}

// Metrics returns the metrics collector, or nil when metrics are disabled.
func (s *Server) Metrics() *metrics.Collector {
	return s.metrics
}
