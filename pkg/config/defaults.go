package config

import "time"

// Deployment environments.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Fault policies applied after a recovered panic.
const (
	FaultPolicyContinue = "continue"
	FaultPolicyExit     = "exit"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultBindAddress     = "0.0.0.0"
	DefaultPort            = 4000
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultFaultPolicy     = FaultPolicyContinue
	DefaultCORSMaxAge      = 3600

	// Upstream defaults
	DefaultUpstreamBaseURL        = "https://api.openai.com/v1"
	DefaultUpstreamModel          = "gpt-4.1-mini"
	DefaultUpstreamConnectTimeout = 30 * time.Second
	DefaultUpstreamStreamBuffer   = 16

	// Avatar defaults
	DefaultAvatarAPIKey      = "your-api-key-here"
	DefaultAvatarPlaceholder = "YOUR_HEYGEN_API_KEY_HERE"

	// TLS defaults
	DefaultTLSCertFile            = "certs/server.crt"
	DefaultTLSKeyFile             = "certs/server.key"
	DefaultTLSValidityDays        = 365
	DefaultTLSOrganization        = "QoLA"
	DefaultTLSKeySize             = 2048
	DefaultTLSMinVersion          = "1.2"
	DefaultTLSExpiryCheckSchedule = "@daily"

	// Relay defaults
	DefaultRelayIdleTimeout   = 60 * time.Second
	DefaultRelayStreamTimeout = 5 * time.Minute
	DefaultRelayTokenTTL      = 60 * time.Second
	DefaultSystemPrompt       = "You are QoLA, a gentle companion. Be empathetic, concise, and never give medical advice. " +
		"If emergency phrases occur (e.g., chest pain), advise seeking help."

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "qola"
	DefaultTracingService   = "qola-api"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingTimeout   = 10 * time.Second
	DefaultTracingSampler   = "always"
	DefaultTracingRatio     = 1.0
)

// DefaultTLSHosts are the SAN entries of generated certificates. 10.0.2.2 is
// the host loopback as seen from the Android emulator.
var DefaultTLSHosts = []string{"localhost", "127.0.0.1", "10.0.2.2"}

// NewDefault returns a configuration with every default applied, including
// the boolean switches that default to on. File and environment values are
// layered on top of it.
func NewDefault() *Config {
	cfg := &Config{
		Server: ServerConfig{
			CORS: CORSConfig{Enabled: true},
		},
		TLS: TLSConfig{
			Enabled:             true,
			AutoGenerate:        true,
			ExpiryCheckSchedule: DefaultTLSExpiryCheckSchedule,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: true},
			Tracing: TracingConfig{SampleRatio: DefaultTracingRatio},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = EnvironmentDevelopment
	}

	// Server defaults
	if cfg.Server.BindAddress == "" {
		cfg.Server.BindAddress = DefaultBindAddress
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.FaultPolicy == "" {
		cfg.Server.FaultPolicy = DefaultFaultPolicy
	}

	// CORS defaults
	cors := &cfg.Server.CORS
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}

	// Upstream defaults
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultUpstreamBaseURL
	}
	if cfg.Upstream.Model == "" {
		cfg.Upstream.Model = DefaultUpstreamModel
	}
	if cfg.Upstream.ConnectTimeout == 0 {
		cfg.Upstream.ConnectTimeout = DefaultUpstreamConnectTimeout
	}
	if cfg.Upstream.StreamBuffer == 0 {
		cfg.Upstream.StreamBuffer = DefaultUpstreamStreamBuffer
	}

	// Avatar defaults
	if cfg.Avatar.APIKey == "" {
		cfg.Avatar.APIKey = DefaultAvatarAPIKey
	}
	if cfg.Avatar.Placeholder == "" {
		cfg.Avatar.Placeholder = DefaultAvatarPlaceholder
	}

	// TLS defaults
	if cfg.TLS.CertFile == "" {
		cfg.TLS.CertFile = DefaultTLSCertFile
	}
	if cfg.TLS.KeyFile == "" {
		cfg.TLS.KeyFile = DefaultTLSKeyFile
	}
	if cfg.TLS.ValidityDays == 0 {
		cfg.TLS.ValidityDays = DefaultTLSValidityDays
	}
	if len(cfg.TLS.Hosts) == 0 {
		cfg.TLS.Hosts = append([]string(nil), DefaultTLSHosts...)
	}
	if cfg.TLS.Organization == "" {
		cfg.TLS.Organization = DefaultTLSOrganization
	}
	if cfg.TLS.KeySize == 0 {
		cfg.TLS.KeySize = DefaultTLSKeySize
	}
	if cfg.TLS.MinVersion == "" {
		cfg.TLS.MinVersion = DefaultTLSMinVersion
	}

	// Relay defaults
	if cfg.Relay.IdleTimeout == 0 {
		cfg.Relay.IdleTimeout = DefaultRelayIdleTimeout
	}
	if cfg.Relay.StreamTimeout == 0 {
		cfg.Relay.StreamTimeout = DefaultRelayStreamTimeout
	}
	if cfg.Relay.TokenTTL == 0 {
		cfg.Relay.TokenTTL = DefaultRelayTokenTTL
	}
	if cfg.Relay.SystemPrompt == "" {
		cfg.Relay.SystemPrompt = DefaultSystemPrompt
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	tracing := &cfg.Telemetry.Tracing
	if tracing.ServiceName == "" {
		tracing.ServiceName = DefaultTracingService
	}
	if tracing.Endpoint == "" {
		tracing.Endpoint = DefaultTracingEndpoint
	}
	if tracing.Timeout == 0 {
		tracing.Timeout = DefaultTracingTimeout
	}
	if tracing.Sampler == "" {
		tracing.Sampler = DefaultTracingSampler
	}
}
