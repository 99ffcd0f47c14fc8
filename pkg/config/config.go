package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration structure for the QoLA API.
// It is built once at startup and passed explicitly to the server and
// handlers; nothing in request handling reads the process environment.
type Config struct {
	// Environment is the deployment environment ("development" or "production").
	Environment string `yaml:"environment"`

	// Server contains listener and HTTP server settings.
	Server ServerConfig `yaml:"server"`

	// Upstream contains settings for the LLM streaming API.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Avatar contains settings for the avatar page.
	Avatar AvatarConfig `yaml:"avatar"`

	// TLS contains certificate provisioning and TLS listener settings.
	TLS TLSConfig `yaml:"tls"`

	// Relay contains settings for the chat relay.
	Relay RelayConfig `yaml:"relay"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// BindAddress is the interface the listener binds to.
	// Default: "0.0.0.0"
	BindAddress string `yaml:"bind_address"`

	// Port is the TCP port for both TLS and plaintext modes.
	// Default: 4000
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response. Zero
	// disables it; event streams are bounded by the relay timeouts instead.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// FaultPolicy decides what happens after a recovered panic:
	// "continue" logs it and keeps serving, "exit" also stops the process
	// with a non-zero status.
	// Default: "continue"
	FaultPolicy string `yaml:"fault_policy"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// Address returns the host:port the listener binds to.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.BindAddress, strconv.Itoa(s.Port))
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers"`
	MaxAge           int      `yaml:"max_age"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// UpstreamConfig contains configuration for the LLM streaming API.
type UpstreamConfig struct {
	// BaseURL is the API base URL.
	// Default: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer credential. An empty key is allowed at startup;
	// chat requests fail upstream until it is set.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier sent with every request.
	// Default: "gpt-4.1-mini"
	Model string `yaml:"model"`

	// ConnectTimeout bounds dialing and waiting for response headers.
	// Default: 30s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// StreamBuffer is the capacity of the channel between the upstream
	// reader and the relay.
	// Default: 16
	StreamBuffer int `yaml:"stream_buffer"`
}

// AvatarConfig contains configuration for the avatar page.
type AvatarConfig struct {
	// TemplatePath is the HTML template on disk. When empty the built-in
	// page is served.
	TemplatePath string `yaml:"template_path"`

	// APIKey is the streaming avatar credential injected into the page.
	// Default: "your-api-key-here"
	APIKey string `yaml:"api_key"`

	// Placeholder is the token in the template replaced by APIKey.
	// Default: "YOUR_HEYGEN_API_KEY_HERE"
	Placeholder string `yaml:"placeholder"`
}

// TLSConfig contains certificate and TLS listener configuration.
type TLSConfig struct {
	// Enabled makes the server try TLS before falling back to plaintext.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM certificate path.
	// Default: "certs/server.crt"
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM private key path.
	// Default: "certs/server.key"
	KeyFile string `yaml:"key_file"`

	// AutoGenerate creates a self-signed pair when the files are missing.
	// Default: true
	AutoGenerate bool `yaml:"auto_generate"`

	// ValidityDays is the validity window of generated certificates.
	// Default: 365
	ValidityDays int `yaml:"validity_days"`

	// Hosts are the SAN entries of generated certificates.
	// Default: ["localhost", "127.0.0.1", "10.0.2.2"]
	Hosts []string `yaml:"hosts"`

	// Organization is the subject organization of generated certificates.
	// Default: "QoLA"
	Organization string `yaml:"organization"`

	// KeySize is the RSA key size of generated certificates.
	// Default: 2048
	KeySize int `yaml:"key_size"`

	// MinVersion is the minimum TLS version ("1.2" or "1.3").
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// Watch reloads the key pair when the files change on disk.
	Watch bool `yaml:"watch"`

	// ExpiryCheckSchedule is a cron expression for the expiry check.
	// Empty disables the check.
	// Default: "@daily"
	ExpiryCheckSchedule string `yaml:"expiry_check_schedule"`
}

// RelayConfig contains configuration for the chat relay.
type RelayConfig struct {
	// IdleTimeout ends a stream when the upstream sends nothing for this long.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// StreamTimeout bounds the total duration of one stream.
	// Default: 5m
	StreamTimeout time.Duration `yaml:"stream_timeout"`

	// TokenTTL is the lifetime reported by the token stub.
	// Default: 60s
	TokenTTL time.Duration `yaml:"token_ttl"`

	// SystemPrompt is the assistant persona instruction.
	SystemPrompt string `yaml:"system_prompt"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes all metric names.
	// Default: "qola"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled exports spans for requests and relay streams.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is the service.name resource attribute.
	// Default: "qola-api"
	ServiceName string `yaml:"service_name"`

	// Endpoint is the OTLP gRPC collector address (host:port).
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}

// IsProduction reports whether the deployment environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}
