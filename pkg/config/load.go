package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envOverrides maps environment variables onto configuration fields. Pointer
// fields stay nil when the variable is unset so file values survive.
type envOverrides struct {
	Environment    *string `envconfig:"QOLA_ENV"`
	Host           *string `envconfig:"HOST"`
	Port           *int    `envconfig:"PORT"`
	FaultPolicy    *string `envconfig:"QOLA_FAULT_POLICY"`
	UpstreamAPIKey *string `envconfig:"OPENAI_API_KEY"`
	UpstreamModel  *string `envconfig:"OPENAI_MODEL_RESPONSES"`
	UpstreamURL    *string `envconfig:"OPENAI_BASE_URL"`
	AvatarAPIKey   *string `envconfig:"HEYGEN_STREAMING_API_KEY"`
	AvatarTemplate *string `envconfig:"QOLA_AVATAR_TEMPLATE"`
	TLSEnabled     *bool   `envconfig:"QOLA_TLS_ENABLED"`
	TLSCertFile    *string `envconfig:"QOLA_TLS_CERT_FILE"`
	TLSKeyFile     *string `envconfig:"QOLA_TLS_KEY_FILE"`
	LogLevel       *string `envconfig:"QOLA_LOG_LEVEL"`
	LogFormat      *string `envconfig:"QOLA_LOG_FORMAT"`
	TracingEnabled *bool   `envconfig:"QOLA_TRACING_ENABLED"`
	OTLPEndpoint   *string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set are never overwritten and missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if it
// exists), then environment overrides, then validation.
//
// An empty path or a missing file is not an error; the service runs on
// defaults and environment alone.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile decodes the YAML file at path onto cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	setString(&cfg.Environment, env.Environment)
	setString(&cfg.Server.BindAddress, env.Host)
	if env.Port != nil {
		cfg.Server.Port = *env.Port
	}
	setString(&cfg.Server.FaultPolicy, env.FaultPolicy)

	setString(&cfg.Upstream.APIKey, env.UpstreamAPIKey)
	setString(&cfg.Upstream.Model, env.UpstreamModel)
	setString(&cfg.Upstream.BaseURL, env.UpstreamURL)

	setString(&cfg.Avatar.APIKey, env.AvatarAPIKey)
	setString(&cfg.Avatar.TemplatePath, env.AvatarTemplate)

	if env.TLSEnabled != nil {
		cfg.TLS.Enabled = *env.TLSEnabled
	}
	setString(&cfg.TLS.CertFile, env.TLSCertFile)
	setString(&cfg.TLS.KeyFile, env.TLSKeyFile)

	setString(&cfg.Telemetry.Logging.Level, env.LogLevel)
	setString(&cfg.Telemetry.Logging.Format, env.LogFormat)

	if env.TracingEnabled != nil {
		cfg.Telemetry.Tracing.Enabled = *env.TracingEnabled
	}
	setString(&cfg.Telemetry.Tracing.Endpoint, env.OTLPEndpoint)

	return nil
}

func setString(dst *string, val *string) {
	if val != nil {
		*dst = *val
	}
}
