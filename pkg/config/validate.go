package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the configuration and returns a ValidationError holding
// every failed rule, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	switch cfg.Environment {
	case EnvironmentDevelopment, EnvironmentProduction:
	default:
		errs = append(errs, FieldError{
			Field:   "environment",
			Message: fmt.Sprintf("must be %q or %q, got %q", EnvironmentDevelopment, EnvironmentProduction, cfg.Environment),
		})
	}

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateTLS(&cfg.TLS)...)
	errs = append(errs, validateRelay(&cfg.Relay)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	// Port 0 asks the kernel for a free port and is allowed.
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 0 and 65535, got %d", cfg.Port),
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "must not be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "must not be negative"})
	}
	switch cfg.FaultPolicy {
	case FaultPolicyContinue, FaultPolicyExit:
	default:
		errs = append(errs, FieldError{
			Field:   "server.fault_policy",
			Message: fmt.Sprintf("must be %q or %q, got %q", FaultPolicyContinue, FaultPolicyExit, cfg.FaultPolicy),
		})
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme),
		})
	}
	if cfg.StreamBuffer < 0 {
		errs = append(errs, FieldError{Field: "upstream.stream_buffer", Message: "must not be negative"})
	}

	return errs
}

func validateTLS(cfg *TLSConfig) []FieldError {
	var errs []FieldError

	if cfg.ValidityDays <= 0 {
		errs = append(errs, FieldError{Field: "tls.validity_days", Message: "must be positive"})
	}
	switch cfg.KeySize {
	case 2048, 3072, 4096:
	default:
		errs = append(errs, FieldError{
			Field:   "tls.key_size",
			Message: fmt.Sprintf("must be 2048, 3072 or 4096, got %d", cfg.KeySize),
		})
	}
	switch cfg.MinVersion {
	case "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "tls.min_version",
			Message: fmt.Sprintf("must be \"1.2\" or \"1.3\", got %q", cfg.MinVersion),
		})
	}
	if cfg.ExpiryCheckSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ExpiryCheckSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "tls.expiry_check_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateRelay(cfg *RelayConfig) []FieldError {
	var errs []FieldError

	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "relay.idle_timeout", Message: "must not be negative"})
	}
	if cfg.StreamTimeout < 0 {
		errs = append(errs, FieldError{Field: "relay.stream_timeout", Message: "must not be negative"})
	}
	if cfg.TokenTTL < 0 {
		errs = append(errs, FieldError{Field: "relay.token_ttl", Message: "must not be negative"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be debug, info, warn or error, got %q", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be json or text, got %q", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: fmt.Sprintf("must start with /, got %q", cfg.Metrics.Path),
		})
	}
	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("must be always, never or ratio, got %q", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("must be between 0.0 and 1.0, got %g", cfg.Tracing.SampleRatio),
			})
		}
	}

	return errs
}
