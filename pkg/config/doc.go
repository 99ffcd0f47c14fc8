// Package config provides configuration loading for the QoLA API.
//
// Configuration is layered, later layers overriding earlier ones:
//
//  1. Defaults (defaults.go)
//  2. An optional YAML file
//  3. Environment variables
//  4. Validation (fails fast if invalid)
//
// A .env file can be loaded into the process environment first with
// LoadDotEnv. The environment keeps the variable names the service has
// always used:
//
//   - OPENAI_API_KEY, OPENAI_MODEL_RESPONSES, OPENAI_BASE_URL
//   - HEYGEN_STREAMING_API_KEY
//   - PORT, HOST
//   - QOLA_ENV, QOLA_FAULT_POLICY, QOLA_AVATAR_TEMPLATE
//   - QOLA_TLS_ENABLED, QOLA_TLS_CERT_FILE, QOLA_TLS_KEY_FILE
//   - QOLA_LOG_LEVEL, QOLA_LOG_FORMAT
//   - QOLA_TRACING_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT
//
// The resulting *Config is built once in main and handed to the server and
// handlers explicitly. There is no package-level configuration state.
//
// Example:
//
//	config.LoadDotEnv()
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
