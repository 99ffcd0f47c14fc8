// Package logging builds the service's structured logger on log/slog.
//
// Loggers created with New write JSON (default) or text, redact sensitive
// attribute values such as api_key and authorization, and attach the request
// ID carried in the context:
//
//	logger, err := logging.New(cfg.Telemetry.Logging, nil)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-1")
//	slog.InfoContext(ctx, "stream opened") // includes request_id=req-1
package logging
