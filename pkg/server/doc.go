// Package server provides the QoLA HTTP server and its transport bootstrap.
//
// The server mounts the API handlers behind the middleware chain, picks a
// transport at startup and shuts down gracefully.
//
// # Basic Usage
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    return err
//	}
//
//	srv := server.New(cfg, server.Dependencies{Logger: logger})
//	if err := srv.Listen(); err != nil {
//	    return err // the port could not be bound at all
//	}
//	return srv.Serve(ctx)
//
// # Transport Bootstrap
//
// With TLS enabled, Listen first ensures a certificate pair exists at the
// configured paths, generating a self-signed one when auto-generation is on
// and either file is missing. Existing files are never rewritten. It then
// loads the pair and binds a TLS listener. Any failure on that path is
// logged and the server binds plaintext HTTP on the same address instead.
//
// In TLS mode two background tasks run while serving:
//   - a certificate reloader (when tls.watch is set) that picks up a new
//     pair on disk without a restart
//   - an expiry checker on a cron schedule that warns as the certificate
//     nears expiry
//
// # Routes
//
//   - GET  /health
//   - GET  /avatar.html
//   - POST /ai/token
//   - POST /ai/chat
//   - GET  /metrics (when enabled)
//
// # Middleware Chain
//
// From outermost to innermost:
//  1. Recovery: recovers panics and reports them to the FaultHandler
//  2. RequestID: assigns X-Request-ID
//  3. Tracing: server span per request when tracing is enabled
//  4. Logging: one structured line per request
//  5. CORS
//  6. Metrics: request count and latency per route
//
// # Fault Policy
//
// Every recovered panic goes through one FaultHandler. Under the "continue"
// policy only the affected request ends. Under "exit" Serve shuts down and
// returns ErrFatalFault so the process can exit non-zero and be restarted by
// its supervisor.
package server
