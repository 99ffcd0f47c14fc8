// QoLA API is the backend of the QoLA companion app.
//
// It relays chat turns to a streaming LLM API as Server-Sent Events, serves
// the avatar page, and bootstraps its own TLS certificate for local use.
//
// Usage:
//
//	# Start the server (TLS when possible, plaintext otherwise)
//	qola run
//
//	# Start with a configuration file
//	qola run --config /etc/qola/config.yaml
//
//	# Create the self-signed certificate ahead of time
//	qola certs generate
//
//	# Inspect the certificate in use
//	qola certs info certs/server.crt
//
//	# Show version information
//	qola version
package main

import "os"

func main() {
	os.Exit(Execute())
}
