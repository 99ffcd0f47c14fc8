/*
Package security groups the transport security packages of the QoLA API.

# TLS

Subpackage tls provisions and serves certificate material:

	generated, err := tls.EnsureCertificate(cfg.CertFile, cfg.KeyFile, tls.OptionsFromConfig(cfg))
	if err != nil {
		log.Printf("certificate provisioning failed: %v", err)
	}

	serverTLS, err := tls.ToTLSConfig(cfg)
	if err != nil {
		// fall back to plaintext
	}

A self-signed pair is generated only when the configured files are missing;
existing files are never rewritten. With watching enabled the key pair is
reloaded when the files change on disk, and a cron-scheduled check reports
how many days remain before the certificate expires.

# Subpackages

  - tls: certificate generation, loading, hot reload and expiry checks
*/
package security
