/*
Package tls provisions and serves the certificate used by the HTTPS listener.

# Provisioning

EnsureCertificate writes a self-signed pair when either file is missing and
leaves existing files alone:

	generated, err := tls.EnsureCertificate("certs/server.crt", "certs/server.key",
		tls.DefaultCertificateOptions())

Certificates are generated in-process with crypto/x509; no external tool is
needed.

# Serving

ToTLSConfig loads the pair into a crypto/tls configuration. For hot reload,
start a CertificateReloader and use ToReloadingTLSConfig instead:

	reloader := tls.NewCertificateReloader(certFile, keyFile, logger)
	if err := reloader.Start(ctx); err != nil {
		return err
	}
	tlsConfig := tls.ToReloadingTLSConfig(&cfg.TLS, reloader)

# Expiry

ExpiryChecker inspects the certificate on a cron schedule and logs a warning
when fewer than ExpiryWarningDays remain.
*/
package tls
