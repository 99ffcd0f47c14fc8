package tls

import (
	"crypto/tls"
	"fmt"

	"github.com/dkolkovskiy/qola/pkg/config"
)

// ToTLSConfig loads the certificate pair named by cfg and returns a
// crypto/tls configuration serving it. An expired or not yet valid
// certificate is an error.
func ToTLSConfig(cfg *config.TLSConfig) (*tls.Config, error) {
	if cfg.CertFile == "" {
		return nil, fmt.Errorf("cert_file is required when TLS is enabled")
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("key_file is required when TLS is enabled")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	if err := ValidateCertificate(&cert); err != nil {
		return nil, fmt.Errorf("certificate validation failed: %w", err)
	}

	// #nosec G402 - MinVersion is validated to be 1.2 or 1.3
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   ParseMinVersion(cfg.MinVersion),
	}, nil
}

// ToReloadingTLSConfig returns a crypto/tls configuration that asks reloader
// for the certificate on every handshake.
func ToReloadingTLSConfig(cfg *config.TLSConfig, reloader *CertificateReloader) *tls.Config {
	// #nosec G402 - MinVersion is validated to be 1.2 or 1.3
	return &tls.Config{
		GetCertificate: reloader.GetCertificateFunc(),
		MinVersion:     ParseMinVersion(cfg.MinVersion),
	}
}

// OptionsFromConfig maps the TLS configuration onto generation options.
func OptionsFromConfig(cfg *config.TLSConfig) CertificateOptions {
	return CertificateOptions{
		Hosts:        cfg.Hosts,
		Organization: cfg.Organization,
		ValidityDays: cfg.ValidityDays,
		KeySize:      cfg.KeySize,
	}
}

// ParseMinVersion converts "1.2" or "1.3" to a tls version constant.
// Anything else yields TLS 1.2, the oldest version accepted.
func ParseMinVersion(version string) uint16 {
	switch version {
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}
