package tls

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CertificateOptions controls self-signed certificate generation.
type CertificateOptions struct {
	// Hosts are the DNS names and IP addresses placed in the SAN extension.
	// The first entry becomes the subject common name.
	Hosts []string

	// Organization is the subject organization.
	Organization string

	// ValidityDays is how long the certificate stays valid.
	ValidityDays int

	// KeySize is the RSA key size in bits (2048, 3072 or 4096).
	KeySize int
}

// DefaultCertificateOptions returns options for a 365 day, 2048-bit
// certificate valid for localhost.
func DefaultCertificateOptions() CertificateOptions {
	return CertificateOptions{
		Hosts:        []string{"localhost", "127.0.0.1"},
		Organization: "QoLA",
		ValidityDays: 365,
		KeySize:      2048,
	}
}

// GenerateSelfSigned creates a self-signed certificate and RSA private key
// and returns both PEM encoded.
func GenerateSelfSigned(opts CertificateOptions) (certPEM, keyPEM []byte, err error) {
	if opts.KeySize != 2048 && opts.KeySize != 3072 && opts.KeySize != 4096 {
		return nil, nil, fmt.Errorf("invalid key size: %d (must be 2048, 3072, or 4096)", opts.KeySize)
	}
	if opts.ValidityDays <= 0 {
		return nil, nil, fmt.Errorf("invalid validity: %d days", opts.ValidityDays)
	}
	if len(opts.Hosts) == 0 {
		return nil, nil, fmt.Errorf("at least one host is required")
	}

	var dnsNames []string
	var ipAddresses []net.IP
	for _, host := range opts.Hosts {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if ip := net.ParseIP(host); ip != nil {
			ipAddresses = append(ipAddresses, ip)
		} else {
			dnsNames = append(dnsNames, host)
		}
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, opts.KeySize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now().Add(-time.Minute)
	notAfter := notBefore.AddDate(0, 0, opts.ValidityDays)

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{opts.Organization},
			CommonName:   strings.TrimSpace(opts.Hosts[0]),
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddresses,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)})

	return certPEM, keyPEM, nil
}

// EnsureCertificate makes sure a certificate and key exist at certFile and
// keyFile. When both files are already present they are left untouched and
// generated is false. Otherwise a self-signed pair is generated and written,
// creating parent directories as needed.
//
// The contents of existing files are not validated here; a corrupt pair is
// detected when the listener loads it.
func EnsureCertificate(certFile, keyFile string, opts CertificateOptions) (generated bool, err error) {
	certExists, err := fileExists(certFile)
	if err != nil {
		return false, err
	}
	keyExists, err := fileExists(keyFile)
	if err != nil {
		return false, err
	}
	if certExists && keyExists {
		return false, nil
	}

	certPEM, keyPEM, err := GenerateSelfSigned(opts)
	if err != nil {
		return false, err
	}

	for _, dir := range []string{filepath.Dir(certFile), filepath.Dir(keyFile)} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return false, fmt.Errorf("failed to create certificate directory: %w", err)
		}
	}

	// The key is written first; a certificate never exists without its key.
	if err := os.WriteFile(keyFile, keyPEM, 0600); err != nil {
		return false, fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		return false, fmt.Errorf("failed to write certificate: %w", err)
	}

	return true, nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return false, fmt.Errorf("%s is a directory", path)
		}
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}
