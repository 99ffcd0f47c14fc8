package main

import (
	"crypto/x509"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkolkovskiy/qola/pkg/cli"
	securityTLS "github.com/dkolkovskiy/qola/pkg/security/tls"
)

var infoFlags struct {
	format string
}

var certsInfoCmd = &cobra.Command{
	Use:   "info [cert-file]",
	Short: "Display certificate details",
	Long: `Display information about a TLS certificate: subject, issuer,
validity window, Subject Alternative Names, and algorithms.

The certificate path defaults to the configured tls.cert_file.

Output formats:
  - text (default): Human-readable formatted output
  - json: JSON-formatted output for scripting

Examples:
  # Inspect the configured certificate
  qola certs info

  # Inspect a specific file as JSON
  qola certs info --format json certs/server.crt`,
	Args: cobra.MaximumNArgs(1),
	RunE: displayCertInfo,
}

func init() {
	certsCmd.AddCommand(certsInfoCmd)

	certsInfoCmd.Flags().StringVar(&infoFlags.format, "format", "text", "output format: text, json")
}

// certificateReport is the result of certs info.
type certificateReport struct {
	File string `json:"file"`
	*securityTLS.CertificateInfo
	DaysRemaining int      `json:"days_remaining"`
	Expired       bool     `json:"expired"`
	Warning       string   `json:"warning,omitempty"`
	KeyUsage      []string `json:"key_usage"`
}

func displayCertInfo(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(infoFlags.format)
	if err != nil {
		return err
	}

	var certFile string
	if len(args) == 1 {
		certFile = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		certFile = cfg.TLS.CertFile
	}

	cert, err := securityTLS.ReadCertificateFile(certFile)
	if err != nil {
		return cli.NewCommandError("certs info", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), newCertificateReport(certFile, cert))
}

func newCertificateReport(file string, cert *x509.Certificate) *certificateReport {
	days, warning := securityTLS.CheckCertificateExpiration(cert)
	return &certificateReport{
		File:            file,
		CertificateInfo: securityTLS.ExtractCertificateInfo(cert),
		DaysRemaining:   days,
		Expired:         time.Now().After(cert.NotAfter),
		Warning:         warning,
		KeyUsage:        keyUsages(cert.KeyUsage),
	}
}

// RenderText implements cli.TextRenderer.
func (r *certificateReport) RenderText(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Certificate: %s\n\n", r.File)
	printf("Subject: %s\n", r.Subject)
	printf("Issuer:  %s\n", r.Issuer)

	printf("\nValidity:\n")
	printf("  Not Before: %s\n", r.NotBefore.Format(time.RFC3339))
	printf("  Not After:  %s\n", r.NotAfter.Format(time.RFC3339))
	if r.Expired {
		printf("  Status: ✗ EXPIRED on %s\n", r.NotAfter.Format("2006-01-02"))
	} else {
		printf("  Status: ✓ Valid (%d days remaining)\n", r.DaysRemaining)
	}
	if r.Warning != "" && !r.Expired {
		printf("  Warning: ⚠  %s\n", r.Warning)
	}

	if len(r.DNSNames) > 0 || len(r.IPAddresses) > 0 {
		printf("\nSubject Alternative Names:\n")
		for _, name := range r.DNSNames {
			printf("  - DNS: %s\n", name)
		}
		for _, ip := range r.IPAddresses {
			printf("  - IP: %s\n", ip)
		}
	}

	if len(r.KeyUsage) > 0 {
		printf("\nKey Usage:\n")
		for _, usage := range r.KeyUsage {
			printf("  - %s\n", usage)
		}
	}

	printf("\nAlgorithms:\n")
	printf("  Signature Algorithm: %s\n", r.SignatureAlgorithm)
	printf("  Public Key Algorithm: %s\n", r.PublicKeyAlgorithm)
	printf("\nSerial Number: %s\n", r.SerialNumber)

	return err
}

func keyUsages(usage x509.KeyUsage) []string {
	names := []struct {
		bit  x509.KeyUsage
		name string
	}{
		{x509.KeyUsageDigitalSignature, "Digital Signature"},
		{x509.KeyUsageContentCommitment, "Content Commitment"},
		{x509.KeyUsageKeyEncipherment, "Key Encipherment"},
		{x509.KeyUsageDataEncipherment, "Data Encipherment"},
		{x509.KeyUsageKeyAgreement, "Key Agreement"},
		{x509.KeyUsageCertSign, "Certificate Sign"},
		{x509.KeyUsageCRLSign, "CRL Sign"},
	}

	var usages []string
	for _, n := range names {
		if usage&n.bit != 0 {
			usages = append(usages, n.name)
		}
	}
	return usages
}
