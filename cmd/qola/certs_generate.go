package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkolkovskiy/qola/pkg/cli"
	securityTLS "github.com/dkolkovskiy/qola/pkg/security/tls"
)

var generateFlags struct {
	certFile string
	keyFile  string
	hosts    []string
	org      string
	validity int
	keySize  int
	force    bool
}

var certsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the self-signed certificate",
	Long: `Generate a self-signed TLS certificate and RSA key.

Paths and certificate parameters default to the tls section of the
configuration. An existing pair is left untouched unless --force is given,
so running the command twice is safe.

Self-signed certificates are meant for development and device testing.
Clients must be told to trust them explicitly.

Examples:
  # Generate with configured defaults
  qola certs generate

  # Generate for a LAN address as well
  qola certs generate --host localhost,127.0.0.1,10.0.2.2,192.168.1.20

  # Write somewhere else
  qola certs generate --cert /tmp/dev.crt --key /tmp/dev.key`,
	RunE: generateCertificate,
}

func init() {
	certsCmd.AddCommand(certsGenerateCmd)

	certsGenerateCmd.Flags().StringVar(&generateFlags.certFile, "cert", "", "certificate path (default from config)")
	certsGenerateCmd.Flags().StringVar(&generateFlags.keyFile, "key", "", "private key path (default from config)")
	certsGenerateCmd.Flags().StringSliceVar(&generateFlags.hosts, "host", nil, "hostnames and IPs for the SAN extension (default from config)")
	certsGenerateCmd.Flags().StringVar(&generateFlags.org, "org", "", "organization name (default from config)")
	certsGenerateCmd.Flags().IntVar(&generateFlags.validity, "validity", 0, "validity in days (default from config)")
	certsGenerateCmd.Flags().IntVar(&generateFlags.keySize, "key-size", 0, "RSA key size: 2048, 3072 or 4096 (default from config)")
	certsGenerateCmd.Flags().BoolVar(&generateFlags.force, "force", false, "replace an existing certificate pair")
}

func generateCertificate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	certFile := firstNonEmpty(generateFlags.certFile, cfg.TLS.CertFile)
	keyFile := firstNonEmpty(generateFlags.keyFile, cfg.TLS.KeyFile)

	opts := securityTLS.OptionsFromConfig(&cfg.TLS)
	if len(generateFlags.hosts) > 0 {
		opts.Hosts = generateFlags.hosts
	}
	if generateFlags.org != "" {
		opts.Organization = generateFlags.org
	}
	if generateFlags.validity > 0 {
		opts.ValidityDays = generateFlags.validity
	}
	if generateFlags.keySize > 0 {
		opts.KeySize = generateFlags.keySize
	}

	if generateFlags.force {
		for _, path := range []string{certFile, keyFile} {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return cli.NewCommandError("certs generate", fmt.Errorf("failed to remove %s: %w", path, err))
			}
		}
	}

	generated, err := securityTLS.EnsureCertificate(certFile, keyFile, opts)
	if err != nil {
		return cli.NewCommandError("certs generate", err)
	}

	out := cmd.OutOrStdout()
	if !generated {
		fmt.Fprintf(out, "Certificate already present, left untouched:\n  %s\n  %s\n", certFile, keyFile)
		fmt.Fprintln(out, "Use --force to replace it.")
		return nil
	}

	fmt.Fprintf(out, "✓ Certificate generated: %s\n", certFile)
	fmt.Fprintf(out, "✓ Private key generated: %s\n", keyFile)
	fmt.Fprintf(out, "  Hosts: %v\n", opts.Hosts)
	fmt.Fprintf(out, "  Validity: %d days\n", opts.ValidityDays)
	fmt.Fprintf(out, "  Key Size: %d bits\n", opts.KeySize)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "⚠️  Self-signed certificates are for development only.")

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
