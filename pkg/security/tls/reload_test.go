package tls

import (
	"bytes"
	"context"
	"crypto/x509"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCertificateReloader_Load(t *testing.T) {
	certFile, keyFile := writePair(t)

	r := NewCertificateReloader(certFile, keyFile, discardLogger())
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cert, err := r.GetCertificateFunc()(nil)
	if err != nil {
		t.Fatalf("GetCertificateFunc() error = %v", err)
	}
	if cert == nil {
		t.Fatal("expected a certificate")
	}
}

func TestCertificateReloader_NoCertificate(t *testing.T) {
	r := NewCertificateReloader("absent.crt", "absent.key", discardLogger())

	if _, err := r.GetCertificateFunc()(nil); err == nil {
		t.Error("expected error before any load")
	}
	if err := r.Start(context.Background()); err == nil {
		t.Error("expected Start to fail without files")
	}
}

func TestCertificateReloader_ReloadsOnChange(t *testing.T) {
	certFile, keyFile := writePair(t)

	reloaded := make(chan *x509.Certificate, 4)
	r := NewCertificateReloader(certFile, keyFile, discardLogger())
	r.debounce = 20 * time.Millisecond
	r.OnReload = func(leaf *x509.Certificate) { reloaded <- leaf }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	initial := <-reloaded

	certPEM, keyPEM, err := GenerateSelfSigned(testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case leaf := <-reloaded:
		if bytes.Equal(leaf.Raw, initial.Raw) {
			t.Error("expected a different certificate after reload")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
