package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	generateFlags.force = false
	generateFlags.certFile = ""
	generateFlags.keyFile = ""
	infoFlags.format = "text"
	runFlags.dryRun = false
	runFlags.noTLS = false
	runFlags.port = -1
	runFlags.logLevel = ""

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// writeTestConfig writes a config file whose certificate paths point into a
// temporary directory and returns the config, cert and key paths.
func writeTestConfig(t *testing.T, extra string) (cfgPath, certFile, keyFile string) {
	t.Helper()
	for _, key := range []string{"QOLA_TLS_CERT_FILE", "QOLA_TLS_KEY_FILE", "QOLA_FAULT_POLICY", "QOLA_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dir := t.TempDir()
	certFile = filepath.Join(dir, "certs", "server.crt")
	keyFile = filepath.Join(dir, "certs", "server.key")
	cfgPath = filepath.Join(dir, "config.yaml")

	content := "tls:\n" +
		"  cert_file: \"" + certFile + "\"\n" +
		"  key_file: \"" + keyFile + "\"\n" +
		extra
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return cfgPath, certFile, keyFile
}
