package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkolkovskiy/qola/pkg/cli"
	"github.com/dkolkovskiy/qola/pkg/config"
	"github.com/dkolkovskiy/qola/pkg/server"
	"github.com/dkolkovskiy/qola/pkg/telemetry/logging"
)

var runFlags struct {
	port     int
	logLevel string
	noTLS    bool
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the QoLA API server",
	Long: `Start the QoLA API server.

Configuration is read from defaults, then the config file, then .env files
and the environment. With TLS enabled the server makes sure a certificate
exists and serves HTTPS; if that fails it serves plain HTTP on the same port.

Exit status is 0 after a SIGINT/SIGTERM shutdown, 1 when the port cannot be
bound, and 2 when the server stopped itself after a recovered panic under
the "exit" fault policy.

Examples:
  # Start with defaults
  qola run

  # Start with a config file
  qola run --config /etc/qola/config.yaml

  # Plain HTTP on another port
  qola run --port 8080 --no-tls

  # Validate configuration without starting
  qola run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runFlags.port, "port", "p", -1, "override listen port")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.noTLS, "no-tls", false, "serve plain HTTP without trying TLS")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

// loadConfig reads dotenv files and the config file named by the global
// flags.
func loadConfig() (*config.Config, error) {
	config.LoadDotEnv(envFiles...)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError(err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.port >= 0 {
		cfg.Server.Port = runFlags.port
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.noTLS {
		cfg.TLS.Enabled = false
	}
	if err := config.Validate(cfg); err != nil {
		return cli.WrapConfigError(err)
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.WrapConfigError(err)
	}
	slog.SetDefault(logger)

	if cfg.Upstream.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; /ai/chat will fail until it is configured")
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	logger.Info("starting QoLA API",
		"version", Version,
		"environment", cfg.Environment,
		"model", cfg.Upstream.Model,
		"tls_enabled", cfg.TLS.Enabled,
	)

	srv := server.New(cfg, server.Dependencies{Logger: logger})
	if err := srv.Listen(); err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	err = srv.Serve(ctx)
	switch {
	case errors.Is(err, server.ErrFatalFault):
		return &cli.CommandError{Command: "run", Err: err, Code: cli.ExitFault}
	case err != nil:
		return cli.NewCommandError("run", err)
	}

	return nil
}
