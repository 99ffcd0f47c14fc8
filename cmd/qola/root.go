package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkolkovskiy/qola/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "qola",
	Short: "QoLA API - companion chat relay",
	Long: `QoLA API is the backend of the QoLA companion app.

It relays chat turns to a streaming LLM API as Server-Sent Events,
serves the avatar page, and provisions a self-signed TLS certificate
for local development, falling back to plain HTTP when TLS is unavailable.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path (missing file uses defaults)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment is read")
}
