package main

import (
	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Manage TLS certificates",
	Long: `Manage the TLS certificate used by the QoLA API.

Subcommands:
  generate - Create the self-signed certificate if it is missing
  info     - Display certificate details

Examples:
  # Create certs/server.crt and certs/server.key if missing
  qola certs generate

  # Replace an existing pair
  qola certs generate --force

  # Display certificate information
  qola certs info certs/server.crt`,
}

func init() {
	rootCmd.AddCommand(certsCmd)
}
