package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vaultctl",
	Short: "Manage the PII vault server",
	Long: `vaultctl manages the PII vault server.

Use it to generate keys, run database migrations, inspect configuration
and start the API server.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
