package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Release notes tooling for piivault",
	Long:  `Parses, lints and extracts entries from the piivault CHANGELOG, which follows the Keep a Changelog format.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
