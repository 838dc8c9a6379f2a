package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

var linkDefLine = regexp.MustCompile(`(?m)^\[[^\]]+\]:\s+\S+\s*$`)

// stripLinkDefinitions drops reference-style link definitions so the
// extracted body can be republished standalone.
func stripLinkDefinitions(notes string) string {
	var kept []string
	for _, line := range strings.Split(notes, "\n") {
		if !linkDefLine.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the notes for one release",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		version, _ := cmd.Flags().GetString("version")

		source, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		doc, err := Parse(source)
		if err != nil {
			return fmt.Errorf("parsing changelog: %w", err)
		}

		rel := doc.Release(version)
		if rel == nil {
			return fmt.Errorf("version %s not found in changelog", version)
		}

		if rel.Date != "" {
			fmt.Printf("## [%s] - %s\n\n", rel.Version, rel.Date)
		} else {
			fmt.Printf("## [%s]\n\n", rel.Version)
		}
		fmt.Print(stripLinkDefinitions(rel.Notes))
		if url, ok := doc.Links[rel.Version]; ok {
			fmt.Printf("\n\n[%s]: %s\n", rel.Version, url)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every release in the changelog",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		source, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		doc, err := Parse(source)
		if err != nil {
			return fmt.Errorf("parsing changelog: %w", err)
		}

		for _, rel := range doc.Releases {
			if rel.Date != "" {
				fmt.Printf("%s (%s)\n", rel.Version, rel.Date)
			} else {
				fmt.Println(rel.Version)
			}
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringP("file", "f", "CHANGELOG.md", "Path to the changelog file")
	extractCmd.Flags().StringP("version", "v", "", "Version to extract (with or without 'v' prefix)")
	_ = extractCmd.MarkFlagRequired("version")

	listCmd.Flags().StringP("file", "f", "CHANGELOG.md", "Path to the changelog file")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(listCmd)
}
