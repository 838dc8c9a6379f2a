package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

// Problem is one lint finding; Line is zero for file-level findings.
type Problem struct {
	Line    int
	Message string
}

// LintReport collects lint findings for a changelog.
type LintReport struct {
	Problems []Problem
}

func (r *LintReport) add(line int, format string, args ...interface{}) {
	r.Problems = append(r.Problems, Problem{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (r *LintReport) Clean() bool {
	return len(r.Problems) == 0
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the changelog against the Keep a Changelog format",
	Long: `Checks that the changelog has a title and an [Unreleased] section, that
release headings look like "## [X.Y.Z] - YYYY-MM-DD", that change-type
headings are one of the six standard kinds, and that every release has a
link definition.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		source, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}

		report := Lint(source)
		if report.Clean() {
			fmt.Println("✓ Changelog is valid")
			return nil
		}

		fmt.Printf("Found %d issue(s):\n\n", len(report.Problems))
		for _, p := range report.Problems {
			if p.Line > 0 {
				fmt.Printf("  Line %d: %s\n", p.Line, p.Message)
			} else {
				fmt.Printf("  %s\n", p.Message)
			}
		}
		os.Exit(1)
		return nil
	},
}

var (
	isoDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	semver     = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	changeKind = map[string]bool{
		"Added":      true,
		"Changed":    true,
		"Deprecated": true,
		"Removed":    true,
		"Fixed":      true,
		"Security":   true,
	}
)

// Lint checks a changelog against the Keep a Changelog conventions.
func Lint(source []byte) *LintReport {
	report := &LintReport{}

	hasTitle := false
	hasUnreleased := false
	versions := make(map[string]bool)

	doc, _ := Parse(source)

	for i, line := range strings.Split(string(source), "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "# ") {
			hasTitle = true
			if !strings.Contains(strings.ToLower(trimmed), "changelog") {
				report.add(lineNum, "Title should contain 'Changelog'")
			}
		}

		if strings.HasPrefix(trimmed, "## [") {
			end := strings.Index(trimmed, "]")
			if end <= 4 {
				continue
			}
			version := trimmed[4:end]
			if strings.EqualFold(version, "unreleased") {
				hasUnreleased = true
				continue
			}
			versions[version] = true
			if !semver.MatchString(version) {
				report.add(lineNum, "Version '%s' should follow semantic versioning (X.Y.Z)", version)
			}
			if _, date, ok := strings.Cut(trimmed[end+1:], " - "); ok {
				if !isoDate.MatchString(strings.TrimSpace(date)) {
					report.add(lineNum, "Date '%s' should be in ISO 8601 format (YYYY-MM-DD)", strings.TrimSpace(date))
				}
			} else {
				report.add(lineNum, "Version '%s' is missing a release date", version)
			}
		}

		if kind, ok := strings.CutPrefix(trimmed, "### "); ok {
			if !changeKind[kind] {
				report.add(lineNum, "Invalid change type '%s'. Valid types: Added, Changed, Deprecated, Removed, Fixed, Security", kind)
			}
		}
	}

	if !hasTitle {
		report.add(0, "Missing changelog title (# Changelog)")
	}
	if !hasUnreleased {
		report.add(0, "Missing [Unreleased] section")
	}

	if doc != nil {
		for version := range versions {
			if _, ok := doc.Links[version]; !ok {
				report.add(0, "Missing link definition for version [%s]", version)
			}
		}
		if hasUnreleased {
			if _, ok := doc.Links["Unreleased"]; !ok {
				report.add(0, "Missing link definition for [Unreleased]")
			}
		}
	}

	return report
}

func init() {
	validateCmd.Flags().StringP("file", "f", "CHANGELOG.md", "Path to the changelog file")
	rootCmd.AddCommand(validateCmd)
}
