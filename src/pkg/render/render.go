// Package render writes human-readable reports. Machine formats (json,
// yaml) are plain marshalling and live with the callers.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/gh-nvat/repo-contractchk/src/pkg/models"
	"github.com/gh-nvat/repo-contractchk/src/pkg/schema"
)

const (
	iconPass    = "✓"
	iconError   = "✗"
	iconWarning = "⚠"
	iconInfo    = "ℹ"
)

func icon(result models.CheckResult) string {
	if result.Passed {
		return iconPass
	}
	switch result.Severity.Normalize() {
	case models.SeverityWarning:
		return iconWarning
	case models.SeverityInfo:
		return iconInfo
	default:
		return iconError
	}
}

// Report writes the check report grouped by rule family and, for branch
// protection, by branch.
func Report(w io.Writer, report *models.Report) {
	for _, advisory := range report.Advisories {
		fmt.Fprintf(w, "%s %s: %s\n", iconWarning, advisory.Code, advisory.Message)
	}

	files := filterResults(report.Results, models.RuleRequiredFiles)
	if len(files) > 0 {
		fmt.Fprintln(w, "Required files:")
		for _, result := range files {
			line := fmt.Sprintf("  %s %s", icon(result), result.Target)
			if !result.Passed && result.Message != "" {
				line += " — " + result.Message
			}
			fmt.Fprintln(w, line)
		}
	}

	branches := filterResults(report.Results, models.RuleBranchProtection)
	for _, branch := range targetOrder(branches) {
		fmt.Fprintf(w, "Branch %s:\n", branch)
		for _, result := range branches {
			if result.Target != branch {
				continue
			}
			line := fmt.Sprintf("  %s %s", icon(result), result.Path)
			if !result.Passed {
				if result.Code != "" {
					line += fmt.Sprintf(" [%s]", result.Code)
				}
				if result.Message != "" {
					line += " " + result.Message
				} else {
					line += fmt.Sprintf(" expected %s, got %s", result.Expected.String(), result.Actual.String())
				}
			}
			fmt.Fprintln(w, line)
		}
	}

	policies := filterResults(report.Results, models.RulePolicy)
	if len(policies) > 0 {
		fmt.Fprintln(w, "Policies:")
		for _, result := range policies {
			line := fmt.Sprintf("  %s %s", icon(result), result.Target)
			if !result.Passed && result.Message != "" {
				line += " — " + result.Message
			}
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintf(w, "Summary: %d error(s), %d warning(s), %d info\n",
		report.Summary.Error, report.Summary.Warning, report.Summary.Info)
}

// Diff writes the structural diff, one entry per line.
func Diff(w io.Writer, report *models.DiffReport) {
	for _, advisory := range report.Advisories {
		fmt.Fprintf(w, "%s %s: %s\n", iconWarning, advisory.Code, advisory.Message)
	}
	if len(report.Diffs) == 0 {
		fmt.Fprintln(w, "No differences.")
		return
	}
	for _, entry := range report.Diffs {
		switch entry.Type {
		case models.DiffTypeMissingFile:
			fmt.Fprintf(w, "%s missing file: %s\n", severityIcon(entry.Severity), entry.Target)
		case models.DiffTypeExtraFile:
			fmt.Fprintf(w, "%s extra file: %s\n", severityIcon(entry.Severity), entry.Target)
		case models.DiffTypeArray:
			var parts []string
			if len(entry.Missing) > 0 {
				parts = append(parts, "missing: "+strings.Join(entry.Missing, ", "))
			}
			if len(entry.Extra) > 0 {
				parts = append(parts, "extra: "+strings.Join(entry.Extra, ", "))
			}
			fmt.Fprintf(w, "%s %s %s (%s)\n", severityIcon(entry.Severity),
				entry.Target, entry.Path, strings.Join(parts, "; "))
		default:
			expected, actual := "absent", "absent"
			if entry.Expected != nil {
				expected = entry.Expected.String()
			}
			if entry.Actual != nil {
				actual = entry.Actual.String()
			}
			fmt.Fprintf(w, "%s %s %s: expected %s, got %s\n", severityIcon(entry.Severity),
				entry.Target, entry.Path, expected, actual)
		}
	}
}

// Schema writes a schema validation report.
func Schema(w io.Writer, report *schema.Report) {
	if report.Valid {
		fmt.Fprintf(w, "%s %s is valid\n", iconPass, report.Path)
		return
	}
	fmt.Fprintf(w, "%s %s is invalid:\n", iconError, report.Path)
	for _, schemaErr := range report.Errors {
		location := ""
		if schemaErr.Line > 0 {
			location = fmt.Sprintf(" (line %d, column %d)", schemaErr.Line, schemaErr.Column)
		}
		if schemaErr.Path != "" {
			fmt.Fprintf(w, "  %s [%s] %s: %s%s\n", iconError, schemaErr.Code, schemaErr.Path, schemaErr.Message, location)
		} else {
			fmt.Fprintf(w, "  %s [%s] %s%s\n", iconError, schemaErr.Code, schemaErr.Message, location)
		}
	}
}

func severityIcon(severity models.Severity) string {
	switch severity.Normalize() {
	case models.SeverityWarning:
		return iconWarning
	case models.SeverityInfo:
		return iconInfo
	default:
		return iconError
	}
}

func filterResults(results []models.CheckResult, rule string) []models.CheckResult {
	var filtered []models.CheckResult
	for _, result := range results {
		if result.Rule == rule {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// targetOrder returns the distinct targets in first-seen order.
func targetOrder(results []models.CheckResult) []string {
	seen := make(map[string]struct{})
	var order []string
	for _, result := range results {
		if _, ok := seen[result.Target]; ok {
			continue
		}
		seen[result.Target] = struct{}{}
		order = append(order, result.Target)
	}
	return order
}
