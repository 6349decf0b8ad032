package reporters

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/reaandrew/securecodeauditor/core"
)

const NoVulnerabilitiesMessage = "No vulnerabilities found."

// TableReporter prints one section per file with a Type / Code Snippet / Recommendation table.
type TableReporter struct {
	Writer io.Writer
}

func (t TableReporter) Report(report core.Report) error {
	result := report.Result
	if len(result) == 0 {
		_, err := fmt.Fprintln(t.Writer, NoVulnerabilitiesMessage)
		return err
	}

	for i, fileName := range result.FileNames() {
		if i > 0 {
			if _, err := fmt.Fprintln(t.Writer); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(t.Writer, "== %s\n", fileName); err != nil {
			return err
		}

		findings := result[fileName]
		if len(findings) == 0 {
			if _, err := fmt.Fprintln(t.Writer, NoVulnerabilitiesMessage); err != nil {
				return err
			}
			continue
		}

		w := tabwriter.NewWriter(t.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tCODE SNIPPET\tRECOMMENDATION")
		for _, finding := range findings {
			lines := strings.Split(strings.TrimRight(finding.CodeSnippet, "\n"), "\n")
			fmt.Fprintf(w, "%s\t%s\t%s\n", cell(finding.VulnerabilityType), cell(lines[0]), cell(finding.Recommendation))
			for _, line := range lines[1:] {
				fmt.Fprintf(w, "\t%s\t\n", cell(line))
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("failed to write table for '%s': %w", fileName, err)
		}
	}
	return nil
}

// cell keeps a value on one line and out of the column separators.
func cell(value string) string {
	value = strings.ReplaceAll(value, "\t", "    ")
	return strings.ReplaceAll(value, "\r", "")
}
