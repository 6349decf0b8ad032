package reporters

import (
	"encoding/json"
	"fmt"

	"github.com/reaandrew/securecodeauditor/core"
)

const (
	ReportPrefix        = "security-report-"
	FallbackArchiveName = "analysis"
)

type Reporter = core.Reporter

// ReportFileName embeds the archive name into the report name, falling back to
// "analysis" when there is none.
func ReportFileName(archiveName string, extension string) string {
	name := archiveName
	if name == "" {
		name = FallbackArchiveName
	}
	return fmt.Sprintf("%s%s.%s", ReportPrefix, name, extension)
}

// MarshalResult renders the download format: the result as two-space indented JSON.
func MarshalResult(result core.AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis result: %w", err)
	}
	return data, nil
}

// UnmarshalResult parses a downloaded report back into a result.
func UnmarshalResult(data []byte) (core.AnalysisResult, error) {
	var result core.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return result, nil
}
