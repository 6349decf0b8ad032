package core

import "sort"

// Finding is a single vulnerability reported for one file inside the archive.
type Finding struct {
	VulnerabilityType string `json:"vulnerability_type"`
	CodeSnippet       string `json:"code_snippet"`
	Recommendation    string `json:"recommendation"`
}

// AnalysisResult maps an archive-relative file name to the findings reported for it.
type AnalysisResult map[string][]Finding

// FileNames returns the file names in the result in a stable order.
func (r AnalysisResult) FileNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindingCount is the total number of findings across all files.
func (r AnalysisResult) FindingCount() int {
	count := 0
	for _, findings := range r {
		count += len(findings)
	}
	return count
}
