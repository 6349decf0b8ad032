package reporters

import (
	"fmt"
	"sort"

	"github.com/reaandrew/securecodeauditor/core"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	findingsSheet = "Findings"
	summarySheet  = "Summary"
)

// XlsxReporter writes a workbook with every finding on one sheet and counts per
// vulnerability type on another.
type XlsxReporter struct {
	Storage core.ReportStorage
}

func (x XlsxReporter) Report(report core.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), findingsSheet); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}
	if err := x.writeFindings(f, report.Result); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet '%s': %w", summarySheet, err)
	}
	if err := x.writeSummary(f, report); err != nil {
		return err
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to render XLSX report: %w", err)
	}

	path, err := x.Storage.Store(ReportFileName(report.ArchiveName, "xlsx"), buffer.Bytes())
	if err != nil {
		return fmt.Errorf("failed to store XLSX report: %w", err)
	}

	log.Printf("XLSX report generated successfully: %s", path)
	return nil
}

func (x XlsxReporter) writeFindings(f *excelize.File, result core.AnalysisResult) error {
	headers := []interface{}{"File", "Type", "Code Snippet", "Recommendation"}
	if err := f.SetSheetRow(findingsSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set headers for sheet '%s': %w", findingsSheet, err)
	}

	rowNum := 2
	for _, fileName := range result.FileNames() {
		for _, finding := range result[fileName] {
			rowData := []interface{}{
				fileName,
				finding.VulnerabilityType,
				finding.CodeSnippet,
				finding.Recommendation,
			}
			cellAddress, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return fmt.Errorf("failed to get cell address for row %d: %w", rowNum, err)
			}
			if err := f.SetSheetRow(findingsSheet, cellAddress, &rowData); err != nil {
				return fmt.Errorf("failed to set data for row %d in sheet '%s': %w", rowNum, findingsSheet, err)
			}
			rowNum++
		}
	}

	if err := f.SetColWidth(findingsSheet, "A", "B", 30); err != nil {
		return err
	}
	return f.SetColWidth(findingsSheet, "C", "D", 60)
}

func (x XlsxReporter) writeSummary(f *excelize.File, report core.Report) error {
	name := report.ArchiveName
	if name == "" {
		name = FallbackArchiveName
	}
	rows := [][]interface{}{
		{"Archive", name},
		{"Files analysed", len(report.Result)},
		{"Total findings", report.Result.FindingCount()},
		{},
		{"Vulnerability Type", "Count"},
	}

	counts := countByType(report.Result)
	types := make([]string, 0, len(counts))
	for vulnerabilityType := range counts {
		types = append(types, vulnerabilityType)
	}
	sort.Strings(types)
	for _, vulnerabilityType := range types {
		rows = append(rows, []interface{}{vulnerabilityType, counts[vulnerabilityType]})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cellAddress, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to get cell address for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(summarySheet, cellAddress, &row); err != nil {
			return fmt.Errorf("failed to set data for row %d in sheet '%s': %w", i+1, summarySheet, err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 30)
}

func countByType(result core.AnalysisResult) map[string]int {
	counts := make(map[string]int)
	for _, findings := range result {
		for _, finding := range findings {
			counts[finding.VulnerabilityType]++
		}
	}
	return counts
}
