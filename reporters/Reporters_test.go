package reporters

import (
	"bytes"
	"strings"
	"testing"

	"github.com/reaandrew/securecodeauditor/core"
	"github.com/reaandrew/securecodeauditor/reportstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResult() core.AnalysisResult {
	return core.AnalysisResult{
		"app/db.py": {
			{VulnerabilityType: "SQL Injection", CodeSnippet: "cursor.execute(\"SELECT * FROM users WHERE id=\" + uid)", Recommendation: "Use parameterised queries."},
			{VulnerabilityType: "Hardcoded Secret", CodeSnippet: "PASSWORD = \"hunter2\"", Recommendation: "Load secrets from the environment."},
		},
		"app/views.py": {
			{VulnerabilityType: "XSS", CodeSnippet: "return HttpResponse(\n    request.GET['q'])", Recommendation: "Escape user input."},
		},
		"app/clean.py": {},
	}
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "security-report-code.zip.json", ReportFileName("code.zip", "json"))
	assert.Equal(t, "security-report-analysis.json", ReportFileName("", "json"))
	assert.Equal(t, "security-report-analysis.xlsx", ReportFileName("", "xlsx"))
}

func TestMarshalResultRoundTrip(t *testing.T) {
	data, err := MarshalResult(sampleResult())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \""))

	parsed, err := UnmarshalResult(data)
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), parsed)
	assert.Equal(t, "Hardcoded Secret", parsed["app/db.py"][1].VulnerabilityType)
}

func TestJsonReporter_Report(t *testing.T) {
	storage := reportstorage.NewMemoryReportStorage()
	reporter := JsonReporter{Storage: storage}

	require.NoError(t, reporter.Report(core.Report{ArchiveName: "code.zip", Result: sampleResult()}))

	data, ok := storage.Get("security-report-code.zip.json")
	require.True(t, ok)
	expected, _ := MarshalResult(sampleResult())
	assert.Equal(t, expected, data)
}

func TestXlsxReporter_Report(t *testing.T) {
	storage := reportstorage.NewMemoryReportStorage()
	reporter := XlsxReporter{Storage: storage}

	require.NoError(t, reporter.Report(core.Report{ArchiveName: "code.zip", Result: sampleResult()}))

	data, ok := storage.Get("security-report-code.zip.xlsx")
	require.True(t, ok)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{findingsSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(findingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"File", "Type", "Code Snippet", "Recommendation"}, rows[0])
	assert.Equal(t, "app/db.py", rows[1][0])
	assert.Equal(t, "SQL Injection", rows[1][1])
	assert.Equal(t, "app/views.py", rows[3][0])

	total, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "3", total)
}

func TestTableReporter_Report(t *testing.T) {
	var out bytes.Buffer
	reporter := TableReporter{Writer: &out}

	require.NoError(t, reporter.Report(core.Report{Result: sampleResult()}))

	text := out.String()
	assert.Contains(t, text, "== app/clean.py\nNo vulnerabilities found.")
	assert.Contains(t, text, "== app/db.py")
	assert.Contains(t, text, "TYPE")
	assert.Contains(t, text, "Use parameterised queries.")
	assert.Contains(t, text, "request.GET['q'])")
	assert.Less(t, strings.Index(text, "app/clean.py"), strings.Index(text, "app/views.py"))
}

func TestTableReporter_EmptyResult(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, TableReporter{Writer: &out}.Report(core.Report{Result: core.AnalysisResult{}}))
	assert.Equal(t, "No vulnerabilities found.\n", out.String())
}

func TestCreateReporter(t *testing.T) {
	storage := reportstorage.NewMemoryReportStorage()

	for _, format := range []string{"json", "xlsx", "table"} {
		reporter, err := CreateReporter(format, ReporterOptions{Storage: storage, Writer: &bytes.Buffer{}})
		assert.NoError(t, err, format)
		assert.NotNil(t, reporter, format)
	}

	_, err := CreateReporter("http", ReporterOptions{})
	assert.Error(t, err)

	reporter, err := CreateReporter("http", ReporterOptions{BaseURL: "https://collector"})
	assert.NoError(t, err)
	assert.IsType(t, HttpReporter{}, reporter)

	_, err = CreateReporter("pdf", ReporterOptions{})
	assert.EqualError(t, err, "unknown report format: pdf")
}
