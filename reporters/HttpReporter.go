package reporters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/reaandrew/securecodeauditor/core"
	log "github.com/sirupsen/logrus"
)

type ReportIdGenerator interface {
	Generate() string
}

type UuidReportGenerator struct {
}

func (u UuidReportGenerator) Generate() string {
	return uuid.New().String()
}

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHttpClient struct {
}

func (d DefaultHttpClient) Do(req *http.Request) (*http.Response, error) {
	response, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("Error sending request: %v", err)
	} else {
		log.Debugf("Success sending request: %s", response.Status)
	}
	return response, err
}

func NewDefaultHttpReporter(baseUrl string) HttpReporter {
	return HttpReporter{
		BaseURL:           baseUrl,
		HTTPClient:        DefaultHttpClient{},
		ReportIdGenerator: UuidReportGenerator{},
	}
}

// HttpReporter publishes a finished report to a collector: the results are posted
// under a fresh report id and the report is then marked completed.
type HttpReporter struct {
	BaseURL           string
	HTTPClient        HttpClient
	ReportIdGenerator ReportIdGenerator
}

type httpReportPayload struct {
	Archive string              `json:"archive"`
	Results core.AnalysisResult `json:"results"`
}

func (h HttpReporter) Report(report core.Report) error {
	reportId := h.ReportIdGenerator.Generate()

	archive := report.ArchiveName
	if archive == "" {
		archive = FallbackArchiveName
	}
	payload, err := json.Marshal(httpReportPayload{Archive: archive, Results: report.Result})
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	url := fmt.Sprintf("%s/reports/%s/results", h.BaseURL, reportId)
	if err := h.send(http.MethodPost, url, payload); err != nil {
		return fmt.Errorf("failed to report results: %w", err)
	}

	url = fmt.Sprintf("%s/report/%s", h.BaseURL, reportId)
	if err := h.send(http.MethodPatch, url, []byte(`{"status":"completed"}`)); err != nil {
		return fmt.Errorf("failed to signal completion: %w", err)
	}

	log.WithField("report_id", reportId).Info("Report published")
	return nil
}

func (h HttpReporter) send(method, url string, body []byte) error {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return nil
}
