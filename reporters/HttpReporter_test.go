package reporters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/reaandrew/securecodeauditor/core"
	"github.com/stretchr/testify/assert"
)

type MockHttpClient struct {
	requests []*http.Request
	bodies   [][]byte
	status   int
}

func (m *MockHttpClient) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	body, _ := io.ReadAll(req.Body)
	m.bodies = append(m.bodies, body)

	status := m.status
	if status == 0 {
		status = 200
	}
	resp := &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString("This is a mock response body.")),
		Header:     make(http.Header),
	}

	return resp, nil
}

func (m MockHttpClient) GetRequests() []*http.Request {
	return m.requests
}

type MockReportIdGenerator struct {
	id string
}

func (m MockReportIdGenerator) Generate() string {
	return m.id
}

func TestHttpReporter_Report(t *testing.T) {
	expectedId := "101"
	client := MockHttpClient{}
	reporter := HttpReporter{
		BaseURL:    "https://somewhere",
		HTTPClient: &client,
		ReportIdGenerator: MockReportIdGenerator{
			id: expectedId,
		},
	}

	err := reporter.Report(core.Report{ArchiveName: "code.zip", Result: sampleResult()})
	assert.Nil(t, err)
	assert.Len(t, client.GetRequests(), 2)

	request1 := client.GetRequests()[0]
	assert.Equal(t, fmt.Sprintf("https://somewhere/reports/%s/results", expectedId), request1.URL.String())
	assert.Equal(t, "POST", request1.Method)

	var payload httpReportPayload
	assert.NoError(t, json.Unmarshal(client.bodies[0], &payload))
	assert.Equal(t, "code.zip", payload.Archive)
	assert.Equal(t, sampleResult(), payload.Results)

	request2 := client.GetRequests()[1]
	assert.Equal(t, fmt.Sprintf("https://somewhere/report/%s", expectedId), request2.URL.String())
	assert.Equal(t, "PATCH", request2.Method)
}

func TestHttpReporter_ReportStopsOnFailure(t *testing.T) {
	client := MockHttpClient{status: 500}
	reporter := HttpReporter{
		BaseURL:           "https://somewhere",
		HTTPClient:        &client,
		ReportIdGenerator: MockReportIdGenerator{id: "1"},
	}

	err := reporter.Report(core.Report{Result: sampleResult()})
	assert.Error(t, err)
	assert.Len(t, client.GetRequests(), 1)
}
