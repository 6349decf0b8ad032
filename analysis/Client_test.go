package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reaandrew/securecodeauditor/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockHttpClient struct {
	requests []*http.Request
	err      error
}

func (m *MockHttpClient) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	return nil, m.err
}

func sampleFile() core.SelectedFile {
	return core.SelectedFile{Name: "code.zip", Content: []byte("PK\x03\x04zipbytes"), ContentType: "application/zip"}
}

func TestAnalyze_UploadsSingleFilePart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File, 1)
		files := r.MultipartForm.File[UploadField]
		require.Len(t, files, 1)
		assert.Equal(t, "code.zip", files[0].Filename)
		assert.Equal(t, "application/zip", files[0].Header.Get("Content-Type"))

		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, sampleFile().Content, content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"a.py":[{"vulnerability_type":"SQLi","code_snippet":"q = 'x' + y","recommendation":"Use parameters"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", 0)
	result, err := client.Analyze(context.Background(), sampleFile())

	require.NoError(t, err)
	assert.Equal(t, core.AnalysisResult{
		"a.py": {{VulnerabilityType: "SQLi", CodeSnippet: "q = 'x' + y", Recommendation: "Use parameters"}},
	}, result)
}

func TestAnalyze_EmptyResultsIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{}}`))
	}))
	defer server.Close()

	result, err := NewClient(server.URL, 0).Analyze(context.Background(), sampleFile())
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestAnalyze_ErrorResponses(t *testing.T) {
	testCases := []struct {
		status  int
		body    string
		kind    ErrorKind
		message string
	}{
		{413, ``, KindServerStatus, MessageTooLarge},
		{400, `{"detail":"bad zip"}`, KindServerDetail, "bad zip"},
		{200, `{}`, KindMalformedResponse, MessageInvalidResponse},
		{503, `{"error":"down"}`, KindServerStatus, "Request failed with status 503. Please try again."},
	}

	for _, tc := range testCases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))

		_, err := NewClient(server.URL, 0).Analyze(context.Background(), sampleFile())
		server.Close()

		var analysisErr *Error
		require.True(t, errors.As(err, &analysisErr), "status %d", tc.status)
		assert.Equal(t, tc.kind, analysisErr.Kind)
		assert.Equal(t, tc.message, analysisErr.Message)
		assert.Equal(t, tc.status, analysisErr.StatusCode)
	}
}

func TestAnalyze_ConnectivityFailure(t *testing.T) {
	mock := &MockHttpClient{err: errors.New("dial tcp: lookup nowhere: no such host")}
	client := Client{BaseURL: "https://nowhere", HTTPClient: mock}

	_, err := client.Analyze(context.Background(), sampleFile())

	var analysisErr *Error
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, KindConnectivity, analysisErr.Kind)
	assert.Equal(t, MessageOffline, analysisErr.Message)
	assert.Len(t, mock.requests, 1)
	assert.Equal(t, "https://nowhere/analyze", mock.requests[0].URL.String())
}

func TestAnalyze_BadBaseURLIsUnclassified(t *testing.T) {
	client := Client{BaseURL: "://broken", HTTPClient: &MockHttpClient{}}

	_, err := client.Analyze(context.Background(), sampleFile())

	var analysisErr *Error
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, KindUnclassified, analysisErr.Kind)
	assert.Equal(t, MessageFailed, analysisErr.Message)
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.NoError(t, NewClient(server.URL, 0).Status(context.Background()))

	offline := Client{BaseURL: "https://nowhere", HTTPClient: &MockHttpClient{err: errors.New("refused")}}
	err := offline.Status(context.Background())
	var analysisErr *Error
	require.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, KindConnectivity, analysisErr.Kind)
}
