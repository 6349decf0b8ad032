package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/reaandrew/securecodeauditor/core"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "https://securecodeauditor-production.up.railway.app"
	UploadField     = "file"
	analyzePath     = "/analyze"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHttpClient logs every round trip at debug level.
type DefaultHttpClient struct {
	Client *http.Client
}

func (d DefaultHttpClient) Do(req *http.Request) (*http.Response, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	response, err := client.Do(req)
	if err != nil {
		log.WithField("url", req.URL.String()).Debugf("Error sending request: %v", err)
	} else {
		log.WithField("url", req.URL.String()).Debugf("Received response: %s", response.Status)
	}
	return response, err
}

// Client talks to the remote analysis service.
type Client struct {
	BaseURL    string
	HTTPClient HttpClient
}

// NewClient builds a client for baseURL. A zero timeout leaves the transport default in place.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: DefaultHttpClient{Client: &http.Client{Timeout: timeout}},
	}
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// Analyze uploads the archive and returns the results field of the response.
// Every failure is an *Error carrying a message fit for the user.
func (c *Client) Analyze(ctx context.Context, file core.SelectedFile) (core.AnalysisResult, error) {
	body, contentType, err := multipartBody(file)
	if err != nil {
		return nil, classify(outcome{requestErr: fmt.Errorf("failed to build upload body: %w", err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(analyzePath), body)
	if err != nil {
		return nil, classify(outcome{requestErr: fmt.Errorf("failed to create request: %w", err)})
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classify(outcome{transportErr: fmt.Errorf("failed to send request: %w", err)})
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		readErr = fmt.Errorf("failed to read response body: %w", readErr)
	}
	o := newOutcome(resp.StatusCode, data, readErr)
	if result, ok := o.result(); ok {
		return result, nil
	}
	return nil, classify(o)
}

// Status reports whether the service answers at all. Any HTTP response counts as online.
func (c *Client) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/"), nil)
	if err != nil {
		return classify(outcome{requestErr: fmt.Errorf("failed to create request: %w", err)})
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return classify(outcome{transportErr: fmt.Errorf("failed to send request: %w", err)})
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(file core.SelectedFile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", file.MimeType())

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
