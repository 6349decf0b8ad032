package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/reaandrew/securecodeauditor/core"
)

// ErrorKind tags why an analysis request did not produce a result.
type ErrorKind int

const (
	KindUnclassified ErrorKind = iota
	KindConnectivity
	KindServerDetail
	KindServerStatus
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindServerDetail:
		return "server_detail"
	case KindServerStatus:
		return "server_status"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unclassified"
	}
}

const (
	MessageOffline         = "Server offline. Please check your connection or come back later."
	MessageBadRequest      = "Bad request. Please check your file and try again."
	MessageTooLarge        = "File too large. Please upload a smaller file."
	MessageUnsupported     = "Invalid file format. Only ZIP files are allowed."
	MessageServerError     = "Server error. Please try again later."
	MessageInvalidResponse = "Invalid response format received from server. Please try again."
	MessageFailed          = "Failed to process file. Please try again."
)

var statusMessages = map[int]string{
	400: MessageBadRequest,
	413: MessageTooLarge,
	415: MessageUnsupported,
	500: MessageServerError,
}

// StatusMessage is the canned message for an error status without a detail.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("Request failed with status %d. Please try again.", status)
}

// Error is returned by the client for every failed analysis. Message is meant for the user.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// outcome captures what happened to one request, decoded once.
type outcome struct {
	requestErr   error
	transportErr error
	readErr      error
	statusCode   int
	detail       string
	results      json.RawMessage
	decodeErr    error
}

type envelope struct {
	Results json.RawMessage `json:"results"`
	Detail  json.RawMessage `json:"detail"`
}

func newOutcome(statusCode int, body []byte, readErr error) outcome {
	o := outcome{statusCode: statusCode, readErr: readErr}
	if readErr != nil {
		return o
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		o.decodeErr = err
		return o
	}
	var detail string
	if len(env.Detail) > 0 && json.Unmarshal(env.Detail, &detail) == nil {
		o.detail = detail
	}
	if len(env.Results) > 0 && string(env.Results) != "null" {
		o.results = env.Results
	}
	return o
}

func (o outcome) responded() bool {
	return o.requestErr == nil && o.transportErr == nil
}

func (o outcome) successStatus() bool {
	return o.statusCode >= 200 && o.statusCode < 300
}

// result returns the decoded results when the response is a usable success.
func (o *outcome) result() (core.AnalysisResult, bool) {
	if !o.responded() || !o.successStatus() || o.readErr != nil || o.results == nil {
		return nil, false
	}
	var result core.AnalysisResult
	if err := json.Unmarshal(o.results, &result); err != nil {
		o.decodeErr = err
		o.results = nil
		return nil, false
	}
	if result == nil {
		result = core.AnalysisResult{}
	}
	return result, true
}

// rule inspects an outcome and claims it when it matches.
type rule func(o outcome) (*Error, bool)

// rules are evaluated in order; the first match wins.
var rules = []rule{
	connectivityRule,
	serverDetailRule,
	serverStatusRule,
	malformedResponseRule,
}

func connectivityRule(o outcome) (*Error, bool) {
	if o.requestErr != nil || o.transportErr == nil {
		return nil, false
	}
	return &Error{Kind: KindConnectivity, Message: MessageOffline, Err: o.transportErr}, true
}

func serverDetailRule(o outcome) (*Error, bool) {
	if !o.responded() || o.successStatus() || o.detail == "" {
		return nil, false
	}
	return &Error{Kind: KindServerDetail, StatusCode: o.statusCode, Message: o.detail}, true
}

func serverStatusRule(o outcome) (*Error, bool) {
	if !o.responded() || o.successStatus() {
		return nil, false
	}
	return &Error{Kind: KindServerStatus, StatusCode: o.statusCode, Message: StatusMessage(o.statusCode)}, true
}

func malformedResponseRule(o outcome) (*Error, bool) {
	if !o.responded() || !o.successStatus() || o.readErr != nil || o.results != nil {
		return nil, false
	}
	err := o.decodeErr
	if err == nil {
		err = fmt.Errorf("response has no results field")
	}
	return &Error{Kind: KindMalformedResponse, StatusCode: o.statusCode, Message: MessageInvalidResponse, Err: err}, true
}

func classify(o outcome) *Error {
	for _, r := range rules {
		if e, ok := r(o); ok {
			return e
		}
	}
	cause := o.requestErr
	if cause == nil {
		cause = o.readErr
	}
	return &Error{Kind: KindUnclassified, StatusCode: o.statusCode, Message: MessageFailed, Err: cause}
}
