package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/reaandrew/securecodeauditor/analysis"
	"github.com/reaandrew/securecodeauditor/archive"
	"github.com/reaandrew/securecodeauditor/config"
	"github.com/reaandrew/securecodeauditor/core"
	"github.com/reaandrew/securecodeauditor/workflow"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultLambdaFileName = "archive.zip"
	EndpointParameterEnv  = "SSM_ENDPOINT_PARAMETER"
)

// LambdaHandler runs one analysis per API Gateway request.
type LambdaHandler struct {
	Analyzer workflow.Analyzer
}

type lambdaSuccess struct {
	Results core.AnalysisResult `json:"results"`
}

type lambdaFailure struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind"`
	Status int    `json:"status,omitempty"`
}

// ParameterGetter is the part of the SSM client used to resolve the endpoint.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func NewLambdaHandler(ctx context.Context) (*LambdaHandler, error) {
	cfg, err := config.Load(os.Getenv("SCA_CONFIG"))
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)

	if name := os.Getenv(EndpointParameterEnv); name != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
		}
		endpoint, err := getStoredEndpoint(ctx, ssm.NewFromConfig(awsCfg), name)
		if err != nil {
			return nil, err
		}
		cfg.Endpoint = endpoint
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log.Infof("Lambda handler using endpoint %s", cfg.Endpoint)
	return &LambdaHandler{Analyzer: analysis.NewClient(cfg.Endpoint, cfg.RequestTimeout)}, nil
}

// getStoredEndpoint retrieves the analysis endpoint from SSM Parameter Store
func getStoredEndpoint(ctx context.Context, svc ParameterGetter, name string) (string, error) {
	result, err := svc.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve parameter '%s': %w", name, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter '%s' has no value", name)
	}
	return *result.Parameter.Value, nil
}

func (h *LambdaHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	content := []byte(request.Body)
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			log.Printf("Error decoding request body: %v", err)
			return failureResponse(http.StatusBadRequest, lambdaFailure{Detail: "Request body is not valid base64.", Kind: analysis.KindUnclassified.String()}), nil
		}
		content = decoded
	}
	if len(content) == 0 {
		return failureResponse(http.StatusBadRequest, lambdaFailure{Detail: "The request body must contain a zip archive.", Kind: analysis.KindUnclassified.String()}), nil
	}

	name := request.QueryStringParameters["filename"]
	if name == "" {
		name = DefaultLambdaFileName
	}
	contentType := headerValue(request.Headers, "Content-Type")
	if !archive.ZipPolicy().Accepts(name, contentType) {
		return failureResponse(http.StatusUnsupportedMediaType, lambdaFailure{Detail: analysis.MessageUnsupported, Kind: analysis.KindUnclassified.String()}), nil
	}

	wf := workflow.New(h.Analyzer)
	wf.SelectFile(core.SelectedFile{Name: name, Content: content, ContentType: contentType})
	state, err := wf.Process(ctx)
	if err != nil {
		return failureResponse(http.StatusInternalServerError, lambdaFailure{Detail: err.Error(), Kind: analysis.KindUnclassified.String()}), nil
	}

	switch s := state.(type) {
	case workflow.Succeeded:
		body, err := json.Marshal(lambdaSuccess{Results: s.Result})
		if err != nil {
			return failureResponse(http.StatusInternalServerError, lambdaFailure{Detail: err.Error(), Kind: analysis.KindUnclassified.String()}), nil
		}
		return toAPIGatewayResponse(http.StatusOK, string(body)), nil
	case workflow.Failed:
		return failureResponse(http.StatusBadGateway, lambdaFailure{Detail: s.Message, Kind: s.Kind.String(), Status: s.StatusCode}), nil
	}
	return failureResponse(http.StatusInternalServerError, lambdaFailure{Detail: analysis.MessageFailed, Kind: analysis.KindUnclassified.String()}), nil
}

func headerValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if http.CanonicalHeaderKey(key) == name {
			return value
		}
	}
	return ""
}

func failureResponse(statusCode int, failure lambdaFailure) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(failure)
	return toAPIGatewayResponse(statusCode, string(body))
}

// toAPIGatewayResponse wraps a JSON body in an API Gateway response
func toAPIGatewayResponse(statusCode int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode:      statusCode,
		Headers:         map[string]string{"Content-Type": "application/json"},
		Body:            body,
		IsBase64Encoded: false,
	}
}
