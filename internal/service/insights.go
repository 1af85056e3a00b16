package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"insightsfetch/internal/model"
	"insightsfetch/internal/query"
)

const (
	DefaultEndpoint = "https://api.applicationinsights.io"

	APIKeyHeader    = "x-api-key"
	RequestIDHeader = "x-ms-client-request-id"
)

type ClientConfig struct {
	Endpoint   string // defaults to DefaultEndpoint
	AppID      string
	APIKey     string
	HTTPClient *http.Client // defaults to http.DefaultClient
	Logger     *zap.Logger
}

// InsightsClient queries the exceptions table of a single Application
// Insights app. It holds no per-request state and is safe for concurrent use.
type InsightsClient struct {
	baseUrl    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewInsightsClient(cfg ClientConfig) *InsightsClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &InsightsClient{
		baseUrl:    strings.TrimSuffix(endpoint, "/") + "/v1/apps/" + url.PathEscape(cfg.AppID) + "/query",
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchRecentExceptions runs the exception search described by params and
// returns one record per usable row of the first result table.
func (c *InsightsClient) FetchRecentExceptions(ctx context.Context, params query.Params) ([]model.ExceptionRecord, error) {
	resp, err := c.Query(ctx, query.Build(params))
	if err != nil {
		return nil, err
	}
	return c.exceptionsFromResponse(resp), nil
}

// Query sends kql to the backend and decodes the tabular response.
func (c *InsightsClient) Query(ctx context.Context, kql string) (*model.QueryResponse, error) {
	requestID := uuid.NewString()
	logger := c.logger.With(zap.String("request_id", requestID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryUrl(kql), nil)
	if err != nil {
		return nil, &TransportError{Op: "build request for", URL: c.baseUrl, Err: err}
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	logger.Debug("Sending query", zap.String("url", c.baseUrl), zap.String("query", kql))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "send request to", URL: c.baseUrl, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response from", URL: c.baseUrl, Err: err}
	}
	logger.Debug("Received response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ApiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return decodeQueryResponse(body)
}

func (c *InsightsClient) queryUrl(kql string) string {
	v := url.Values{}
	v.Set("query", kql)
	return c.baseUrl + "?" + v.Encode()
}

func (c *InsightsClient) exceptionsFromResponse(resp *model.QueryResponse) []model.ExceptionRecord {
	exceptions := []model.ExceptionRecord{}

	table := resp.FirstTable()
	if table == nil {
		c.logger.Debug("Response contained no tables")
		return exceptions
	}

	skipped := 0
	for _, row := range table.Rows {
		rec, ok := model.ExceptionFromRow(row)
		if !ok {
			skipped++
			continue
		}
		exceptions = append(exceptions, rec)
	}
	if skipped > 0 {
		c.logger.Debug("Skipped short rows", zap.Int("skipped", skipped), zap.Int("kept", len(exceptions)))
	}
	return exceptions
}

func decodeQueryResponse(body []byte) (*model.QueryResponse, error) {
	var envelope struct {
		Tables *[]model.Table `json:"tables"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Body: string(body), Err: err}
	}
	if envelope.Tables == nil {
		return nil, &DecodeError{Body: string(body), Err: errors.New(`missing "tables" field`)}
	}
	return &model.QueryResponse{Tables: *envelope.Tables}, nil
}
