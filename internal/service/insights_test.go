package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightsfetch/internal/model"
	"insightsfetch/internal/query"
)

const (
	testAppID  = "test-app"
	testAPIKey = "secret-key"
)

type seenRequest struct {
	Method string
	Header http.Header
	Query  url.Values
}

// insightsTestClient starts a fake backend that answers the query path with
// status and reply, and records the last request it saw.
func insightsTestClient(t *testing.T, status int, reply string) (*InsightsClient, *seenRequest) {
	t.Helper()
	seen := new(seenRequest)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Method = r.Method
		seen.Header = r.Header.Clone()
		seen.Query = r.URL.Query()
		if r.URL.Path != "/v1/apps/"+testAppID+"/query" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "Page not found.")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(ts.Close)

	client := NewInsightsClient(ClientConfig{
		Endpoint:   ts.URL,
		AppID:      testAppID,
		APIKey:     testAPIKey,
		HTTPClient: ts.Client(),
	})
	return client, seen
}

func TestFetchRecentExceptions(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected []model.ExceptionRecord
	}{
		{
			name:     "empty tables",
			reply:    `{"tables":[]}`,
			expected: []model.ExceptionRecord{},
		},
		{
			name:     "table without rows",
			reply:    `{"tables":[{"name":"PrimaryResult","columns":[],"rows":[]}]}`,
			expected: []model.ExceptionRecord{},
		},
		{
			name:     "table without rows key",
			reply:    `{"tables":[{"name":"PrimaryResult"}]}`,
			expected: []model.ExceptionRecord{},
		},
		{
			name:  "out of range number cell defaults",
			reply: `{"tables":[{"rows":[["ts",1e400,"m","o"]]}]}`,
			expected: []model.ExceptionRecord{
				{Timestamp: "ts", Type: "Unknown", Message: "m", OperationName: "o"},
			},
		},
		{
			name:  "single row",
			reply: `{"tables":[{"rows":[["2024-01-01T00:00:00Z","SqlException","Timeout","OrderService.Process"]]}]}`,
			expected: []model.ExceptionRecord{{
				Timestamp:     "2024-01-01T00:00:00Z",
				Type:          "SqlException",
				Message:       "Timeout",
				OperationName: "OrderService.Process",
			}},
		},
		{
			name:  "null type",
			reply: `{"tables":[{"rows":[["ts",null,"boom","op"]]}]}`,
			expected: []model.ExceptionRecord{
				{Timestamp: "ts", Type: "Unknown", Message: "boom", OperationName: "op"},
			},
		},
		{
			name:  "short rows skipped and order kept",
			reply: `{"tables":[{"rows":[["t3","A","m3","o3"],["t2","B"],["t1","C","m1",7]]}]}`,
			expected: []model.ExceptionRecord{
				{Timestamp: "t3", Type: "A", Message: "m3", OperationName: "o3"},
				{Timestamp: "t1", Type: "C", Message: "m1", OperationName: ""},
			},
		},
		{
			name:  "only first table is used",
			reply: `{"tables":[{"rows":[["t","A","m","o"]]},{"rows":[["x","B","y","z"]]}]}`,
			expected: []model.ExceptionRecord{
				{Timestamp: "t", Type: "A", Message: "m", OperationName: "o"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := insightsTestClient(t, http.StatusOK, tc.reply)

			got, err := client.FetchRecentExceptions(context.Background(), query.Params{Hours: 24, Limit: 50})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFetchRecentExceptionsSendsQuery(t *testing.T) {
	client, seen := insightsTestClient(t, http.StatusOK, `{"tables":[]}`)

	params := query.Params{Hours: 12, Limit: 7, Type: query.Filter(`Sql"Exception`), Message: query.Filter("time\nout")}
	_, err := client.FetchRecentExceptions(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, seen.Method)
	assert.Equal(t, testAPIKey, seen.Header.Get(APIKeyHeader))
	assert.NotEmpty(t, seen.Header.Get(RequestIDHeader))
	assert.Equal(t, query.Build(params), seen.Query.Get("query"))
}

func TestFetchRecentExceptionsApiError(t *testing.T) {
	client, _ := insightsTestClient(t, http.StatusForbidden, `{"error":{"code":"InvalidApiKey"}}`+"\n")

	got, err := client.FetchRecentExceptions(context.Background(), query.Params{Hours: 24, Limit: 50})
	assert.Nil(t, got)

	var apiErr *ApiError
	require.True(t, errors.As(err, &apiErr), "expected ApiError, got %T", err)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, `{"error":{"code":"InvalidApiKey"}}`, apiErr.Body)
	assert.Contains(t, err.Error(), "403")
}

func TestFetchRecentExceptionsDecodeError(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "not json", reply: `<html>gateway</html>`},
		{name: "missing tables", reply: `{"value":[]}`},
		{name: "null tables", reply: `{"tables":null}`},
		{name: "tables not an array", reply: `{"tables":{}}`},
		{name: "row not an array", reply: `{"tables":[{"rows":["oops"]}]}`},
		{name: "truncated", reply: `{"tables":[{"rows":[["a"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := insightsTestClient(t, http.StatusOK, tc.reply)

			_, err := client.FetchRecentExceptions(context.Background(), query.Params{Hours: 24, Limit: 50})
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %T: %v", err, err)
			assert.Equal(t, tc.reply, decodeErr.Body)
		})
	}
}

func TestFetchRecentExceptionsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL
	ts.Close()

	client := NewInsightsClient(ClientConfig{Endpoint: endpoint, AppID: testAppID, APIKey: testAPIKey})
	_, err := client.FetchRecentExceptions(context.Background(), query.Params{Hours: 24, Limit: 50})

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "expected TransportError, got %T", err)
	assert.True(t, strings.HasPrefix(transportErr.URL, endpoint))
	assert.NotContains(t, err.Error(), testAPIKey)
}

func TestFetchRecentExceptionsCanceledContext(t *testing.T) {
	client, _ := insightsTestClient(t, http.StatusOK, `{"tables":[]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchRecentExceptions(ctx, query.Params{Hours: 24, Limit: 50})
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewInsightsClientDefaults(t *testing.T) {
	client := NewInsightsClient(ClientConfig{AppID: "abc", APIKey: "k"})

	assert.Equal(t, DefaultEndpoint+"/v1/apps/abc/query", client.baseUrl)
	assert.Equal(t, http.DefaultClient, client.httpClient)
	assert.NotNil(t, client.logger)

	trailing := NewInsightsClient(ClientConfig{Endpoint: "https://example.test/", AppID: "abc"})
	assert.Equal(t, "https://example.test/v1/apps/abc/query", trailing.baseUrl)
}
