package service

import (
	"fmt"
	"net/http"
)

// TransportError means the request could not be sent or its response could
// not be read.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unable to %s %q: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApiError is returned for any non-2xx response.
type ApiError struct {
	StatusCode int
	Body       string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("API request failed with status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// DecodeError means the response body was not a tabular query result.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to parse query response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
