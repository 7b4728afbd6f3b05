package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HTTPError is a non-2xx response from the backend. Detail carries the most
// specific human-readable message the response body offered.
type HTTPError struct {
	Status int
	Body   []byte
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend: HTTP %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend: HTTP %d", e.Status)
}

// NetworkError is a transport-level failure: DNS, connect, TLS, timeout.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend: request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// extractDetail pulls a message out of the known error body shapes, in
// priority order: {"detail": ...} then {"message": ...}.
func extractDetail(body []byte) string {
	var shape struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &shape); err != nil {
		return ""
	}
	if shape.Detail != "" {
		return shape.Detail
	}
	return shape.Message
}

// UserMessage resolves the most specific user-presentable message for an
// error from this package: backend-provided detail, then the error's own
// message, then the given fallback.
func UserMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail != "" {
		return httpErr.Detail
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
