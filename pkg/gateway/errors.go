package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx reply from the remote service.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Payload any
	Body    string
}

func (e *APIError) Error() string {
	msg := e.Message()
	if msg == "" {
		return fmt.Sprintf("gateway %s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("gateway %s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

// Message extracts a human readable message from the payload when the remote
// service sent one.
func (e *APIError) Message() string {
	if m, ok := e.Payload.(map[string]any); ok {
		for _, key := range []string{"message", "error", "detail"} {
			switch v := m[key].(type) {
			case string:
				return v
			case map[string]any:
				if nested, ok := v["message"].(string); ok {
					return nested
				}
			}
		}
	}
	return strings.TrimSpace(e.Body)
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		Status: resp.StatusCode,
		Method: method,
		Path:   path,
		Body:   string(raw),
	}
	if mediaType(resp.Header.Get("Content-Type")) == "json" {
		var payload any
		if err := json.Unmarshal(raw, &payload); err == nil {
			apiErr.Payload = payload
		}
	}
	return apiErr
}

// IsStatus reports whether err carries an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsTimeout reports whether the request was aborted by its deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
