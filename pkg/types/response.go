// Package types holds the JSON envelopes shared by every HTTP response.
package types

// SuccessEnvelope wraps any successful payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the body of a failed request. Retryable tells clients the
// same request may succeed later, as with rate limits or an unreachable
// dependency.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Page is one slice of a keyset-paginated list. Cursor is empty on the last
// page.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"cursor,omitempty"`
}
