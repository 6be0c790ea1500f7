package whatsapp

import (
	"context"
	"sync"
)

// MockClient records dispatches in memory. It backs tests and the disabled mode.
type MockClient struct {
	mu         sync.Mutex
	sendErr    error
	failPhones map[string]string
	batches    [][]Message
	sendHook   func([]Message)
}

// MockOption configures the mock client.
type MockOption func(*MockClient)

// WithSendError makes every SendBulk call fail with err.
func WithSendError(err error) MockOption {
	return func(m *MockClient) {
		m.sendErr = err
	}
}

// WithRejectedPhone reports phone as refused with the given reason.
func WithRejectedPhone(phone, reason string) MockOption {
	return func(m *MockClient) {
		m.failPhones[phone] = reason
	}
}

// WithSendHook runs fn with every batch before it is recorded.
func WithSendHook(fn func([]Message)) MockOption {
	return func(m *MockClient) {
		m.sendHook = fn
	}
}

func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{failPhones: map[string]string{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockClient) SendBulk(ctx context.Context, messages []Message) (*BulkResult, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendHook != nil {
		m.sendHook(messages)
	}
	if m.sendErr != nil {
		return nil, m.sendErr
	}

	batch := append([]Message(nil), messages...)
	m.batches = append(m.batches, batch)

	result := &BulkResult{}
	for _, msg := range messages {
		if reason, ok := m.failPhones[msg.Phone]; ok {
			result.Failed = append(result.Failed, FailedMessage{Phone: msg.Phone, Reason: reason})
			continue
		}
		result.Accepted++
	}
	return result, nil
}

// SetSendError swaps the failure mode between calls.
func (m *MockClient) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Batches returns a copy of every recorded batch.
func (m *MockClient) Batches() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.batches))
	copy(out, m.batches)
	return out
}

// Sent returns every recorded message, flattened.
func (m *MockClient) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}
