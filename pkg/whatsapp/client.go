// Package whatsapp delivers card messages through the WhatsApp bulk-send API.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/gateway"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

const (
	bulkPath       = "/messages/bulk"
	defaultCountry = "55"
)

// Message is one outbound WhatsApp message.
type Message struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

// FailedMessage reports a recipient the API refused.
type FailedMessage struct {
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

// BulkResult is the API's answer to a bulk send.
type BulkResult struct {
	Accepted int             `json:"accepted"`
	Failed   []FailedMessage `json:"failed,omitempty"`
}

// Dispatcher sends a batch of messages in one call.
type Dispatcher interface {
	SendBulk(ctx context.Context, messages []Message) (*BulkResult, error)
}

var ErrNoMessages = errors.New("whatsapp: no messages to send")

// Client is the HTTP dispatcher backed by pkg/gateway.
type Client struct {
	gw *gateway.Client
}

// New returns the HTTP client when WhatsApp is enabled and a recording mock otherwise.
func New(cfg config.WhatsAppConfig, logg *logger.Logger) (Dispatcher, error) {
	if !cfg.Enabled {
		if logg != nil {
			logg.Warn(context.Background(), "whatsapp disabled; dispatches are recorded in memory only")
		}
		return NewMockClient(), nil
	}
	return NewClient(cfg, logg)
}

func NewClient(cfg config.WhatsAppConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("whatsapp base url is required")
	}
	gw, err := gateway.New(gateway.Options{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		TokenSource: gateway.StaticToken(cfg.Token),
		Logger:      logg,
	})
	if err != nil {
		return nil, fmt.Errorf("whatsapp gateway: %w", err)
	}
	return &Client{gw: gw}, nil
}

// SendBulk posts every message in one request. Phones are normalized to
// country-code digits before sending.
func (c *Client) SendBulk(ctx context.Context, messages []Message) (*BulkResult, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	payload := struct {
		Messages []Message `json:"messages"`
	}{Messages: make([]Message, 0, len(messages))}
	for _, m := range messages {
		phone := NormalizePhone(m.Phone)
		if phone == "" {
			return nil, fmt.Errorf("whatsapp: invalid phone for %q", m.Name)
		}
		m.Phone = phone
		payload.Messages = append(payload.Messages, m)
	}

	var result BulkResult
	if err := c.gw.Post(ctx, bulkPath, payload, &result); err != nil {
		return nil, err
	}
	if result.Accepted == 0 && len(result.Failed) == 0 {
		result.Accepted = len(messages)
	}
	return &result, nil
}

// NormalizePhone keeps digits and prefixes the Brazilian country code for
// local numbers (DDD + 8 or 9 digits). Anything shorter is rejected.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 10 || len(digits) == 11:
		return defaultCountry + digits
	case len(digits) >= 12 && len(digits) <= 15:
		return digits
	}
	return ""
}
