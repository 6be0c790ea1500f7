// Package telegram forwards operator alerts to an admin Telegram chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends a plain-text alert.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every alert; used when Telegram is disabled.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Bot posts alerts to a fixed chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New returns a Bot when alerts are enabled and Nop otherwise.
func New(cfg config.TelegramConfig, logg *logger.Logger) (Notifier, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	bot, err := NewBot(cfg.Token, cfg.ChatID, tgbotapi.APIEndpoint, &http.Client{})
	if err != nil {
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(context.Background(), "bot", bot.api.Self.UserName), "telegram bot authorized")
	}
	return bot, nil
}

// NewBot authorizes token against endpoint (a tgbotapi endpoint format string).
func NewBot(token string, chatID int64, endpoint string, client *http.Client) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is required")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram authorize: %w", err)
	}
	return &Bot{api: api, chatID: chatID}, nil
}

func (b *Bot) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatAlert renders a notification as a one-message alert.
func FormatAlert(level enums.NotificationLevel, title, message string) string {
	icon := "ℹ️"
	switch level {
	case enums.NotificationLevelSuccess:
		icon = "✅"
	case enums.NotificationLevelWarning:
		icon = "⚠️"
	case enums.NotificationLevelError:
		icon = "❌"
	}
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Sprintf("%s %s", icon, title)
	}
	return fmt.Sprintf("%s %s\n%s", icon, title, message)
}
