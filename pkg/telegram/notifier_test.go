package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/stretchr/testify/require"
)

type fakeTelegram struct {
	mu    sync.Mutex
	texts []string
	chats []string
}

func (f *fakeTelegram) handler(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"Cartela","username":"cartela_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		f.mu.Lock()
		f.texts = append(f.texts, r.Form.Get("text"))
		f.chats = append(f.chats, r.Form.Get("chat_id"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
	default:
		_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func TestBotNotifySendsToConfiguredChat(t *testing.T) {
	fake := &fakeTelegram{}
	server := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer server.Close()

	bot, err := NewBot("token", 42, server.URL+"/bot%s/%s", server.Client())
	require.NoError(t, err)

	require.NoError(t, bot.Notify(context.Background(), FormatAlert(enums.NotificationLevelError, "Envio falhou", "grupo 3")))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Equal(t, []string{"42"}, fake.chats)
	require.Equal(t, "❌ Envio falhou\ngrupo 3", fake.texts[0])
}

func TestBotNotifyHonorsCanceledContext(t *testing.T) {
	fake := &fakeTelegram{}
	server := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer server.Close()

	bot, err := NewBot("token", 42, server.URL+"/bot%s/%s", server.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, bot.Notify(ctx, "hi"), context.Canceled)
	require.Empty(t, fake.texts)
}

func TestNewBotValidatesInput(t *testing.T) {
	_, err := NewBot("", 1, "", nil)
	require.Error(t, err)
	_, err = NewBot("token", 0, "", nil)
	require.Error(t, err)
}

func TestNewReturnsNopWhenDisabled(t *testing.T) {
	n, err := New(config.TelegramConfig{}, nil)
	require.NoError(t, err)
	require.IsType(t, Nop{}, n)
	require.NoError(t, n.Notify(context.Background(), "ignored"))
}

func TestFormatAlert(t *testing.T) {
	require.Equal(t, "✅ Grupo enviado", FormatAlert(enums.NotificationLevelSuccess, " Grupo enviado ", ""))
	require.Equal(t, "ℹ️ a\nb", FormatAlert(enums.NotificationLevelInfo, "a", "b"))
}
