package alerter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/telegram"
	"github.com/telewall/miniapp-backend/internal/pkg/logger"
)

func TestNewClient_DisabledWithoutChat(t *testing.T) {
	require.Nil(t, NewClient(nil, logger.Discard()))
	require.Nil(t, NewClient(&Config{BotToken: "42:T"}, logger.Discard()))
	require.Nil(t, NewClient(&Config{ChatID: -100}, logger.Discard()))
}

func TestClient_SendAlert(t *testing.T) {
	thread := int64(7)
	var got telegram.SendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bot42:T/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"chat":{"id":-100},"date":0}}`)
	}))
	defer srv.Close()

	c := NewClient(&Config{
		BotToken:        "42:T",
		ChatID:          -100,
		MessageThreadID: &thread,
		APIBaseURL:      srv.URL,
		Title:           "telewall-test",
	}, logger.Discard())
	require.NotNil(t, c)

	require.NoError(t, c.SendAlert(context.Background(), "disk is full"))
	require.Equal(t, int64(-100), got.ChatID)
	require.Equal(t, "Markdown", got.ParseMode)
	require.NotNil(t, got.MessageThreadID)
	require.Equal(t, thread, *got.MessageThreadID)
	require.Equal(t, "*[telewall-test]*\ndisk is full", got.Text)

	require.NoError(t, c.SendAlert(context.Background(), strings.Repeat("я", 5000)))
	require.Equal(t, maxMessageRunes, utf8.RuneCountInString(got.Text))
}

func TestClient_SendAlertError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	c := NewClient(&Config{BotToken: "42:T", ChatID: -100, APIBaseURL: srv.URL}, logger.Discard())
	require.Error(t, c.SendAlert(context.Background(), "x"))
}
