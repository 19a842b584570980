package alerter

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/telegram"
)

// лимит sendMessage в Bot API
const maxMessageRunes = 4096

// Client доставляет алерты в чат (или топик форума) поддержки
type Client struct {
	bot      *telegram.Client
	chatID   int64
	threadID *int64
	title    string
	log      *slog.Logger
}

// NewClient возвращает nil, если BOT_TOKEN или CHAT_ID не заданы
func NewClient(cfg *Config, log *slog.Logger) *Client {
	if cfg == nil || cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil
	}

	return &Client{
		bot: telegram.NewClientWithConfig(&telegram.Config{
			BotToken:       cfg.BotToken,
			APIBaseURL:     cfg.APIBaseURL,
			RequestTimeout: cfg.RequestTimeout,
		}, log),
		chatID:   cfg.ChatID,
		threadID: cfg.MessageThreadID,
		title:    cfg.Title,
		log:      log,
	}
}

// SendAlert отправляет Markdown сообщение; длинный текст обрезается
func (c *Client) SendAlert(ctx context.Context, message string) error {
	text := message
	if c.title != "" {
		text = fmt.Sprintf("*[%s]*\n%s", c.title, message)
	}
	if utf8.RuneCountInString(text) > maxMessageRunes {
		runes := []rune(text)
		text = string(runes[:maxMessageRunes-1]) + "…"
	}

	_, err := c.bot.SendMessageWithRequest(ctx, telegram.SendMessageRequest{
		ChatID:          c.chatID,
		Text:            text,
		ParseMode:       "Markdown",
		MessageThreadID: c.threadID,
	})
	if err != nil {
		c.log.Warn("failed to deliver alert",
			"error", err,
			"chat_id", c.chatID,
		)
		return fmt.Errorf("deliver alert: %w", err)
	}

	return nil
}
