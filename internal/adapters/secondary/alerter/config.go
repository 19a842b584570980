package alerter

import "time"

// Config бот и чат для алертов; бот может совпадать с основным
type Config struct {
	BotToken        string        `envconfig:"BOT_TOKEN"`
	ChatID          int64         `envconfig:"CHAT_ID"`
	MessageThreadID *int64        `envconfig:"MESSAGE_THREAD_ID"`
	APIBaseURL      string        `envconfig:"API_BASE_URL" default:"https://api.telegram.org"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	Title           string        `envconfig:"TITLE" default:"telewall"`
}
