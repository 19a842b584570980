package alerter

import (
	"context"
	"log/slog"

	"github.com/telewall/miniapp-backend/internal/ports/service"
)

// Sender канал доставки алертов (Telegram чат поддержки)
type Sender interface {
	SendAlert(ctx context.Context, message string) error
}

// Service реализует IAlerterService для отправки алертов
type Service struct {
	sender Sender
	log    *slog.Logger
}

// New создаёт сервис алертов. Если sender не задан, алерты только пишутся в лог.
func New(sender Sender, log *slog.Logger) service.IAlerterService {
	return &Service{
		sender: sender,
		log:    log,
	}
}

// SendAlert отправляет алерт
func (s *Service) SendAlert(ctx context.Context, message string) error {
	s.log.Warn("alert", "message", message)
	if s.sender == nil {
		return nil
	}
	return s.sender.SendAlert(ctx, message)
}
