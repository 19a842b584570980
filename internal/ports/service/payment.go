package service

import (
	"context"

	"github.com/telewall/miniapp-backend/internal/domain"
)

// IPaymentService жизненный цикл покупки, вызывается из обработчика апдейтов Telegram
type IPaymentService interface {
	ValidatePreCheckout(ctx context.Context, q domain.PreCheckoutQuery) (bool, error)
	ConfirmPayment(ctx context.Context, p domain.SuccessfulPayment) (domain.ConfirmOutcome, error)
}

// IMessenger отправка сообщений пользователю в чат с ботом
type IMessenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
