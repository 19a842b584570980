package payment

import (
	"context"
)

// IPaymentGateway платёжный шлюз платформы (Telegram Stars).
// Use case зависит только от этого интерфейса, не зная деталей реализации.
type IPaymentGateway interface {
	// CreateInvoiceLink создаёт ссылку на invoice для мини-приложения
	CreateInvoiceLink(ctx context.Context, req CreateInvoiceRequest) (string, error)

	// AnswerPreCheckout отвечает на pre_checkout_query (ok=false - отклонить)
	AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage *string) error
}

// CreateInvoiceRequest запрос на создание invoice
type CreateInvoiceRequest struct {
	Title       string
	Description string
	Payload     string // уникальный payload для идентификации платежа
	Currency    string // "XTR" для Stars
	Amount      int64  // количество звёзд
	PhotoURL    *string
}
