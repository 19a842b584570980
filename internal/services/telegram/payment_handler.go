package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/usecases/payment"
)

const paymentConfirmedText = "✅ Оплата получена! Покупка уже в вашем инвентаре."

// HandlePreCheckoutQuery обрабатывает pre_checkout_query от Telegram (для платежей Stars)
func (s *Service) HandlePreCheckoutQuery(ctx context.Context, query *domain.TelegramPreCheckoutQuery, updateID int64) error {
	if query == nil {
		return fmt.Errorf("invalid pre_checkout_query")
	}

	q := domain.PreCheckoutQuery{
		QueryID:        query.ID,
		InvoicePayload: query.InvoicePayload,
		TotalAmount:    query.TotalAmount,
		Currency:       query.Currency,
	}
	if query.From != nil {
		q.FromExternalID = strconv.FormatInt(query.From.ID, 10)
	}

	confirmed, err := s.PaymentService.ValidatePreCheckout(ctx, q)
	if err != nil {
		s.Log.Error("failed to handle pre_checkout_query",
			"error", err,
			"query_id", query.ID,
			"update_id", updateID,
		)
		return fmt.Errorf("failed to handle pre_checkout_query: %w", err)
	}

	if !confirmed {
		s.Log.Info("pre_checkout_query rejected",
			"query_id", query.ID,
			"update_id", updateID,
		)
		return nil // платёж отклонён, но это не ошибка
	}

	return nil
}

// HandleSuccessfulPayment обрабатывает successful_payment от Telegram (для платежей Stars)
func (s *Service) HandleSuccessfulPayment(ctx context.Context, message *domain.Message, updateID int64) error {
	if message == nil || message.SuccessfulPayment == nil {
		return fmt.Errorf("invalid successful_payment")
	}
	sp := message.SuccessfulPayment

	outcome, err := s.PaymentService.ConfirmPayment(ctx, domain.SuccessfulPayment{
		InvoicePayload: sp.InvoicePayload,
		ChargeID:       sp.TelegramPaymentChargeID,
		TotalAmount:    sp.TotalAmount,
		Currency:       sp.Currency,
	})
	if err != nil {
		// повторная доставка не исправит эти случаи, разбор идёт по алертам и логам
		if errors.Is(err, domain.ErrTransactionNotFound) ||
			errors.Is(err, domain.ErrInvalidTransition) ||
			errors.Is(err, payment.ErrGrantFailed) {
			s.Log.Error("successful_payment acknowledged without grant",
				"error", err,
				"invoice_payload", sp.InvoicePayload,
				"update_id", updateID,
			)
			return nil
		}
		return fmt.Errorf("failed to handle successful_payment: %w", err)
	}

	s.Log.Info("successful_payment processed",
		"invoice_payload", sp.InvoicePayload,
		"outcome", outcome.String(),
		"amount", sp.TotalAmount,
		"update_id", updateID,
	)

	if outcome == domain.ConfirmOutcomeCompleted && message.Chat != nil {
		// уведомление не влияет на результат платежа
		_ = s.SendMessage(ctx, message.Chat.ID, paymentConfirmedText)
	}

	return nil
}
