package telegram_stars

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/telegram"
	"github.com/telewall/miniapp-backend/internal/domain"
	paymentPort "github.com/telewall/miniapp-backend/internal/ports/payment"
)

const (
	defaultAttempts = 3
	defaultDelay    = 300 * time.Millisecond
)

// BotAPI методы Telegram клиента, которые нужны провайдеру
type BotAPI interface {
	CreateInvoiceLink(ctx context.Context, req telegram.CreateInvoiceLinkRequest) (string, error)
	AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage *string) error
}

// Provider реализует IPaymentGateway для Telegram Stars
type Provider struct {
	client   BotAPI
	attempts uint
	delay    time.Duration
	log      *slog.Logger
}

// NewProvider создаёт новый провайдер для Telegram Stars
func NewProvider(client BotAPI, log *slog.Logger) *Provider {
	return &Provider{
		client:   client,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		log:      log,
	}
}

// WithRetry переопределяет политику повторов
func (p *Provider) WithRetry(attempts uint, delay time.Duration) *Provider {
	p.attempts = attempts
	p.delay = delay
	return p
}

// CreateInvoiceLink создаёт ссылку на оплату звёздами
func (p *Provider) CreateInvoiceLink(ctx context.Context, req paymentPort.CreateInvoiceRequest) (string, error) {
	// для Stars ровно одна позиция, provider_token пустой
	invoiceReq := telegram.CreateInvoiceLinkRequest{
		Title:       req.Title,
		Description: req.Description,
		Payload:     req.Payload,
		Currency:    req.Currency,
		Prices: []telegram.LabeledPrice{
			{Label: req.Title, Amount: req.Amount},
		},
		PhotoURL: req.PhotoURL,
	}

	var link string
	err := p.do(ctx, "createInvoiceLink", func() error {
		var err error
		link, err = p.client.CreateInvoiceLink(ctx, invoiceReq)
		return err
	})
	if err != nil {
		return "", err
	}
	return link, nil
}

// AnswerPreCheckout подтверждает или отклоняет pre_checkout_query
func (p *Provider) AnswerPreCheckout(ctx context.Context, queryID string, ok bool, errorMessage *string) error {
	return p.do(ctx, "answerPreCheckoutQuery", func() error {
		return p.client.AnswerPreCheckoutQuery(ctx, queryID, ok, errorMessage)
	})
}

func (p *Provider) do(ctx context.Context, method string, fn func() error) error {
	err := retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			p.log.Warn("retrying telegram call",
				"method", method,
				"attempt", n+1,
				"error", err,
			)
		}),
	)
	if err == nil {
		return nil
	}

	if IsTransient(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrGatewayUnavailable, method, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrGatewayRejected, method, err)
}

// IsTransient сетевые ошибки, таймауты, 429 и 5xx
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
