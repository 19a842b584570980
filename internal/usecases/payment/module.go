package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/pkg/metrics"
	paymentPort "github.com/telewall/miniapp-backend/internal/ports/payment"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
	"github.com/telewall/miniapp-backend/internal/ports/service"
	"github.com/telewall/miniapp-backend/internal/ports/storage"
)

// Ограничения createInvoiceLink
const (
	maxInvoiceTitle       = 32
	maxInvoiceDescription = 255
)

// ErrGrantFailed деньги списаны, транзакция completed, но товар не выдан (отправлен алерт)
var ErrGrantFailed = errors.New("entitlement grant failed")

// Тексты отказов pre_checkout_query (видны покупателю)
const (
	rejectNotFound         = "Платёж не найден"
	rejectAlreadyProcessed = "Платёж уже обработан"
	rejectAmountMismatch   = "Сумма платежа не совпадает"
	rejectCurrencyMismatch = "Валюта платежа не совпадает"
	rejectForeignPayment   = "Платёж не принадлежит вам"
	rejectTryLater         = "Не удалось проверить платёж, попробуйте позже"
)

// Granter выдача товара по завершённой транзакции
type Granter interface {
	Grant(ctx context.Context, tx *domain.PaymentTransaction) (*domain.GrantedEntitlement, error)
}

type Service struct {
	TransactionRepo repository.ITransactionRepo
	ItemRepo        repository.IStoreItemRepo
	ProfileRepo     repository.IProfileRepo
	Gateway         paymentPort.IPaymentGateway // Telegram Stars провайдер
	Granter         Granter
	Images          storage.IImageResolver
	AlerterService  service.IAlerterService
	Log             *slog.Logger

	now        func() time.Time
	newPayload func() string
}

func New(
	transactionRepo repository.ITransactionRepo,
	itemRepo repository.IStoreItemRepo,
	profileRepo repository.IProfileRepo,
	gateway paymentPort.IPaymentGateway,
	granter Granter,
	images storage.IImageResolver,
	alerterService service.IAlerterService,
	log *slog.Logger,
) *Service {
	return &Service{
		TransactionRepo: transactionRepo,
		ItemRepo:        itemRepo,
		ProfileRepo:     profileRepo,
		Gateway:         gateway,
		Granter:         granter,
		Images:          images,
		AlerterService:  alerterService,
		Log:             log,
		now:             time.Now,
		newPayload:      NewInvoicePayload,
	}
}

// CreatedTransaction результат CreateTransaction
type CreatedTransaction struct {
	Transaction *domain.PaymentTransaction `json:"transaction"`
	InvoiceURL  string                     `json:"invoice_url"`
}

// CreateTransaction создаёт pending транзакцию и ссылку на invoice.
// Если шлюз не выставил invoice, транзакция сразу переводится в failed.
func (s *Service) CreateTransaction(ctx context.Context, buyerProfileID, itemID uuid.UUID) (*CreatedTransaction, error) {
	item, err := s.ItemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			metrics.TransactionCreated("item_not_found")
			return nil, domain.ErrItemNotFound
		}
		metrics.TransactionCreated("error")
		return nil, fmt.Errorf("failed to get store item: %w", err)
	}
	if !item.Active {
		metrics.TransactionCreated("item_not_found")
		return nil, domain.ErrItemNotFound
	}

	now := s.now()
	tx := &domain.PaymentTransaction{
		ID:             uuid.New(),
		BuyerProfileID: buyerProfileID,
		StoreItemID:    item.ID,
		InvoicePayload: s.newPayload(),
		AmountUnits:    item.PriceUnits, // цена фиксируется в момент создания
		Currency:       domain.CurrencyStars,
		Status:         domain.TransactionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.TransactionRepo.Insert(ctx, tx); err != nil {
		metrics.TransactionCreated("error")
		if errors.Is(err, domain.ErrPayloadCollision) {
			s.Log.Error("invoice payload collision", "invoice_payload", tx.InvoicePayload)
			return nil, err
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	invoiceURL, err := s.Gateway.CreateInvoiceLink(ctx, paymentPort.CreateInvoiceRequest{
		Title:       truncateRunes(item.Name, maxInvoiceTitle),
		Description: truncateRunes(invoiceDescription(item), maxInvoiceDescription),
		Payload:     tx.InvoicePayload,
		Currency:    tx.Currency,
		Amount:      tx.AmountUnits,
		PhotoURL:    s.invoicePhoto(ctx, item),
	})
	if err != nil {
		metrics.TransactionCreated("gateway_error")
		s.Log.Warn("failed to create invoice link",
			"error", err,
			"transaction_id", tx.ID,
			"store_item_id", item.ID,
		)
		s.markFailed(ctx, tx)
		return nil, err
	}

	metrics.TransactionCreated("created")
	s.Log.Info("transaction created and invoice issued",
		"transaction_id", tx.ID,
		"buyer_profile_id", buyerProfileID,
		"store_item_id", item.ID,
		"amount_units", tx.AmountUnits,
	)

	return &CreatedTransaction{Transaction: tx, InvoiceURL: invoiceURL}, nil
}

// markFailed переводит транзакцию в failed; context отвязан от запроса,
// чтобы отмена клиента не оставила транзакцию в pending
func (s *Service) markFailed(ctx context.Context, tx *domain.PaymentTransaction) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	updated, matched, err := s.TransactionRepo.TransitionStatus(ctx, tx.InvoicePayload,
		domain.TransactionStatusPending, domain.TransactionStatusFailed, nil, s.now())
	if err != nil {
		s.Log.Error("failed to mark transaction failed", "error", err, "transaction_id", tx.ID)
		return
	}
	if !matched {
		s.Log.Warn("transaction left pending state before it could be marked failed", "transaction_id", tx.ID)
		return
	}
	*tx = *updated
}

// ValidatePreCheckout отвечает на pre_checkout_query. Состояние транзакции не меняется.
func (s *Service) ValidatePreCheckout(ctx context.Context, q domain.PreCheckoutQuery) (bool, error) {
	tx, err := s.TransactionRepo.GetByPayload(ctx, q.InvoicePayload)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			s.Log.Warn("transaction not found for pre_checkout_query",
				"query_id", q.QueryID,
				"invoice_payload", q.InvoicePayload,
			)
			return false, s.reject(ctx, q.QueryID, rejectNotFound)
		}
		s.Log.Error("failed to load transaction for pre_checkout_query", "error", err, "query_id", q.QueryID)
		return false, errors.Join(err, s.reject(ctx, q.QueryID, rejectTryLater))
	}

	if tx.Status != domain.TransactionStatusPending {
		s.Log.Warn("transaction already processed",
			"query_id", q.QueryID,
			"transaction_id", tx.ID,
			"status", tx.Status,
		)
		return false, s.reject(ctx, q.QueryID, rejectAlreadyProcessed)
	}

	if tx.AmountUnits != q.TotalAmount {
		s.Log.Warn("transaction amount mismatch",
			"query_id", q.QueryID,
			"transaction_id", tx.ID,
			"amount_units", tx.AmountUnits,
			"query_amount", q.TotalAmount,
		)
		return false, s.reject(ctx, q.QueryID, rejectAmountMismatch)
	}

	if tx.Currency != q.Currency {
		s.Log.Warn("transaction currency mismatch",
			"query_id", q.QueryID,
			"transaction_id", tx.ID,
			"currency", tx.Currency,
			"query_currency", q.Currency,
		)
		return false, s.reject(ctx, q.QueryID, rejectCurrencyMismatch)
	}

	if q.FromExternalID != "" {
		buyer, err := s.ProfileRepo.GetByID(ctx, tx.BuyerProfileID)
		if err != nil {
			s.Log.Error("failed to load buyer for pre_checkout_query", "error", err, "transaction_id", tx.ID)
			return false, errors.Join(err, s.reject(ctx, q.QueryID, rejectTryLater))
		}
		if buyer.ExternalID != q.FromExternalID {
			s.Log.Warn("transaction buyer mismatch",
				"query_id", q.QueryID,
				"transaction_id", tx.ID,
				"buyer_external_id", buyer.ExternalID,
				"query_external_id", q.FromExternalID,
			)
			return false, s.reject(ctx, q.QueryID, rejectForeignPayment)
		}
	}

	if err := s.Gateway.AnswerPreCheckout(ctx, q.QueryID, true, nil); err != nil {
		return false, fmt.Errorf("failed to confirm pre_checkout_query: %w", err)
	}
	metrics.PreCheckoutAnswered(true)

	s.Log.Info("pre_checkout_query confirmed",
		"query_id", q.QueryID,
		"transaction_id", tx.ID,
	)
	return true, nil
}

func (s *Service) reject(ctx context.Context, queryID, message string) error {
	metrics.PreCheckoutAnswered(false)
	if err := s.Gateway.AnswerPreCheckout(ctx, queryID, false, &message); err != nil {
		return fmt.Errorf("failed to reject pre_checkout_query: %w", err)
	}
	return nil
}

// ConfirmPayment применяет successful_payment. Повторная доставка того же события
// возвращает ConfirmOutcomeDuplicate без повторной выдачи товара.
func (s *Service) ConfirmPayment(ctx context.Context, p domain.SuccessfulPayment) (domain.ConfirmOutcome, error) {
	chargeID := p.ChargeID
	tx, matched, err := s.TransactionRepo.TransitionStatus(ctx, p.InvoicePayload,
		domain.TransactionStatusPending, domain.TransactionStatusCompleted, &chargeID, s.now())
	if err != nil {
		metrics.PaymentConfirmed("error")
		return domain.ConfirmOutcomeUnknown, fmt.Errorf("failed to complete transaction: %w", err)
	}

	if !matched {
		return s.resolveUnmatched(ctx, p)
	}

	if p.TotalAmount != tx.AmountUnits || p.Currency != tx.Currency {
		s.Log.Warn("successful payment differs from transaction",
			"transaction_id", tx.ID,
			"amount_units", tx.AmountUnits,
			"paid_amount", p.TotalAmount,
			"currency", tx.Currency,
			"paid_currency", p.Currency,
		)
	}

	metrics.PaymentConfirmed("completed")
	s.Log.Info("transaction completed",
		"transaction_id", tx.ID,
		"buyer_profile_id", tx.BuyerProfileID,
		"charge_id", chargeID,
	)

	if _, err := s.Granter.Grant(ctx, tx); err != nil {
		// деньги уже списаны - транзакцию не откатываем, нужен ручной разбор
		s.Log.Error("failed to grant entitlement after payment",
			"error", err,
			"transaction_id", tx.ID,
			"buyer_profile_id", tx.BuyerProfileID,
			"store_item_id", tx.StoreItemID,
		)
		s.alert(ctx, fmt.Sprintf("⚠️ *Payment Completed, Grant Failed*\n\n*Transaction ID:* %s\n*Buyer:* %s\n*Item:* %s\n*Charge ID:* %s\n*Error:* %s",
			tx.ID, tx.BuyerProfileID, tx.StoreItemID, chargeID, err.Error()))
		return domain.ConfirmOutcomeCompleted, fmt.Errorf("%w: transaction %s: %w", ErrGrantFailed, tx.ID, err)
	}

	return domain.ConfirmOutcomeCompleted, nil
}

// resolveUnmatched условный переход не сработал: выясняем почему
func (s *Service) resolveUnmatched(ctx context.Context, p domain.SuccessfulPayment) (domain.ConfirmOutcome, error) {
	tx, err := s.TransactionRepo.GetByPayload(ctx, p.InvoicePayload)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			metrics.PaymentConfirmed("not_found")
			s.Log.Error("successful payment for unknown invoice payload",
				"invoice_payload", p.InvoicePayload,
				"charge_id", p.ChargeID,
			)
			return domain.ConfirmOutcomeUnknown, domain.ErrTransactionNotFound
		}
		metrics.PaymentConfirmed("error")
		return domain.ConfirmOutcomeUnknown, fmt.Errorf("failed to get transaction: %w", err)
	}

	switch tx.Status {
	case domain.TransactionStatusCompleted:
		metrics.PaymentConfirmed("duplicate")
		if tx.PlatformChargeID != nil && *tx.PlatformChargeID != p.ChargeID {
			s.Log.Warn("duplicate successful payment with different charge id",
				"transaction_id", tx.ID,
				"stored_charge_id", *tx.PlatformChargeID,
				"charge_id", p.ChargeID,
			)
		} else {
			s.Log.Info("duplicate successful payment ignored", "transaction_id", tx.ID)
		}
		return domain.ConfirmOutcomeDuplicate, nil

	case domain.TransactionStatusFailed:
		metrics.PaymentConfirmed("invalid_transition")
		s.Log.Error("successful payment for failed transaction",
			"transaction_id", tx.ID,
			"charge_id", p.ChargeID,
		)
		s.alert(ctx, fmt.Sprintf("🚨 *Payment For Failed Transaction*\n\n*Transaction ID:* %s\n*Buyer:* %s\n*Charge ID:* %s\n*Amount:* %d %s",
			tx.ID, tx.BuyerProfileID, p.ChargeID, p.TotalAmount, p.Currency))
		return domain.ConfirmOutcomeUnknown, domain.ErrInvalidTransition

	default:
		// pending, но UPDATE не нашёл строку: гонка с другим писателем, Telegram повторит доставку
		metrics.PaymentConfirmed("error")
		return domain.ConfirmOutcomeUnknown, fmt.Errorf("transaction %s is still %s after conditional update", tx.ID, tx.Status)
	}
}

// GetTransaction статус покупки для опроса из мини-приложения (только владельцу)
func (s *Service) GetTransaction(ctx context.Context, buyerProfileID, transactionID uuid.UUID) (*domain.PaymentTransaction, error) {
	tx, err := s.TransactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.BuyerProfileID != buyerProfileID {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *Service) invoicePhoto(ctx context.Context, item *domain.StoreItem) *string {
	if item.ImageURL == "" || s.Images == nil {
		return nil
	}
	url, err := s.Images.ResolveImageURL(ctx, item.ImageURL)
	if err != nil {
		s.Log.Warn("invoice will be issued without photo", "error", err, "store_item_id", item.ID)
		return nil
	}
	return &url
}

func (s *Service) alert(ctx context.Context, message string) {
	if s.AlerterService == nil {
		return
	}
	if err := s.AlerterService.SendAlert(context.WithoutCancel(ctx), message); err != nil {
		s.Log.Warn("failed to send alert", "error", err)
	}
}

func invoiceDescription(item *domain.StoreItem) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Name
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
