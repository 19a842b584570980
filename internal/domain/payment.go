package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CurrencyStars валюта Telegram Stars
const CurrencyStars = "XTR"

// TransactionStatus статус платёжной транзакции
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"   // создана, ожидает оплаты
	TransactionStatusCompleted TransactionStatus = "completed" // оплачена, продукт выдан
	TransactionStatusFailed    TransactionStatus = "failed"    // invoice не был выставлен
)

// IsTerminal терминальные статусы не имеют переходов
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

func (s TransactionStatus) String() string {
	return string(s)
}

// JSONMap произвольные метаданные (JSONB) с поддержкой sql.Scanner
type JSONMap map[string]interface{}

// Scan реализует sql.Scanner для сканирования JSONB из БД
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(JSONMap)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(JSONMap)
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Value реализует driver.Valuer для сохранения в БД
func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	return json.Marshal(m)
}

// PaymentTransaction покупка за звёзды.
// AmountUnits копируется из цены товара при создании и больше не меняется.
type PaymentTransaction struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	BuyerProfileID   uuid.UUID         `json:"buyer_profile_id" db:"buyer_profile_id"`
	StoreItemID      uuid.UUID         `json:"store_item_id" db:"store_item_id"`
	InvoicePayload   string            `json:"invoice_payload" db:"invoice_payload"` // ключ корреляции с webhook
	PlatformChargeID *string           `json:"platform_charge_id,omitempty" db:"platform_charge_id"`
	AmountUnits      int64             `json:"amount_units" db:"amount_units"`
	Currency         string            `json:"currency" db:"currency"`
	Status           TransactionStatus `json:"status" db:"status"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// Clone возвращает копию транзакции (in-memory хранилище не отдаёт наружу свои указатели)
func (t *PaymentTransaction) Clone() *PaymentTransaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.PlatformChargeID != nil {
		chargeID := *t.PlatformChargeID
		c.PlatformChargeID = &chargeID
	}
	return &c
}

// PreCheckoutQuery входящий pre_checkout_query (advisory)
type PreCheckoutQuery struct {
	QueryID        string
	FromExternalID string
	InvoicePayload string
	TotalAmount    int64
	Currency       string
}

// SuccessfulPayment входящее уведомление об успешной оплате
type SuccessfulPayment struct {
	InvoicePayload string
	ChargeID       string
	TotalAmount    int64
	Currency       string
}

// ConfirmOutcome результат применения successful_payment
type ConfirmOutcome int

const (
	ConfirmOutcomeUnknown   ConfirmOutcome = iota
	ConfirmOutcomeCompleted                // реальный переход pending -> completed
	ConfirmOutcomeDuplicate                // повторная доставка, уже completed
)

func (o ConfirmOutcome) String() string {
	switch o {
	case ConfirmOutcomeCompleted:
		return "completed"
	case ConfirmOutcomeDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}
