package domain

import (
	"time"

	"github.com/google/uuid"
)

// StoreItem товар витрины. Цена читается в момент создания транзакции.
type StoreItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	PriceUnits  int64     `json:"price_units" db:"price_units"` // количество звёзд
	Category    string    `json:"category" db:"category"`
	ImageURL    string    `json:"image_url" db:"image_url"` // http(s) URL или s3://ключ
	Metadata    JSONMap   `json:"metadata,omitempty" db:"metadata"`
	Active      bool      `json:"active" db:"active"`
}

// GrantedEntitlement выданный покупателю товар.
// ItemName денормализован, чтобы правки товара не меняли историю покупок.
type GrantedEntitlement struct {
	ID             uuid.UUID `json:"id" db:"id"`
	BuyerProfileID uuid.UUID `json:"buyer_profile_id" db:"buyer_profile_id"`
	StoreItemID    uuid.UUID `json:"store_item_id" db:"store_item_id"`
	TransactionID  uuid.UUID `json:"transaction_id" db:"transaction_id"`
	ItemName       string    `json:"item_name" db:"item_name"`
	ChargeID       string    `json:"charge_id" db:"charge_id"`
	GrantedAt      time.Time `json:"granted_at" db:"granted_at"`
	Metadata       JSONMap   `json:"metadata,omitempty" db:"metadata"`
}

// EntitlementGrantedEvent событие для внешних потребителей (kafka)
type EntitlementGrantedEvent struct {
	EntitlementID  uuid.UUID `json:"entitlement_id"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	BuyerProfileID uuid.UUID `json:"buyer_profile_id"`
	StoreItemID    uuid.UUID `json:"store_item_id"`
	ItemName       string    `json:"item_name"`
	AmountUnits    int64     `json:"amount_units"`
	Currency       string    `json:"currency"`
	ChargeID       string    `json:"charge_id"`
	GrantedAt      time.Time `json:"granted_at"`
}
