package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
)

// ITransactionRepo хранилище платёжных транзакций.
// Все переходы статуса - атомарные условные обновления по (invoice_payload, expected_status).
type ITransactionRepo interface {
	// Insert вставляет новую транзакцию; дубликат invoice_payload -> domain.ErrPayloadCollision
	Insert(ctx context.Context, tx *domain.PaymentTransaction) error
	// GetByPayload -> domain.ErrTransactionNotFound если нет
	GetByPayload(ctx context.Context, payload string) (*domain.PaymentTransaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentTransaction, error)
	// TransitionStatus меняет статус только если текущий равен from.
	// matched=false - ни одна строка не подошла (транзакции нет или статус другой).
	TransitionStatus(ctx context.Context, payload string, from, to domain.TransactionStatus, chargeID *string, at time.Time) (tx *domain.PaymentTransaction, matched bool, err error)
	// CountPendingOlderThan количество pending транзакций, созданных раньше before
	CountPendingOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// IStoreItemRepo хранилище товаров витрины
type IStoreItemRepo interface {
	// GetByID возвращает товар независимо от active; domain.ErrItemNotFound если нет
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StoreItem, error)
	ListActive(ctx context.Context, category string) ([]domain.StoreItem, error)
	Upsert(ctx context.Context, item *domain.StoreItem) error
}

// IEntitlementRepo хранилище выданных товаров
type IEntitlementRepo interface {
	// Insert -> domain.ErrEntitlementExists если по транзакции уже есть запись
	Insert(ctx context.Context, entitlement *domain.GrantedEntitlement) error
	ListByBuyer(ctx context.Context, buyerProfileID uuid.UUID) ([]domain.GrantedEntitlement, error)
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.GrantedEntitlement, error)
}
