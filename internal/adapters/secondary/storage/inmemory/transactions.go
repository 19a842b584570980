package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
)

// TransactionRepo in-memory хранилище транзакций.
// Условный переход выполняется под одной блокировкой, как UPDATE ... WHERE status в Postgres.
type TransactionRepo struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*domain.PaymentTransaction
	byPayload map[string]uuid.UUID
}

func NewTransactionRepo() *TransactionRepo {
	return &TransactionRepo{
		byID:      make(map[uuid.UUID]*domain.PaymentTransaction),
		byPayload: make(map[string]uuid.UUID),
	}
}

var _ repository.ITransactionRepo = (*TransactionRepo)(nil)

func (r *TransactionRepo) Insert(_ context.Context, tx *domain.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byPayload[tx.InvoicePayload]; exists {
		return domain.ErrPayloadCollision
	}
	r.byID[tx.ID] = tx.Clone()
	r.byPayload[tx.InvoicePayload] = tx.ID
	return nil
}

func (r *TransactionRepo) GetByPayload(_ context.Context, payload string) (*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPayload[payload]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *TransactionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (r *TransactionRepo) TransitionStatus(
	_ context.Context,
	payload string,
	from, to domain.TransactionStatus,
	chargeID *string,
	at time.Time,
) (*domain.PaymentTransaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byPayload[payload]
	if !ok {
		return nil, false, nil
	}
	tx := r.byID[id]
	if tx.Status != from {
		return nil, false, nil
	}

	tx.Status = to
	if chargeID != nil {
		c := *chargeID
		tx.PlatformChargeID = &c
	}
	tx.UpdatedAt = at
	return tx.Clone(), true, nil
}

func (r *TransactionRepo) CountPendingOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, tx := range r.byID {
		if tx.Status == domain.TransactionStatusPending && tx.CreatedAt.Before(before) {
			count++
		}
	}
	return count, nil
}
