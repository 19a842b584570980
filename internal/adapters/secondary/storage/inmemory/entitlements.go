package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
)

type EntitlementRepo struct {
	mu            sync.RWMutex
	byTransaction map[uuid.UUID]domain.GrantedEntitlement
}

func NewEntitlementRepo() *EntitlementRepo {
	return &EntitlementRepo{byTransaction: make(map[uuid.UUID]domain.GrantedEntitlement)}
}

var _ repository.IEntitlementRepo = (*EntitlementRepo)(nil)

func (r *EntitlementRepo) Insert(_ context.Context, e *domain.GrantedEntitlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byTransaction[e.TransactionID]; exists {
		return domain.ErrEntitlementExists
	}
	r.byTransaction[e.TransactionID] = *e
	return nil
}

func (r *EntitlementRepo) ListByBuyer(_ context.Context, buyerProfileID uuid.UUID) ([]domain.GrantedEntitlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.GrantedEntitlement, 0)
	for _, e := range r.byTransaction {
		if e.BuyerProfileID == buyerProfileID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].GrantedAt.After(result[j].GrantedAt)
	})
	return result, nil
}

func (r *EntitlementRepo) GetByTransactionID(_ context.Context, transactionID uuid.UUID) (*domain.GrantedEntitlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byTransaction[transactionID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Count количество выдач (для тестов)
func (r *EntitlementRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTransaction)
}
