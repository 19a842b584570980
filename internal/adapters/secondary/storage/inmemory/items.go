package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
)

type StoreItemRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.StoreItem
}

func NewStoreItemRepo() *StoreItemRepo {
	return &StoreItemRepo{items: make(map[uuid.UUID]domain.StoreItem)}
}

var _ repository.IStoreItemRepo = (*StoreItemRepo)(nil)

func (r *StoreItemRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.StoreItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return copyItem(item), nil
}

func (r *StoreItemRepo) ListActive(_ context.Context, category string) ([]domain.StoreItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StoreItem, 0, len(r.items))
	for _, item := range r.items {
		if !item.Active || (category != "" && item.Category != category) {
			continue
		}
		result = append(result, *copyItem(item))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PriceUnits != result[j].PriceUnits {
			return result[i].PriceUnits < result[j].PriceUnits
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *StoreItemRepo) Upsert(_ context.Context, item *domain.StoreItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = *copyItem(*item)
	return nil
}

func copyItem(item domain.StoreItem) *domain.StoreItem {
	if item.Metadata != nil {
		meta := make(domain.JSONMap, len(item.Metadata))
		for k, v := range item.Metadata {
			meta[k] = v
		}
		item.Metadata = meta
	}
	return &item
}
