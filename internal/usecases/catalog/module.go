package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
)

// Service витрина: чтение для мини-приложения и управление товарами для админки
type Service struct {
	ItemRepo repository.IStoreItemRepo
	Log      *slog.Logger
}

func New(itemRepo repository.IStoreItemRepo, log *slog.Logger) *Service {
	return &Service{
		ItemRepo: itemRepo,
		Log:      log,
	}
}

// ListActive активные товары, category="" - все категории
func (s *Service) ListActive(ctx context.Context, category string) ([]domain.StoreItem, error) {
	items, err := s.ItemRepo.ListActive(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list store items: %w", err)
	}
	if items == nil {
		items = []domain.StoreItem{}
	}
	return items, nil
}

// Get товар по id, в том числе неактивный
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.StoreItem, error) {
	item, err := s.ItemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get store item: %w", err)
	}
	return item, nil
}

// Upsert создаёт или обновляет товар. Цена существующих транзакций не меняется.
func (s *Service) Upsert(ctx context.Context, item *domain.StoreItem) error {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)

	if item.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidItem)
	}
	if item.PriceUnits <= 0 {
		return fmt.Errorf("%w: price_units must be positive", domain.ErrInvalidItem)
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	if err := s.ItemRepo.Upsert(ctx, item); err != nil {
		s.Log.Error("failed to upsert store item", "error", err, "store_item_id", item.ID)
		return fmt.Errorf("failed to upsert store item: %w", err)
	}

	s.Log.Info("store item saved",
		"store_item_id", item.ID,
		"price_units", item.PriceUnits,
		"active", item.Active,
	)
	return nil
}
