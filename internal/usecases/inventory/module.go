package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/pkg/metrics"
	"github.com/telewall/miniapp-backend/internal/ports/kafka"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
)

type Service struct {
	EntitlementRepo repository.IEntitlementRepo
	ItemRepo        repository.IStoreItemRepo
	Events          kafka.IEventPublisher
	Log             *slog.Logger
	now             func() time.Time
}

func New(
	entitlementRepo repository.IEntitlementRepo,
	itemRepo repository.IStoreItemRepo,
	events kafka.IEventPublisher,
	log *slog.Logger,
) *Service {
	return &Service{
		EntitlementRepo: entitlementRepo,
		ItemRepo:        itemRepo,
		Events:          events,
		Log:             log,
		now:             time.Now,
	}
}

// Grant выдаёт покупателю товар по завершённой транзакции.
// Вызывается только победителем условного перехода pending -> completed;
// уникальный transaction_id в хранилище страхует от повторной выдачи.
func (s *Service) Grant(ctx context.Context, tx *domain.PaymentTransaction) (*domain.GrantedEntitlement, error) {
	item, err := s.ItemRepo.GetByID(ctx, tx.StoreItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store item %s: %w", tx.StoreItemID, err)
	}

	entitlement := &domain.GrantedEntitlement{
		ID:             uuid.New(),
		BuyerProfileID: tx.BuyerProfileID,
		StoreItemID:    tx.StoreItemID,
		TransactionID:  tx.ID,
		ItemName:       item.Name,
		GrantedAt:      s.now(),
		Metadata:       grantMetadata(item, tx),
	}
	if tx.PlatformChargeID != nil {
		entitlement.ChargeID = *tx.PlatformChargeID
	}

	if err := s.EntitlementRepo.Insert(ctx, entitlement); err != nil {
		if errors.Is(err, domain.ErrEntitlementExists) {
			s.Log.Warn("entitlement already exists for transaction", "transaction_id", tx.ID)
			existing, getErr := s.EntitlementRepo.GetByTransactionID(ctx, tx.ID)
			if getErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to save entitlement: %w", err)
	}

	metrics.EntitlementGranted()
	s.Log.Info("entitlement granted",
		"entitlement_id", entitlement.ID,
		"transaction_id", tx.ID,
		"buyer_profile_id", tx.BuyerProfileID,
		"store_item_id", tx.StoreItemID,
	)

	s.publish(ctx, entitlement, tx)
	return entitlement, nil
}

// ListForBuyer выданные покупателю товары, новые первыми
func (s *Service) ListForBuyer(ctx context.Context, buyerProfileID uuid.UUID) ([]domain.GrantedEntitlement, error) {
	return s.EntitlementRepo.ListByBuyer(ctx, buyerProfileID)
}

// publish best effort: выдача уже сохранена, событие не должно её отменять
func (s *Service) publish(ctx context.Context, e *domain.GrantedEntitlement, tx *domain.PaymentTransaction) {
	if s.Events == nil {
		return
	}
	event := domain.EntitlementGrantedEvent{
		EntitlementID:  e.ID,
		TransactionID:  e.TransactionID,
		BuyerProfileID: e.BuyerProfileID,
		StoreItemID:    e.StoreItemID,
		ItemName:       e.ItemName,
		AmountUnits:    tx.AmountUnits,
		Currency:       tx.Currency,
		ChargeID:       e.ChargeID,
		GrantedAt:      e.GrantedAt,
	}
	if err := s.Events.PublishEntitlementGranted(ctx, event); err != nil {
		s.Log.Warn("failed to publish entitlement event",
			"error", err,
			"transaction_id", tx.ID,
		)
	}
}

func grantMetadata(item *domain.StoreItem, tx *domain.PaymentTransaction) domain.JSONMap {
	meta := make(domain.JSONMap, len(item.Metadata)+2)
	for k, v := range item.Metadata {
		meta[k] = v
	}
	meta["amount_units"] = tx.AmountUnits
	meta["currency"] = tx.Currency
	return meta
}
