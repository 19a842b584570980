package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/inmemory"
	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/pkg/logger"
)

type recordingPublisher struct {
	events []domain.EntitlementGrantedEvent
	err    error
}

func (p *recordingPublisher) PublishEntitlementGranted(_ context.Context, e domain.EntitlementGrantedEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func setup(t *testing.T) (*Service, *inmemory.StoreItemRepo, *recordingPublisher, *domain.StoreItem) {
	t.Helper()
	items := inmemory.NewStoreItemRepo()
	item := &domain.StoreItem{ID: uuid.New(), Name: "Golden Sword", PriceUnits: 100, Active: true, Metadata: domain.JSONMap{"rarity": "epic"}}
	require.NoError(t, items.Upsert(context.Background(), item))

	pub := &recordingPublisher{}
	return New(inmemory.NewEntitlementRepo(), items, pub, logger.Discard()), items, pub, item
}

func completedTx(item *domain.StoreItem) *domain.PaymentTransaction {
	charge := "charge-1"
	return &domain.PaymentTransaction{
		ID:               uuid.New(),
		BuyerProfileID:   uuid.New(),
		StoreItemID:      item.ID,
		InvoicePayload:   "tw_x",
		PlatformChargeID: &charge,
		AmountUnits:      100,
		Currency:         domain.CurrencyStars,
		Status:           domain.TransactionStatusCompleted,
	}
}

func TestGrant_DenormalizesItemName(t *testing.T) {
	svc, items, pub, item := setup(t)
	ctx := context.Background()
	tx := completedTx(item)

	e, err := svc.Grant(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, "Golden Sword", e.ItemName)
	require.Equal(t, "charge-1", e.ChargeID)
	require.Equal(t, "epic", e.Metadata["rarity"])

	item.Name = "Rusty Sword"
	require.NoError(t, items.Upsert(ctx, item))

	list, err := svc.ListForBuyer(ctx, tx.BuyerProfileID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Golden Sword", list[0].ItemName)

	require.Len(t, pub.events, 1)
	require.Equal(t, tx.ID, pub.events[0].TransactionID)
	require.Equal(t, int64(100), pub.events[0].AmountUnits)
}

func TestGrant_SecondCallReturnsExisting(t *testing.T) {
	svc, _, _, item := setup(t)
	ctx := context.Background()
	tx := completedTx(item)

	first, err := svc.Grant(ctx, tx)
	require.NoError(t, err)
	second, err := svc.Grant(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestGrant_PublishFailureDoesNotFailGrant(t *testing.T) {
	svc, _, pub, item := setup(t)
	pub.err = errors.New("broker down")
	svc.now = func() time.Time { return time.Unix(1, 0) }

	e, err := svc.Grant(context.Background(), completedTx(item))
	require.NoError(t, err)
	require.Equal(t, time.Unix(1, 0), e.GrantedAt)
}

func TestGrant_UnknownItem(t *testing.T) {
	svc, _, _, _ := setup(t)
	_, err := svc.Grant(context.Background(), completedTx(&domain.StoreItem{ID: uuid.New()}))
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}
