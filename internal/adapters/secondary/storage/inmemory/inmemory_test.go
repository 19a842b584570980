package inmemory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/cache"
)

func TestTransactionRepo_InsertCollision(t *testing.T) {
	repo := NewTransactionRepo()
	ctx := context.Background()

	tx := &domain.PaymentTransaction{ID: uuid.New(), InvoicePayload: "p", Status: domain.TransactionStatusPending}
	require.NoError(t, repo.Insert(ctx, tx))

	dup := &domain.PaymentTransaction{ID: uuid.New(), InvoicePayload: "p", Status: domain.TransactionStatusPending}
	require.ErrorIs(t, repo.Insert(ctx, dup), domain.ErrPayloadCollision)

	stored, err := repo.GetByPayload(ctx, "p")
	require.NoError(t, err)
	require.Equal(t, tx.ID, stored.ID)
}

func TestTransactionRepo_TransitionIsConditional(t *testing.T) {
	repo := NewTransactionRepo()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &domain.PaymentTransaction{
		ID: uuid.New(), InvoicePayload: "p", Status: domain.TransactionStatusPending,
	}))

	charge := "ch"
	const workers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, matched, err := repo.TransitionStatus(ctx, "p", domain.TransactionStatusPending, domain.TransactionStatusCompleted, &charge, time.Now())
			require.NoError(t, err)
			if matched {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())

	stored, err := repo.GetByPayload(ctx, "p")
	require.NoError(t, err)
	require.Equal(t, domain.TransactionStatusCompleted, stored.Status)
	require.Equal(t, "ch", *stored.PlatformChargeID)

	_, matched, err := repo.TransitionStatus(ctx, "missing", domain.TransactionStatusPending, domain.TransactionStatusCompleted, nil, time.Now())
	require.NoError(t, err)
	require.False(t, matched)
}

func TestTransactionRepo_ReturnsCopies(t *testing.T) {
	repo := NewTransactionRepo()
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, repo.Insert(ctx, &domain.PaymentTransaction{ID: id, InvoicePayload: "p", AmountUnits: 10}))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	got.AmountUnits = 999

	again, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(10), again.AmountUnits)
}

func TestTransactionRepo_CountPendingOlderThan(t *testing.T) {
	repo := NewTransactionRepo()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, &domain.PaymentTransaction{ID: uuid.New(), InvoicePayload: "old", Status: domain.TransactionStatusPending, CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, repo.Insert(ctx, &domain.PaymentTransaction{ID: uuid.New(), InvoicePayload: "new", Status: domain.TransactionStatusPending, CreatedAt: now}))
	require.NoError(t, repo.Insert(ctx, &domain.PaymentTransaction{ID: uuid.New(), InvoicePayload: "done", Status: domain.TransactionStatusCompleted, CreatedAt: now.Add(-2 * time.Hour)}))

	count, err := repo.CountPendingOlderThan(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestStoreItemRepo_ListActive(t *testing.T) {
	repo := NewStoreItemRepo()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.StoreItem{ID: uuid.New(), Name: "B", PriceUnits: 20, Category: "skins", Active: true}))
	require.NoError(t, repo.Upsert(ctx, &domain.StoreItem{ID: uuid.New(), Name: "A", PriceUnits: 10, Category: "boosts", Active: true}))
	require.NoError(t, repo.Upsert(ctx, &domain.StoreItem{ID: uuid.New(), Name: "C", PriceUnits: 5, Category: "skins", Active: false}))

	all, err := repo.ListActive(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "A", all[0].Name)

	skins, err := repo.ListActive(ctx, "skins")
	require.NoError(t, err)
	require.Len(t, skins, 1)
	require.Equal(t, "B", skins[0].Name)
}

func TestEntitlementRepo_UniquePerTransaction(t *testing.T) {
	repo := NewEntitlementRepo()
	ctx := context.Background()
	txID := uuid.New()

	require.NoError(t, repo.Insert(ctx, &domain.GrantedEntitlement{ID: uuid.New(), TransactionID: txID}))
	require.ErrorIs(t, repo.Insert(ctx, &domain.GrantedEntitlement{ID: uuid.New(), TransactionID: txID}), domain.ErrEntitlementExists)
	require.Equal(t, 1, repo.Count())
}

func TestProfileRepo_CreateIfAbsent(t *testing.T) {
	repo := NewProfileRepo()
	ctx := context.Background()

	first, err := repo.CreateIfAbsent(ctx, &domain.Profile{ID: uuid.New(), ExternalID: "42", DisplayName: "A"})
	require.NoError(t, err)

	second, err := repo.CreateIfAbsent(ctx, &domain.Profile{ID: uuid.New(), ExternalID: "42", DisplayName: "B"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "A", second.DisplayName)

	require.ErrorIs(t, repo.Update(ctx, &domain.Profile{ID: uuid.New()}), domain.ErrProfileNotFound)
}

func TestCache_TTL(t *testing.T) {
	c := NewCache(0)
	defer c.Close()
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Set(ctx, "forever", "v", 0))

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	ok, err := c.Exists(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Delete(ctx, "forever"))
	ok, err = c.Exists(ctx, "forever")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCache_Sweep(t *testing.T) {
	c := NewCache(0)
	defer c.Close()
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "k", "v", time.Second))

	now = now.Add(time.Minute)
	c.sweep()
	require.Equal(t, 0, c.entries.Size())
}

func TestCache_ConcurrentClose(t *testing.T) {
	c := NewCache(time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, c.Close())
		}()
	}
	wg.Wait()

	require.NoError(t, c.Close())
}
