package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/inmemory"
	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/pkg/logger"
)

func TestGetOrCreate_CreatesOnce(t *testing.T) {
	svc := New(inmemory.NewProfileRepo(), logger.Discard())
	ctx := context.Background()

	identity := &domain.VerifiedIdentity{
		ExternalID:  "42",
		DisplayName: "Ann",
		Username:    domain.Some("ann"),
		PhotoURL:    domain.Some("https://t.me/a.jpg"),
	}

	first, err := svc.GetOrCreate(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, "Ann", first.DisplayName)
	require.Equal(t, "ann", *first.Username)

	second, err := svc.GetOrCreate(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestGetOrCreate_TriStatePatch(t *testing.T) {
	repo := inmemory.NewProfileRepo()
	svc := New(repo, logger.Discard())
	now := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	created, err := svc.GetOrCreate(ctx, &domain.VerifiedIdentity{
		ExternalID:  "7",
		DisplayName: "Bob",
		Username:    domain.Some("bob"),
		PhotoURL:    domain.Some("https://t.me/b.jpg"),
	})
	require.NoError(t, err)

	// username не пришёл - сохраняется, photo_url = null - очищается
	now = now.Add(time.Minute)
	updated, err := svc.GetOrCreate(ctx, &domain.VerifiedIdentity{
		ExternalID:  "7",
		DisplayName: "Bobby",
		PhotoURL:    domain.Null[string](),
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Bobby", updated.DisplayName)
	require.Equal(t, "bob", *updated.Username)
	require.Nil(t, updated.PhotoURL)
	require.Equal(t, now, updated.UpdatedAt)

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, stored.PhotoURL)
}

func TestGet_NotFound(t *testing.T) {
	svc := New(inmemory.NewProfileRepo(), logger.Discard())
	_, err := svc.GetOrCreate(context.Background(), &domain.VerifiedIdentity{ExternalID: "1"})
	require.NoError(t, err)

	_, err = svc.ProfileRepo.GetByExternalID(context.Background(), "2")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}
