package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
)

type Service struct {
	ProfileRepo repository.IProfileRepo
	Log         *slog.Logger
	now         func() time.Time
}

func New(profileRepo repository.IProfileRepo, log *slog.Logger) *Service {
	return &Service{
		ProfileRepo: profileRepo,
		Log:         log,
		now:         time.Now,
	}
}

// GetOrCreate возвращает профиль владельца initData, создавая его при первом входе.
// Данные из identity применяются трёхзначным патчем: отсутствующее поле не трогается,
// null очищает, значение перезаписывает.
func (s *Service) GetOrCreate(ctx context.Context, identity *domain.VerifiedIdentity) (*domain.Profile, error) {
	patch := domain.PatchFromIdentity(identity)

	profile, err := s.ProfileRepo.GetByExternalID(ctx, identity.ExternalID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		now := s.now()
		candidate := &domain.Profile{
			ID:         uuid.New(),
			ExternalID: identity.ExternalID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		candidate.ApplyPatch(patch)

		profile, err = s.ProfileRepo.CreateIfAbsent(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		if profile.ID == candidate.ID {
			s.Log.Info("profile registered",
				"profile_id", profile.ID,
				"external_id", profile.ExternalID,
			)
			return profile, nil
		}
		// параллельный запрос создал профиль раньше, дальше обычное обновление
	} else if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if !profile.ApplyPatch(patch) {
		return profile, nil
	}

	profile.UpdatedAt = s.now()
	if err := s.ProfileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.Log.Debug("profile synced from initData", "profile_id", profile.ID)
	return profile, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return s.ProfileRepo.GetByID(ctx, id)
}
