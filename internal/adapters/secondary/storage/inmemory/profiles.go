package inmemory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/repository"
)

type ProfileRepo struct {
	mu           sync.RWMutex
	byID         map[uuid.UUID]domain.Profile
	byExternalID map[string]uuid.UUID
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{
		byID:         make(map[uuid.UUID]domain.Profile),
		byExternalID: make(map[string]uuid.UUID),
	}
}

var _ repository.IProfileRepo = (*ProfileRepo)(nil)

func (r *ProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (r *ProfileRepo) GetByExternalID(_ context.Context, externalID string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternalID[externalID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p := r.byID[id]
	return &p, nil
}

func (r *ProfileRepo) CreateIfAbsent(_ context.Context, profile *domain.Profile) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byExternalID[profile.ExternalID]; ok {
		p := r.byID[id]
		return &p, nil
	}
	r.byID[profile.ID] = *profile
	r.byExternalID[profile.ExternalID] = profile.ID
	p := *profile
	return &p, nil
}

func (r *ProfileRepo) Update(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[profile.ID]; !ok {
		return domain.ErrProfileNotFound
	}
	r.byID[profile.ID] = *profile
	return nil
}
