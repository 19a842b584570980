package repository

import (
	"context"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/google/uuid"
)

// IProfileRepo хранилище профилей пользователей мини-приложения
type IProfileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Profile, error)
	// CreateIfAbsent вставляет профиль, если профиля с таким external_id нет, и возвращает актуальный
	CreateIfAbsent(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
}
