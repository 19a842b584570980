package profileRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/persistence"
	ports "github.com/telewall/miniapp-backend/internal/ports/repository"
)

type profileColumns struct {
	TableName   string
	ID          string
	ExternalID  string
	Username    string
	DisplayName string
	PhotoURL    string
	CreatedAt   string
	UpdatedAt   string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns profileColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.IProfileRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: profileColumns{
			TableName:   "profiles",
			ID:          "id",
			ExternalID:  "external_id",
			Username:    "username",
			DisplayName: "display_name",
			PhotoURL:    "photo_url",
			CreatedAt:   "created_at",
			UpdatedAt:   "updated_at",
		},
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.ExternalID,
		r.columns.Username,
		r.columns.DisplayName,
		r.columns.PhotoURL,
		r.columns.CreatedAt,
		r.columns.UpdatedAt,
	)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
	)
	return r.getOne(ctx, query, id)
}

func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ExternalID,
	)
	return r.getOne(ctx, query, externalID)
}

func (r *Repository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.db.Get(ctx, &profile, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		r.Log.Error("failed to get profile", "error", err, "key", arg)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// CreateIfAbsent INSERT ... ON CONFLICT DO NOTHING, затем чтение победившей строки
func (r *Repository) CreateIfAbsent(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (%s) DO NOTHING`,
		r.columns.TableName,
		r.allColumns(),
		r.columns.ExternalID,
	)

	inserted, err := r.db.ExecWithResult(ctx, query,
		profile.ID,
		profile.ExternalID,
		profile.Username,
		profile.DisplayName,
		profile.PhotoURL,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		r.Log.Error("failed to create profile", "error", err, "external_id", profile.ExternalID)
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if inserted == 1 {
		r.Log.Info("profile created", "profile_id", profile.ID, "external_id", profile.ExternalID)
	}

	return r.GetByExternalID(ctx, profile.ExternalID)
}

func (r *Repository) Update(ctx context.Context, profile *domain.Profile) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3, %s = $4 WHERE %s = $5`,
		r.columns.TableName,
		r.columns.Username,
		r.columns.DisplayName,
		r.columns.PhotoURL,
		r.columns.UpdatedAt,
		r.columns.ID,
	)

	affected, err := r.db.ExecWithResult(ctx, query,
		profile.Username,
		profile.DisplayName,
		profile.PhotoURL,
		profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		r.Log.Error("failed to update profile", "error", err, "profile_id", profile.ID)
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if affected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
