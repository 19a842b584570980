package storeRepo

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

type itemColumns struct {
	TableName   string
	ID          string
	Name        string
	Description string
	PriceUnits  string
	Category    string
	ImageURL    string
	Metadata    string
	Active      string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns itemColumns
}

// New создаёт репозиторий товаров витрины
func New(db persistence.Persistence, log *slog.Logger) ports.IStoreItemRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: itemColumns{
			TableName:   "store_items",
			ID:          "id",
			Name:        "name",
			Description: "description",
			PriceUnits:  "price_units",
			Category:    "category",
			ImageURL:    "image_url",
			Metadata:    "metadata",
			Active:      "active",
		},
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.Name,
		r.columns.Description,
		r.columns.PriceUnits,
		r.columns.Category,
		r.columns.ImageURL,
		r.columns.Metadata,
		r.columns.Active,
	)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoreItem, error) {
	var item domain.StoreItem

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
	)

	if err := r.db.Get(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		r.Log.Error("failed to get store item", "error", err, "store_item_id", id)
		return nil, fmt.Errorf("failed to get store item: %w", err)
	}
	return &item, nil
}

// ListActive активные товары; пустая категория - все категории
func (r *Repository) ListActive(ctx context.Context, category string) ([]domain.StoreItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = TRUE AND ($1 = '' OR %s = $1) ORDER BY %s, %s`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.Active,
		r.columns.Category,
		r.columns.PriceUnits,
		r.columns.Name,
	)

	items := make([]domain.StoreItem, 0)
	if err := r.db.Select(ctx, &items, query, category); err != nil {
		r.Log.Error("failed to list store items", "error", err, "category", category)
		return nil, fmt.Errorf("failed to list store items: %w", err)
	}
	return items, nil
}

// Upsert создаёт или полностью обновляет товар по id
func (r *Repository) Upsert(ctx context.Context, item *domain.StoreItem) error {
	metadataValue, err := item.Metadata.Value()
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (%[3]s) DO UPDATE SET
			%[4]s = EXCLUDED.%[4]s,
			%[5]s = EXCLUDED.%[5]s,
			%[6]s = EXCLUDED.%[6]s,
			%[7]s = EXCLUDED.%[7]s,
			%[8]s = EXCLUDED.%[8]s,
			%[9]s = EXCLUDED.%[9]s,
			%[10]s = EXCLUDED.%[10]s`,
		r.columns.TableName,
		r.allColumns(),
		r.columns.ID,
		r.columns.Name,
		r.columns.Description,
		r.columns.PriceUnits,
		r.columns.Category,
		r.columns.ImageURL,
		r.columns.Metadata,
		r.columns.Active,
	)

	err = r.db.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.PriceUnits,
		item.Category,
		item.ImageURL,
		metadataValue,
		item.Active,
	)
	if err != nil {
		r.Log.Error("failed to upsert store item", "error", err, "store_item_id", item.ID)
		return fmt.Errorf("failed to upsert store item: %w", err)
	}

	r.Log.Debug("store item saved", "store_item_id", item.ID, "price_units", item.PriceUnits)
	return nil
}
