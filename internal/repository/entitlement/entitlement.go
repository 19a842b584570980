package entitlementRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/pg"
	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/persistence"
	ports "github.com/telewall/miniapp-backend/internal/ports/repository"
)

type entitlementColumns struct {
	TableName      string
	ID             string
	BuyerProfileID string
	StoreItemID    string
	TransactionID  string
	ItemName       string
	ChargeID       string
	GrantedAt      string
	Metadata       string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns entitlementColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.IEntitlementRepo {
	return &Repository{
		db:  db,
		Log: log,
		columns: entitlementColumns{
			TableName:      "granted_entitlements",
			ID:             "id",
			BuyerProfileID: "buyer_profile_id",
			StoreItemID:    "store_item_id",
			TransactionID:  "transaction_id",
			ItemName:       "item_name",
			ChargeID:       "charge_id",
			GrantedAt:      "granted_at",
			Metadata:       "metadata",
		},
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.BuyerProfileID,
		r.columns.StoreItemID,
		r.columns.TransactionID,
		r.columns.ItemName,
		r.columns.ChargeID,
		r.columns.GrantedAt,
		r.columns.Metadata,
	)
}

// Insert записывает выдачу; уникальность transaction_id защищает от двойной выдачи
func (r *Repository) Insert(ctx context.Context, e *domain.GrantedEntitlement) error {
	metadataValue, err := e.Metadata.Value()
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.columns.TableName,
		r.allColumns(),
	)

	err = r.db.Exec(ctx, query,
		e.ID,
		e.BuyerProfileID,
		e.StoreItemID,
		e.TransactionID,
		e.ItemName,
		e.ChargeID,
		e.GrantedAt,
		metadataValue,
	)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return domain.ErrEntitlementExists
		}
		r.Log.Error("failed to insert entitlement",
			"error", err,
			"transaction_id", e.TransactionID,
		)
		return fmt.Errorf("failed to insert entitlement: %w", err)
	}
	return nil
}

// ListByBuyer выдачи покупателя, новые первыми
func (r *Repository) ListByBuyer(ctx context.Context, buyerProfileID uuid.UUID) ([]domain.GrantedEntitlement, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.BuyerProfileID,
		r.columns.GrantedAt,
	)

	result := make([]domain.GrantedEntitlement, 0)
	if err := r.db.Select(ctx, &result, query, buyerProfileID); err != nil {
		r.Log.Error("failed to list entitlements", "error", err, "buyer_profile_id", buyerProfileID)
		return nil, fmt.Errorf("failed to list entitlements: %w", err)
	}
	return result, nil
}

func (r *Repository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.GrantedEntitlement, error) {
	var e domain.GrantedEntitlement

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.TransactionID,
	)

	if err := r.db.Get(ctx, &e, query, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}
	return &e, nil
}
