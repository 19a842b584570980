package paymentRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telewall/miniapp-backend/internal/adapters/secondary/storage/pg"
	"github.com/telewall/miniapp-backend/internal/domain"
	"github.com/telewall/miniapp-backend/internal/ports/persistence"
	ports "github.com/telewall/miniapp-backend/internal/ports/repository"
)

type transactionColumns struct {
	TableName        string
	ID               string
	BuyerProfileID   string
	StoreItemID      string
	InvoicePayload   string
	PlatformChargeID string
	AmountUnits      string
	Currency         string
	Status           string
	CreatedAt        string
	UpdatedAt        string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns transactionColumns
}

// New создаёт репозиторий платёжных транзакций
func New(db persistence.Persistence, log *slog.Logger) ports.ITransactionRepo {
	cols := transactionColumns{
		TableName:        "payment_transactions",
		ID:               "id",
		BuyerProfileID:   "buyer_profile_id",
		StoreItemID:      "store_item_id",
		InvoicePayload:   "invoice_payload",
		PlatformChargeID: "platform_charge_id",
		AmountUnits:      "amount_units",
		Currency:         "currency",
		Status:           "status",
		CreatedAt:        "created_at",
		UpdatedAt:        "updated_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.BuyerProfileID,
		r.columns.StoreItemID,
		r.columns.InvoicePayload,
		r.columns.PlatformChargeID,
		r.columns.AmountUnits,
		r.columns.Currency,
		r.columns.Status,
		r.columns.CreatedAt,
		r.columns.UpdatedAt,
	)
}

// Insert создаёт транзакцию в статусе pending
func (r *Repository) Insert(ctx context.Context, tx *domain.PaymentTransaction) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.columns.TableName,
		r.allColumns(),
	)

	err := r.db.Exec(ctx, query,
		tx.ID,
		tx.BuyerProfileID,
		tx.StoreItemID,
		tx.InvoicePayload,
		tx.PlatformChargeID,
		tx.AmountUnits,
		tx.Currency,
		string(tx.Status),
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			r.Log.Warn("invoice payload collision", "invoice_payload", tx.InvoicePayload)
			return domain.ErrPayloadCollision
		}
		r.Log.Error("failed to insert transaction",
			"error", err,
			"transaction_id", tx.ID,
			"buyer_profile_id", tx.BuyerProfileID,
		)
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	r.Log.Debug("transaction created",
		"transaction_id", tx.ID,
		"invoice_payload", tx.InvoicePayload,
		"amount_units", tx.AmountUnits,
	)
	return nil
}

// GetByPayload ищет транзакцию по invoice payload без фильтра по статусу
func (r *Repository) GetByPayload(ctx context.Context, payload string) (*domain.PaymentTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.InvoicePayload,
	)
	return r.getOne(ctx, query, payload)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID,
	)
	return r.getOne(ctx, query, id)
}

func (r *Repository) getOne(ctx context.Context, query string, arg interface{}) (*domain.PaymentTransaction, error) {
	var tx domain.PaymentTransaction
	err := r.db.Get(ctx, &tx, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		r.Log.Error("failed to get transaction", "error", err, "key", arg)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// TransitionStatus условный переход: UPDATE ... WHERE payload AND status = from RETURNING.
// Из нескольких конкурентных вызовов строку обновит ровно один.
func (r *Repository) TransitionStatus(
	ctx context.Context,
	payload string,
	from, to domain.TransactionStatus,
	chargeID *string,
	at time.Time,
) (*domain.PaymentTransaction, bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $1, %s = COALESCE($2, %s), %s = $3
		WHERE %s = $4 AND %s = $5
		RETURNING %s`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.PlatformChargeID, r.columns.PlatformChargeID,
		r.columns.UpdatedAt,
		r.columns.InvoicePayload,
		r.columns.Status,
		r.allColumns(),
	)

	var tx domain.PaymentTransaction
	err := r.db.Get(ctx, &tx, query, string(to), chargeID, at, payload, string(from))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		r.Log.Error("failed to transition transaction",
			"error", err,
			"invoice_payload", payload,
			"from", from,
			"to", to,
		)
		return nil, false, fmt.Errorf("failed to transition transaction: %w", err)
	}

	r.Log.Debug("transaction transitioned",
		"transaction_id", tx.ID,
		"from", from,
		"to", to,
	)
	return &tx, true, nil
}

// CountPendingOlderThan количество зависших pending транзакций
func (r *Repository) CountPendingOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s < $2`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.CreatedAt,
	)

	var count int64
	if err := r.db.Get(ctx, &count, query, string(domain.TransactionStatusPending), before); err != nil {
		r.Log.Error("failed to count stale pending transactions", "error", err)
		return 0, fmt.Errorf("failed to count pending transactions: %w", err)
	}
	return count, nil
}
