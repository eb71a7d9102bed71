package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
)

const settlementColumns = `id, user_id, calculated_total_amount, status, cancel_reason, cr_image, created_at, updated_at`

// SettlementRepository reads and transitions settlement items.
type SettlementRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewSettlementRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *SettlementRepository {
	return &SettlementRepository{db: db, txGetter: txGetter}
}

// GetByID loads one item.
func (r *SettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SettlementItemDB, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlement_items WHERE id = $1`

	var item models.SettlementItemDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &item, query, id)
	logQuery(query, []any{id}, item.Status, err)
	if err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// CompareAndSetStatus writes upd only if the stored status still equals prev.
// The boolean result is false when another writer changed the status first.
func (r *SettlementRepository) CompareAndSetStatus(
	ctx context.Context,
	id uuid.UUID,
	prev models.SettlementStatus,
	upd models.SettlementUpdate,
) (*models.SettlementItemDB, bool, error) {
	query := `
		UPDATE settlement_items
		SET status = $3, cancel_reason = $4, cr_image = $5, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + settlementColumns

	var item models.SettlementItemDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &item, query,
		id, prev, upd.Status, upd.CancelReason, upd.CRImage)
	logQuery(query, []any{id, prev, upd.Status}, item.Status, err)
	if err != nil {
		err = translateError(err)
		if err == models.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &item, true, nil
}

// Create stores a new item as handed over by the upload flow.
func (r *SettlementRepository) Create(ctx context.Context, item *models.SettlementItemDB) error {
	const query = `
		INSERT INTO settlement_items (id, user_id, calculated_total_amount, status, cancel_reason, cr_image, created_at, updated_at)
		VALUES (:id, :user_id, :calculated_total_amount, :status, :cancel_reason, :cr_image, :created_at, :updated_at)
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db, r.txGetter), query, item)
	logQuery(query, []any{item.ID, item.UserID, item.CalculatedTotalAmount}, nil, err)
	return translateError(err)
}
