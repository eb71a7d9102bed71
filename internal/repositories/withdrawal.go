package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
)

const withdrawalColumns = `id, user_id, kind, amount, fee, net_amount, converted_amount, quote_key, quote_price,
	bank_account_id, chain_address, status, rejection_reason, created_at, updated_at`

// WithdrawalRepository persists payout requests.
type WithdrawalRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewWithdrawalRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *WithdrawalRepository {
	return &WithdrawalRepository{db: db, txGetter: txGetter}
}

// Create inserts a new request. A second Pending request for the same user violates
// the partial unique index and yields models.ErrUniqueViolation.
func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequestDB) error {
	const query = `
		INSERT INTO withdrawal_requests
			(id, user_id, kind, amount, fee, net_amount, converted_amount, quote_key, quote_price,
			 bank_account_id, chain_address, status, rejection_reason, created_at, updated_at)
		VALUES
			(:id, :user_id, :kind, :amount, :fee, :net_amount, :converted_amount, :quote_key, :quote_price,
			 :bank_account_id, :chain_address, :status, :rejection_reason, :created_at, :updated_at)
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db, r.txGetter), query, req)
	logQuery(query, []any{req.ID, req.UserID, req.Kind, req.Amount}, nil, err)
	return translateError(err)
}

// GetByID loads one request.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequestDB, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	var req models.WithdrawalRequestDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &req, query, id)
	logQuery(query, []any{id}, req.Status, err)
	if err != nil {
		return nil, translateError(err)
	}
	return &req, nil
}

// GetPendingByUserID returns the user's active request, models.ErrRecordNotFound if none.
func (r *WithdrawalRepository) GetPendingByUserID(ctx context.Context, userID uuid.UUID) (*models.WithdrawalRequestDB, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE user_id = $1 AND status = $2`

	var req models.WithdrawalRequestDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &req, query, userID, models.WithdrawalPending)
	logQuery(query, []any{userID}, req.ID, err)
	if err != nil {
		return nil, translateError(err)
	}
	return &req, nil
}

// ListByUserID returns the user's requests, newest first.
func (r *WithdrawalRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequestDB, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	reqs := []models.WithdrawalRequestDB{}
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &reqs, query, userID, limit, offset)
	logQuery(query, []any{userID, limit, offset}, len(reqs), err)
	return reqs, translateError(err)
}

// CompareAndSetStatus moves the request from prev to next. The boolean result is false
// when the stored status no longer equals prev.
func (r *WithdrawalRepository) CompareAndSetStatus(
	ctx context.Context,
	id uuid.UUID,
	prev, next models.WithdrawalStatus,
	rejectionReason *string,
) (*models.WithdrawalRequestDB, bool, error) {
	query := `
		UPDATE withdrawal_requests
		SET status = $3, rejection_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + withdrawalColumns

	var req models.WithdrawalRequestDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &req, query, id, prev, next, rejectionReason)
	logQuery(query, []any{id, prev, next}, req.Status, err)
	if err != nil {
		err = translateError(err)
		if err == models.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &req, true, nil
}
