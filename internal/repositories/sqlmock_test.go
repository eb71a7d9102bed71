package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var settlementRowColumns = []string{"id", "user_id", "calculated_total_amount", "status", "cancel_reason", "cr_image", "created_at", "updated_at"}

func TestSettlementRepository_CompareAndSetStatus(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		setup     func(mock sqlmock.Sqlmock)
		wantOK    bool
		wantErr   bool
		wantState models.SettlementStatus
	}{
		{
			name: "status matched",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE settlement_items`).
					WithArgs(sqlmock.AnyArg(), "PROCESSING", "DONE", nil, nil).
					WillReturnRows(sqlmock.NewRows(settlementRowColumns).
						AddRow(id.String(), userID.String(), "7500.00", "DONE", nil, nil, now, now))
			},
			wantOK:    true,
			wantState: models.SettlementDone,
		},
		{
			name: "status moved",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE settlement_items`).
					WillReturnRows(sqlmock.NewRows(settlementRowColumns))
			},
		},
		{
			name: "database error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE settlement_items`).WillReturnError(errors.New("conn reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setup(mock)

			repo := NewSettlementRepository(db, GetTxFromContext)
			item, ok, err := repo.CompareAndSetStatus(context.Background(), id, models.SettlementProcessing,
				models.SettlementUpdate{Status: models.SettlementDone})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, item)
				assert.Equal(t, tt.wantState, item.Status)
				assert.True(t, decimal.NewFromInt(7500).Equal(item.CalculatedTotalAmount))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWalletWriterRepository_SaveDebitGuard(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectQuery(`UPDATE wallets\s+SET balance = balance - \$2`).
		WithArgs(userID.String(), "2000").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))

	_, err := NewWalletWriterRepository(db, GetTxFromContext).SaveDebit(context.Background(), userID, decimal.NewFromInt(2000))
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletWriterRepository_UpdateTransactionStatus(t *testing.T) {
	userID := uuid.New()
	ref := models.WithdrawalRef(uuid.New())

	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "updated", affected: 1},
		{name: "no entry", affected: 0, wantErr: models.ErrRecordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(`UPDATE wallet_transactions`).
				WithArgs(userID.String(), "WithdrawalRequest", ref.ID.String(), "withdrawal", "completed").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := NewWalletWriterRepository(db, GetTxFromContext).
				UpdateTransactionStatus(context.Background(), userID, ref, models.TransactionWithdrawal, models.TransactionCompleted)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNotificationRepository_OwnerScopedMutations(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()

	t.Run("mark read of foreign notification", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE id = \$1 AND user_id = \$2`).
			WithArgs(id.String(), userID.String()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewNotificationRepository(db).MarkRead(context.Background(), id, userID)
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mark all read", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE user_id = \$1 AND is_read = FALSE`).
			WithArgs(userID.String()).
			WillReturnResult(sqlmock.NewResult(0, 4))

		n, err := NewNotificationRepository(db).MarkAllRead(context.Background(), userID)
		assert.NoError(t, err)
		assert.EqualValues(t, 4, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete all", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM notifications WHERE user_id = \$1`).
			WithArgs(userID.String()).
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := NewNotificationRepository(db).DeleteAll(context.Background(), userID)
		assert.NoError(t, err)
		assert.EqualValues(t, 2, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWithdrawalRepository_GetPendingNone(t *testing.T) {
	db, mock := newMockDB(t)
	userID := uuid.New()

	mock.ExpectQuery(`FROM withdrawal_requests WHERE user_id = \$1 AND status = \$2`).
		WithArgs(userID.String(), "Pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewWithdrawalRepository(db, GetTxFromContext).GetPendingByUserID(context.Background(), userID)
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
