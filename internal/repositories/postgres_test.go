package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// --- Setup Postgres ---
func setupPostgres(t *testing.T) (*sqlx.DB, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	logger.Initialize("debug")
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	require.NoError(t, Migrate(ctx, db))
	// applying twice must be harmless
	require.NoError(t, Migrate(ctx, db))

	return db, func() {
		db.Close()
		container.Terminate(ctx)
	}
}

type pgStores struct {
	tx          *TxManager
	writer      *WalletWriterRepository
	reader      *WalletReaderRepository
	settlements *SettlementRepository
	withdrawals *WithdrawalRepository
	inbox       *NotificationRepository
}

func newPGStores(db *sqlx.DB) pgStores {
	return pgStores{
		tx:          NewTxManager(db),
		writer:      NewWalletWriterRepository(db, GetTxFromContext),
		reader:      NewWalletReaderRepository(db, GetTxFromContext),
		settlements: NewSettlementRepository(db, GetTxFromContext),
		withdrawals: NewWithdrawalRepository(db, GetTxFromContext),
		inbox:       NewNotificationRepository(db),
	}
}

func (s pgStores) credit(t *testing.T, userID uuid.UUID, amount string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.writer.EnsureWallet(ctx, userID)
	require.NoError(t, err)
	_, err = s.writer.SaveCredit(ctx, userID, decimal.RequireFromString(amount))
	require.NoError(t, err)
}

func TestPostgres(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()
	s := newPGStores(db)

	t.Run("guarded debit never overdraws", func(t *testing.T) {
		ctx := context.Background()
		userID := uuid.New()
		s.credit(t, userID, "1000")

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.writer.SaveDebit(ctx, userID, decimal.NewFromInt(100))
				if err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, models.ErrRecordNotFound)
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, ok)
		wallet, err := s.reader.GetByUserID(ctx, userID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.IsZero())
	})

	t.Run("duplicate reference rolls back the balance change", func(t *testing.T) {
		ctx := context.Background()
		userID := uuid.New()
		s.credit(t, userID, "100")
		ref := models.SettlementRef(uuid.New())

		post := func() error {
			return s.tx.WithinTx(ctx, func(ctx context.Context) error {
				balance, err := s.writer.SaveCredit(ctx, userID, decimal.NewFromInt(50))
				if err != nil {
					return err
				}
				return s.writer.SaveTransaction(ctx, &models.TransactionDB{
					ID:           uuid.New(),
					UserID:       userID,
					Type:         models.TransactionCredit,
					Amount:       decimal.NewFromInt(50),
					Status:       models.TransactionCompleted,
					BalanceAfter: balance,
					CreatedAt:    time.Now().UTC(),
					Reference:    ref,
				})
			})
		}

		require.NoError(t, post())
		assert.ErrorIs(t, post(), models.ErrUniqueViolation)

		wallet, err := s.reader.GetByUserID(ctx, userID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(150).Equal(wallet.Balance))

		txns, err := s.reader.ListTransactions(ctx, userID, 10, 0)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, ref, txns[0].Reference)

		require.NoError(t, s.writer.UpdateTransactionStatus(ctx, userID, ref, models.TransactionCredit, models.TransactionRejected))
		assert.ErrorIs(t, s.writer.UpdateTransactionStatus(ctx, userID, ref, models.TransactionDebit, models.TransactionRejected), models.ErrRecordNotFound)
	})

	t.Run("one pending withdrawal per user", func(t *testing.T) {
		ctx := context.Background()
		userID := uuid.New()
		newReq := func() *models.WithdrawalRequestDB {
			now := time.Now().UTC()
			return &models.WithdrawalRequestDB{
				ID:        uuid.New(),
				UserID:    userID,
				Kind:      models.WithdrawalBank,
				Amount:    decimal.NewFromInt(2000),
				Fee:       decimal.NewFromInt(30),
				NetAmount: decimal.NewFromInt(1970),
				Status:    models.WithdrawalPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}

		first := newReq()
		require.NoError(t, s.withdrawals.Create(ctx, first))
		assert.ErrorIs(t, s.withdrawals.Create(ctx, newReq()), models.ErrUniqueViolation)

		pending, err := s.withdrawals.GetPendingByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, pending.ID)

		reason := "name mismatch"
		rejected, ok, err := s.withdrawals.CompareAndSetStatus(ctx, first.ID, models.WithdrawalPending, models.WithdrawalRejected, &reason)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, reason, *rejected.RejectionReason)

		_, ok, err = s.withdrawals.CompareAndSetStatus(ctx, first.ID, models.WithdrawalPending, models.WithdrawalProcessed, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.withdrawals.Create(ctx, newReq()))
		list, err := s.withdrawals.ListByUserID(ctx, userID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("settlement compare and set admits one winner", func(t *testing.T) {
		ctx := context.Background()
		now := time.Now().UTC()
		item := &models.SettlementItemDB{
			ID:                    uuid.New(),
			UserID:                uuid.New(),
			CalculatedTotalAmount: decimal.NewFromInt(7500),
			Status:                models.SettlementProcessing,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		require.NoError(t, s.settlements.Create(ctx, item))

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok, err := s.settlements.CompareAndSetStatus(ctx, item.ID, models.SettlementProcessing,
					models.SettlementUpdate{Status: models.SettlementDone})
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, winners)
		stored, err := s.settlements.GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SettlementDone, stored.Status)
	})

	t.Run("bank accounts", func(t *testing.T) {
		ctx := context.Background()
		userID := uuid.New()
		acct := &models.BankAccountDB{ID: uuid.New(), UserID: userID, AccountNumber: "0123456789", BankCode: "058", CreatedAt: time.Now().UTC()}

		require.NoError(t, s.writer.SaveBankAccount(ctx, acct))
		dup := *acct
		dup.ID = uuid.New()
		assert.ErrorIs(t, s.writer.SaveBankAccount(ctx, &dup), models.ErrUniqueViolation)

		got, err := s.reader.GetBankAccount(ctx, userID, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, "0123456789", got.AccountNumber)

		_, err = s.reader.GetBankAccount(ctx, uuid.New(), acct.ID)
		assert.ErrorIs(t, err, models.ErrRecordNotFound)

		assert.ErrorIs(t, s.writer.DeleteBankAccount(ctx, uuid.New(), acct.ID), models.ErrRecordNotFound)
		require.NoError(t, s.writer.DeleteBankAccount(ctx, userID, acct.ID))
	})

	t.Run("notification filters", func(t *testing.T) {
		ctx := context.Background()
		userID := uuid.New()
		for i, typ := range []models.NotificationType{models.NotificationCredit, models.NotificationMarketUploadDone, models.NotificationReportReply} {
			require.NoError(t, s.inbox.Create(ctx, &models.NotificationDB{
				ID:        uuid.New(),
				UserID:    userID,
				Type:      typ,
				Message:   "m",
				CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
				Reference: models.WalletRef(userID),
			}))
		}

		all, err := s.inbox.List(ctx, userID, models.NotificationFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, models.NotificationReportReply, all[0].Type)

		tx, err := s.inbox.List(ctx, userID, models.NotificationFilter{Category: "transaction", Limit: 10})
		require.NoError(t, err)
		require.Len(t, tx, 1)
		assert.Equal(t, models.NotificationCredit, tx[0].Type)

		require.NoError(t, s.inbox.MarkRead(ctx, tx[0].ID, userID))
		unread, err := s.inbox.List(ctx, userID, models.NotificationFilter{UnreadOnly: true, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, unread, 2)

		n, err := s.inbox.DeleteAll(ctx, userID)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})
}
