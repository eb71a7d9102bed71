package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

// WalletWriterRepository handles wallet write operations
type WalletWriterRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewWalletWriterRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *WalletWriterRepository {
	return &WalletWriterRepository{db: db, txGetter: txGetter}
}

// EnsureWallet creates the user's wallet with a zero balance unless it already exists.
func (r *WalletWriterRepository) EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.WalletDB, error) {
	const insert = `
		INSERT INTO wallets (user_id, balance, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	const query = `
		SELECT user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	ex := executor(ctx, r.db, r.txGetter)
	_, err := ex.ExecContext(ctx, insert, userID)
	logQuery(insert, []any{userID}, nil, err)
	if err != nil {
		return nil, translateError(err)
	}

	var wallet models.WalletDB
	err = sqlx.GetContext(ctx, ex, &wallet, query, userID)
	logQuery(query, []any{userID}, wallet.Balance, err)
	if err != nil {
		return nil, translateError(err)
	}
	return &wallet, nil
}

// LockWallet takes a row lock on the wallet for the rest of the current transaction.
func (r *WalletWriterRepository) LockWallet(ctx context.Context, userID uuid.UUID) error {
	const query = `SELECT user_id FROM wallets WHERE user_id = $1 FOR UPDATE`

	var id uuid.UUID
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &id, query, userID)
	logQuery(query, []any{userID}, id, err)
	return translateError(err)
}

// SaveCredit increases the balance and returns the new value.
func (r *WalletWriterRepository) SaveCredit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	const query = `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`

	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &balance, query, userID, amount)
	logQuery(query, []any{userID, amount}, balance, err)
	return balance, translateError(err)
}

// SaveDebit decreases the balance only while it stays non-negative.
// A guarded miss is reported as models.ErrRecordNotFound.
func (r *WalletWriterRepository) SaveDebit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	const query = `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &balance, query, userID, amount)
	logQuery(query, []any{userID, amount}, balance, err)
	return balance, translateError(err)
}

// SaveTransaction appends an entry to the transaction log.
func (r *WalletWriterRepository) SaveTransaction(ctx context.Context, txn *models.TransactionDB) error {
	const query = `
		INSERT INTO wallet_transactions
			(id, user_id, type, amount, description, ref_kind, ref_id, status, balance_after, created_at)
		VALUES
			(:id, :user_id, :type, :amount, :description, :ref_kind, :ref_id, :status, :balance_after, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db, r.txGetter), query, txn)
	logQuery(query, []any{txn.ID, txn.UserID, txn.Type, txn.Amount, txn.Reference}, nil, err)
	return translateError(err)
}

// UpdateTransactionStatus changes the status of the entry posted for ref with the given type.
func (r *WalletWriterRepository) UpdateTransactionStatus(
	ctx context.Context,
	userID uuid.UUID,
	ref models.Reference,
	txType models.TransactionType,
	status models.TransactionStatus,
) error {
	const query = `
		UPDATE wallet_transactions
		SET status = $5
		WHERE user_id = $1 AND ref_kind = $2 AND ref_id = $3 AND type = $4
	`

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, userID, ref.Kind, ref.ID, txType, status)
	logQuery(query, []any{userID, ref, txType, status}, nil, err)
	return affectedOne(res, err)
}

// SaveBankAccount attaches a payout account to the wallet.
func (r *WalletWriterRepository) SaveBankAccount(ctx context.Context, acct *models.BankAccountDB) error {
	const query = `
		INSERT INTO bank_accounts (id, user_id, account_number, bank_code, bank_name, account_name, created_at)
		VALUES (:id, :user_id, :account_number, :bank_code, :bank_name, :account_name, :created_at)
	`

	_, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db, r.txGetter), query, acct)
	logQuery(query, []any{acct.ID, acct.UserID, acct.AccountNumber, acct.BankCode}, nil, err)
	return translateError(err)
}

// DeleteBankAccount removes an account owned by userID.
func (r *WalletWriterRepository) DeleteBankAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	const query = `DELETE FROM bank_accounts WHERE id = $1 AND user_id = $2`

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, accountID, userID)
	logQuery(query, []any{accountID, userID}, nil, err)
	return affectedOne(res, err)
}

// WalletReaderRepository handles wallet read operations
type WalletReaderRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewWalletReaderRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *WalletReaderRepository {
	return &WalletReaderRepository{db: db, txGetter: txGetter}
}

// GetByUserID retrieves the wallet of a user.
func (r *WalletReaderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.WalletDB, error) {
	const query = `
		SELECT user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var wallet models.WalletDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &wallet, query, userID)
	logQuery(query, []any{userID}, wallet.Balance, err)
	if err != nil {
		return nil, translateError(err)
	}
	return &wallet, nil
}

// ListTransactions returns the newest entries first.
func (r *WalletReaderRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	const query = `
		SELECT id, user_id, type, amount, description, ref_kind, ref_id, status, balance_after, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	txns := []models.TransactionDB{}
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &txns, query, userID, limit, offset)
	logQuery(query, []any{userID, limit, offset}, len(txns), err)
	return txns, translateError(err)
}

// ListBankAccounts returns the user's accounts in the order they were added.
func (r *WalletReaderRepository) ListBankAccounts(ctx context.Context, userID uuid.UUID) ([]models.BankAccountDB, error) {
	const query = `
		SELECT id, user_id, account_number, bank_code, bank_name, account_name, created_at
		FROM bank_accounts
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	accounts := []models.BankAccountDB{}
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &accounts, query, userID)
	logQuery(query, []any{userID}, len(accounts), err)
	return accounts, translateError(err)
}

// GetBankAccount returns one account owned by userID.
func (r *WalletReaderRepository) GetBankAccount(ctx context.Context, userID, accountID uuid.UUID) (*models.BankAccountDB, error) {
	const query = `
		SELECT id, user_id, account_number, bank_code, bank_name, account_name, created_at
		FROM bank_accounts
		WHERE id = $1 AND user_id = $2
	`

	var acct models.BankAccountDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &acct, query, accountID, userID)
	logQuery(query, []any{accountID, userID}, acct.ID, err)
	if err != nil {
		return nil, translateError(err)
	}
	return &acct, nil
}
