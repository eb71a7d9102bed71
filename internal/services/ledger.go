package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=ledger.go -destination=ledger_mock.go -package=services

// WalletWriter defines wallet mutations. Every method joins the transaction carried by ctx.
type WalletWriter interface {
	EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.WalletDB, error)
	LockWallet(ctx context.Context, userID uuid.UUID) error
	SaveCredit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	SaveDebit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	SaveTransaction(ctx context.Context, txn *models.TransactionDB) error
	UpdateTransactionStatus(ctx context.Context, userID uuid.UUID, ref models.Reference, txType models.TransactionType, status models.TransactionStatus) error
	SaveBankAccount(ctx context.Context, acct *models.BankAccountDB) error
	DeleteBankAccount(ctx context.Context, userID, accountID uuid.UUID) error
}

// WalletReader defines wallet read operations.
type WalletReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.WalletDB, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error)
	ListBankAccounts(ctx context.Context, userID uuid.UUID) ([]models.BankAccountDB, error)
	GetBankAccount(ctx context.Context, userID, accountID uuid.UUID) (*models.BankAccountDB, error)
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier records a notification as a best-effort side effect.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ models.NotificationType, message, link string, ref models.Reference, extra models.NotificationExtra)
}

// Posting describes one ledger mutation.
type Posting struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Reason string
	Ref    models.Reference
	// Type is credit for Credit; debit or withdrawal for Debit (debit when empty).
	Type models.TransactionType
	// Status of the appended entry, completed when empty.
	Status models.TransactionStatus
}

// LedgerResult is the outcome of a committed posting.
type LedgerResult struct {
	Balance     decimal.Decimal
	Transaction models.TransactionDB
}

// BankAccountInput is a payout account as supplied by the account directory.
type BankAccountInput struct {
	AccountNumber string
	BankCode      string
	BankName      string
	AccountName   string
}

// LedgerService owns user balances and the append-only transaction log.
type LedgerService struct {
	writer   WalletWriter
	reader   WalletReader
	tx       Transactor
	notifier Notifier
	minDebit decimal.Decimal
	now      func() time.Time
}

// NewLedgerService creates a LedgerService. Debits smaller than minDebit are rejected.
func NewLedgerService(
	writer WalletWriter,
	reader WalletReader,
	tx Transactor,
	notifier Notifier,
	minDebit decimal.Decimal,
) *LedgerService {
	return &LedgerService{
		writer:   writer,
		reader:   reader,
		tx:       tx,
		notifier: notifier,
		minDebit: minDebit,
		now:      time.Now,
	}
}

// EnsureWallet returns the user's wallet, creating it on first use.
func (s *LedgerService) EnsureWallet(ctx context.Context, userID uuid.UUID) (*models.WalletDB, error) {
	if userID == uuid.Nil {
		return nil, invalid("user_id", "required")
	}
	wallet, err := s.writer.EnsureWallet(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to ensure wallet", "userID", userID, "error", err)
		return nil, err
	}
	return wallet, nil
}

// Balance returns the current balance of the user's wallet.
func (s *LedgerService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := s.EnsureWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// Transactions returns the user's ledger entries, newest first.
func (s *LedgerService) Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error) {
	limit, offset = page(limit, offset)
	txns, err := s.reader.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		logger.Log.Errorw("failed to list transactions", "userID", userID, "error", err)
		return nil, err
	}
	return txns, nil
}

// Credit adds p.Amount to the user's balance.
func (s *LedgerService) Credit(ctx context.Context, p Posting) (LedgerResult, error) {
	p.Type = models.TransactionCredit
	if err := validatePosting(p); err != nil {
		return LedgerResult{}, err
	}
	return s.apply(ctx, p)
}

// Debit takes p.Amount out of the user's balance. The balance never goes negative and
// amounts below the configured floor are refused; in both cases nothing is written.
func (s *LedgerService) Debit(ctx context.Context, p Posting) (LedgerResult, error) {
	if p.Type == "" {
		p.Type = models.TransactionDebit
	}
	if !p.Type.IsDebit() {
		return LedgerResult{}, invalid("type", "not a debit type "+string(p.Type))
	}
	if err := validatePosting(p); err != nil {
		return LedgerResult{}, err
	}
	if p.Amount.LessThan(s.minDebit) {
		return LedgerResult{}, fmt.Errorf("%w: %s is below %s", ErrBelowMinimum, p.Amount.StringFixed(2), s.minDebit.StringFixed(2))
	}
	return s.apply(ctx, p)
}

func validatePosting(p Posting) error {
	if p.UserID == uuid.Nil {
		return invalid("user_id", "required")
	}
	if err := validateAmount(p.Amount); err != nil {
		return err
	}
	if !p.Ref.Kind.Valid() {
		return invalid("on_model", "unsupported reference kind "+string(p.Ref.Kind))
	}
	return nil
}

// validateAmount accepts positive amounts in whole cents, the precision balances are stored at.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("amount", "must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return invalid("amount", "at most two decimal places")
	}
	return nil
}

// apply performs the balance update and the log append as one unit, then announces it.
func (s *LedgerService) apply(ctx context.Context, p Posting) (LedgerResult, error) {
	if p.Status == "" {
		p.Status = models.TransactionCompleted
	}

	var res LedgerResult
	err := withinTx(ctx, s.tx, func(ctx context.Context) error {
		if _, err := s.writer.EnsureWallet(ctx, p.UserID); err != nil {
			return err
		}

		var (
			balance decimal.Decimal
			err     error
		)
		if p.Type.IsDebit() {
			balance, err = s.writer.SaveDebit(ctx, p.UserID, p.Amount)
			if errors.Is(err, models.ErrRecordNotFound) {
				return ErrInsufficientFunds
			}
		} else {
			balance, err = s.writer.SaveCredit(ctx, p.UserID, p.Amount)
		}
		if err != nil {
			return err
		}

		txn := models.TransactionDB{
			ID:           uuid.New(),
			UserID:       p.UserID,
			Type:         p.Type,
			Amount:       p.Amount,
			Description:  p.Reason,
			Status:       p.Status,
			BalanceAfter: balance,
			CreatedAt:    s.now().UTC(),
			Reference:    p.Ref,
		}
		if err := s.writer.SaveTransaction(ctx, &txn); err != nil {
			if errors.Is(err, models.ErrUniqueViolation) {
				return ErrDuplicateTransaction
			}
			return err
		}

		res = LedgerResult{Balance: balance, Transaction: txn}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrDuplicateTransaction) {
			logger.Log.Warnw("ledger posting refused", "userID", p.UserID, "type", p.Type, "amount", p.Amount, "ref", p.Ref.Describe(), "error", err)
		} else {
			logger.Log.Errorw("ledger posting failed", "userID", p.UserID, "type", p.Type, "amount", p.Amount, "ref", p.Ref.Describe(), "error", err)
		}
		return LedgerResult{}, err
	}

	logger.Log.Infow("ledger posting applied", "userID", p.UserID, "type", p.Type, "amount", p.Amount, "balance", res.Balance)
	afterCommit(ctx, func(ctx context.Context) {
		s.notifier.Notify(ctx, p.UserID, models.TransactionNotification(p.Type), postingMessage(p), "/wallet/transactions", p.Ref, models.NotificationExtra{})
	})
	return res, nil
}

func postingMessage(p Posting) string {
	amount := p.Amount.StringFixed(2)
	var msg string
	switch p.Type {
	case models.TransactionCredit:
		msg = fmt.Sprintf("Your wallet was credited with %s", amount)
	case models.TransactionWithdrawal:
		msg = fmt.Sprintf("%s was reserved from your wallet for a withdrawal", amount)
	default:
		msg = fmt.Sprintf("Your wallet was debited with %s", amount)
	}
	if reason := strings.TrimSpace(p.Reason); reason != "" {
		msg += ": " + reason
	}
	return msg
}

// SetTransactionStatus updates the status of the entry posted for ref.
func (s *LedgerService) SetTransactionStatus(
	ctx context.Context,
	userID uuid.UUID,
	ref models.Reference,
	txType models.TransactionType,
	status models.TransactionStatus,
) error {
	if err := s.writer.UpdateTransactionStatus(ctx, userID, ref, txType, status); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return ErrNotFound
		}
		logger.Log.Errorw("failed to update transaction status", "userID", userID, "ref", ref.Describe(), "error", err)
		return err
	}
	return nil
}

// AddBankAccount attaches a payout account. A wallet holds at most models.MaxBankAccounts
// accounts, each unique by account number and bank code.
func (s *LedgerService) AddBankAccount(ctx context.Context, userID uuid.UUID, in BankAccountInput) (*models.BankAccountDB, error) {
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.BankCode = strings.TrimSpace(in.BankCode)
	if userID == uuid.Nil {
		return nil, invalid("user_id", "required")
	}
	if in.AccountNumber == "" {
		return nil, invalid("account_number", "required")
	}
	if in.BankCode == "" {
		return nil, invalid("bank_code", "required")
	}

	acct := &models.BankAccountDB{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: in.AccountNumber,
		BankCode:      in.BankCode,
		BankName:      strings.TrimSpace(in.BankName),
		AccountName:   strings.TrimSpace(in.AccountName),
		CreatedAt:     s.now().UTC(),
	}

	err := withinTx(ctx, s.tx, func(ctx context.Context) error {
		if _, err := s.writer.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		if err := s.writer.LockWallet(ctx, userID); err != nil {
			return err
		}
		existing, err := s.reader.ListBankAccounts(ctx, userID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.AccountNumber == acct.AccountNumber && e.BankCode == acct.BankCode {
				return ErrDuplicateBankAccount
			}
		}
		if len(existing) >= models.MaxBankAccounts {
			return ErrBankAccountLimit
		}
		if err := s.writer.SaveBankAccount(ctx, acct); err != nil {
			if errors.Is(err, models.ErrUniqueViolation) {
				return ErrDuplicateBankAccount
			}
			return err
		}
		return nil
	})
	if err != nil {
		logger.Log.Warnw("failed to add bank account", "userID", userID, "error", err)
		return nil, err
	}
	return acct, nil
}

// ListBankAccounts returns the user's payout accounts.
func (s *LedgerService) ListBankAccounts(ctx context.Context, userID uuid.UUID) ([]models.BankAccountDB, error) {
	accounts, err := s.reader.ListBankAccounts(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to list bank accounts", "userID", userID, "error", err)
		return nil, err
	}
	return accounts, nil
}

// BankAccount returns one of the user's payout accounts.
func (s *LedgerService) BankAccount(ctx context.Context, userID, accountID uuid.UUID) (*models.BankAccountDB, error) {
	acct, err := s.reader.GetBankAccount(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return acct, nil
}

// DeleteBankAccount removes one of the user's payout accounts.
func (s *LedgerService) DeleteBankAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	if err := s.writer.DeleteBankAccount(ctx, userID, accountID); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return ErrNotFound
		}
		logger.Log.Errorw("failed to delete bank account", "userID", userID, "accountID", accountID, "error", err)
		return err
	}
	return nil
}
