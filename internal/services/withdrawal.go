package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/shopspring/decimal"
)

var chainAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

var errStatusMoved = errors.New("withdrawal status moved")

// WithdrawalRepository persists payout requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, req *models.WithdrawalRequestDB) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequestDB, error)
	GetPendingByUserID(ctx context.Context, userID uuid.UUID) (*models.WithdrawalRequestDB, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequestDB, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, prev, next models.WithdrawalStatus, rejectionReason *string) (*models.WithdrawalRequestDB, bool, error)
}

// Ledger is the part of LedgerService the withdrawal workflow needs.
type Ledger interface {
	Credit(ctx context.Context, p Posting) (LedgerResult, error)
	Debit(ctx context.Context, p Posting) (LedgerResult, error)
	BankAccount(ctx context.Context, userID, accountID uuid.UUID) (*models.BankAccountDB, error)
	SetTransactionStatus(ctx context.Context, userID uuid.UUID, ref models.Reference, txType models.TransactionType, status models.TransactionStatus) error
}

// Quoter returns a price quote and whether it came from cache.
type Quoter interface {
	GetQuote(ctx context.Context, key string) (models.Quote, bool, error)
}

// SubmitWithdrawal is a user's payout request.
type SubmitWithdrawal struct {
	Kind          models.WithdrawalKind
	Amount        decimal.Decimal
	BankAccountID uuid.UUID // bank payouts
	ChainAddress  string    // crypto payouts
}

// SubmitResult reports the stored request and whether the ledger was debited.
type SubmitResult struct {
	Request *models.WithdrawalRequestDB
	Debited bool
}

// WithdrawalService validates, records and resolves payout requests.
type WithdrawalService struct {
	repo       WithdrawalRepository
	ledger     Ledger
	tx         Transactor
	quoter     Quoter
	notifier   Notifier
	feePercent decimal.Decimal
	now        func() time.Time
}

// NewWithdrawalService creates a WithdrawalService charging feePercent of every payout.
func NewWithdrawalService(
	repo WithdrawalRepository,
	ledger Ledger,
	tx Transactor,
	quoter Quoter,
	notifier Notifier,
	feePercent decimal.Decimal,
) *WithdrawalService {
	return &WithdrawalService{
		repo:       repo,
		ledger:     ledger,
		tx:         tx,
		quoter:     quoter,
		notifier:   notifier,
		feePercent: feePercent,
		now:        time.Now,
	}
}

// Submit validates the request, debits the requested amount and stores the request as Pending.
// A user can only have one Pending request at a time.
func (s *WithdrawalService) Submit(ctx context.Context, userID uuid.UUID, in SubmitWithdrawal) (SubmitResult, error) {
	if userID == uuid.Nil {
		return SubmitResult{}, invalid("user_id", "required")
	}
	if err := validateAmount(in.Amount); err != nil {
		return SubmitResult{}, err
	}

	now := s.now().UTC()
	req := &models.WithdrawalRequestDB{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      in.Kind,
		Amount:    in.Amount,
		Status:    models.WithdrawalPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var destination string
	switch in.Kind {
	case models.WithdrawalBank:
		if in.BankAccountID == uuid.Nil {
			return SubmitResult{}, invalid("bank_account_id", "required")
		}
		acct, err := s.ledger.BankAccount(ctx, userID, in.BankAccountID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return SubmitResult{}, invalid("bank_account_id", "unknown bank account")
			}
			return SubmitResult{}, err
		}
		req.BankAccountID = &acct.ID
		destination = fmt.Sprintf("bank account %s", maskAccount(acct.AccountNumber))
	case models.WithdrawalCrypto:
		addr := strings.TrimSpace(in.ChainAddress)
		if addr == "" {
			return SubmitResult{}, invalid("chain_address", "required")
		}
		if !chainAddressRe.MatchString(addr) {
			return SubmitResult{}, invalid("chain_address", "not a valid address")
		}
		req.ChainAddress = &addr
		destination = "address " + addr
	default:
		return SubmitResult{}, invalid("kind", "must be bank or crypto")
	}

	if _, err := s.repo.GetPendingByUserID(ctx, userID); err == nil {
		return SubmitResult{}, ErrPendingWithdrawalExists
	} else if !errors.Is(err, models.ErrRecordNotFound) {
		logger.Log.Errorw("failed to check pending withdrawals", "userID", userID, "error", err)
		return SubmitResult{}, err
	}

	req.Fee = in.Amount.Mul(s.feePercent).Div(decimal.NewFromInt(100)).Round(2)
	req.NetAmount = in.Amount.Sub(req.Fee)

	if in.Kind == models.WithdrawalCrypto {
		quote, fromCache, err := s.quoter.GetQuote(ctx, models.QuoteETHPrice)
		if err != nil {
			return SubmitResult{}, err
		}
		if !quote.Price.IsPositive() {
			logger.Log.Errorw("quote has a non-positive price", "key", quote.Key, "price", quote.Price)
			return SubmitResult{}, fmt.Errorf("%w: unusable quote %s", ErrUpstreamUnavailable, quote.Key)
		}
		converted := req.NetAmount.DivRound(quote.Price, 8)
		req.ConvertedAmount = &converted
		req.QuoteKey = &quote.Key
		req.QuotePrice = &quote.Price
		logger.Log.Infow("withdrawal priced", "userID", userID, "price", quote.Price, "fromCache", fromCache, "converted", converted)
	}

	// the debit and the request commit together
	err := withinTx(ctx, s.tx, func(ctx context.Context) error {
		if _, err := s.ledger.Debit(ctx, Posting{
			UserID: userID,
			Amount: in.Amount,
			Reason: "withdrawal to " + destination,
			Ref:    models.WithdrawalRef(req.ID),
			Type:   models.TransactionWithdrawal,
			Status: models.TransactionPending,
		}); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, req); err != nil {
			if errors.Is(err, models.ErrUniqueViolation) {
				return ErrPendingWithdrawalExists
			}
			logger.Log.Errorw("failed to store withdrawal request", "userID", userID, "requestID", req.ID, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	logger.Log.Infow("withdrawal submitted", "userID", userID, "requestID", req.ID, "amount", req.Amount, "kind", req.Kind)
	return SubmitResult{Request: req, Debited: true}, nil
}

// Resolve is the admin action moving a Pending request to Processed or Rejected.
// Rejecting returns the debited amount to the wallet.
func (s *WithdrawalService) Resolve(ctx context.Context, requestID uuid.UUID, status, reason string) (*models.WithdrawalRequestDB, error) {
	next, ok := models.ParseWithdrawalStatus(status)
	if !ok {
		return nil, invalid("status", "must be one of Pending, Processed, Rejected")
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		logger.Log.Errorw("failed to load withdrawal request", "requestID", requestID, "error", err)
		return nil, err
	}

	if req.Status == next {
		return req, nil
	}
	if req.Status.Terminal() || next == models.WithdrawalPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.Status, next)
	}

	var rejection *string
	if reason = strings.TrimSpace(reason); next == models.WithdrawalRejected && reason != "" {
		rejection = &reason
	}

	var updated *models.WithdrawalRequestDB
	err = withinTx(ctx, s.tx, func(ctx context.Context) error {
		u, ok, err := s.repo.CompareAndSetStatus(ctx, requestID, models.WithdrawalPending, next, rejection)
		if err != nil {
			return err
		}
		if !ok {
			return errStatusMoved
		}
		updated = u

		ref := models.WithdrawalRef(u.ID)
		link := fmt.Sprintf("/withdrawals/%s", u.ID)
		switch next {
		case models.WithdrawalProcessed:
			if err := s.ledger.SetTransactionStatus(ctx, u.UserID, ref, models.TransactionWithdrawal, models.TransactionCompleted); err != nil {
				return err
			}
			afterCommit(ctx, func(ctx context.Context) {
				s.notifier.Notify(ctx, u.UserID, models.NotificationPaymentCompleted,
					fmt.Sprintf("Your withdrawal of %s has been paid", u.Amount.StringFixed(2)),
					link, ref, models.NotificationExtra{})
			})
		case models.WithdrawalRejected:
			if err := s.ledger.SetTransactionStatus(ctx, u.UserID, ref, models.TransactionWithdrawal, models.TransactionRejected); err != nil {
				return err
			}
			if _, err := s.ledger.Credit(ctx, Posting{
				UserID: u.UserID,
				Amount: u.Amount,
				Reason: "withdrawal rejected, funds returned",
				Ref:    ref,
			}); err != nil {
				return fmt.Errorf("return withdrawn funds: %w", err)
			}
			msg := fmt.Sprintf("Your withdrawal of %s was rejected and the funds were returned to your wallet", u.Amount.StringFixed(2))
			if rejection != nil {
				msg += ": " + *rejection
			}
			afterCommit(ctx, func(ctx context.Context) {
				s.notifier.Notify(ctx, u.UserID, models.NotificationRejected, msg, link, ref,
					models.NotificationExtra{RejectionReason: rejection})
			})
		}
		return nil
	})
	if errors.Is(err, errStatusMoved) {
		current, err := s.repo.GetByID(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if current.Status == next {
			return current, nil
		}
		return nil, fmt.Errorf("%w: request %s is now %s", ErrConflict, requestID, current.Status)
	}
	if err != nil {
		logger.Log.Errorw("failed to resolve withdrawal", "requestID", requestID, "status", next, "error", err)
		return nil, err
	}

	logger.Log.Infow("withdrawal resolved", "requestID", requestID, "status", next)
	return updated, nil
}

// Status returns the caller's request. It never changes anything and is safe to poll.
func (s *WithdrawalService) Status(ctx context.Context, userID, requestID uuid.UUID) (*models.WithdrawalRequestDB, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.UserID != userID {
		return nil, ErrNotFound
	}
	return req, nil
}

// List returns the caller's requests, newest first.
func (s *WithdrawalService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequestDB, error) {
	limit, offset = page(limit, offset)
	reqs, err := s.repo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		logger.Log.Errorw("failed to list withdrawals", "userID", userID, "error", err)
		return nil, err
	}
	return reqs, nil
}

func maskAccount(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
