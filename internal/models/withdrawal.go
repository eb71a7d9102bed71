package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalKind selects the payout rail.
type WithdrawalKind string

const (
	WithdrawalBank   WithdrawalKind = "bank"
	WithdrawalCrypto WithdrawalKind = "crypto"
)

// WithdrawalStatus is the admin-driven state of a payout request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "Pending"
	WithdrawalProcessed WithdrawalStatus = "Processed"
	WithdrawalRejected  WithdrawalStatus = "Rejected"
)

// ParseWithdrawalStatus normalizes admin input. "Paid" is an alias of Processed.
func ParseWithdrawalStatus(s string) (WithdrawalStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return WithdrawalPending, true
	case "processed", "paid":
		return WithdrawalProcessed, true
	case "rejected":
		return WithdrawalRejected, true
	}
	return "", false
}

// Terminal reports whether s ends the request lifecycle.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalProcessed || s == WithdrawalRejected
}

// WithdrawalRequestDB is a user's off-platform payout request.
type WithdrawalRequestDB struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	UserID          uuid.UUID        `json:"user_id" db:"user_id"`
	Kind            WithdrawalKind   `json:"kind" db:"kind"`
	// Amount is the requested amount in base currency, debited at submission.
	Amount          decimal.Decimal  `json:"amount" db:"amount"`
	Fee             decimal.Decimal  `json:"fee" db:"fee"`
	NetAmount       decimal.Decimal  `json:"net_amount" db:"net_amount"`
	// ConvertedAmount is the payout in the destination asset (ETH for crypto requests).
	ConvertedAmount *decimal.Decimal `json:"converted_amount,omitempty" db:"converted_amount"`
	QuoteKey        *string          `json:"quote_key,omitempty" db:"quote_key"`
	QuotePrice      *decimal.Decimal `json:"quote_price,omitempty" db:"quote_price"`
	BankAccountID   *uuid.UUID       `json:"bank_account_id,omitempty" db:"bank_account_id"`
	ChainAddress    *string          `json:"chain_address,omitempty" db:"chain_address"`
	Status          WithdrawalStatus `json:"status" db:"status"`
	RejectionReason *string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}
