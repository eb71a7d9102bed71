package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxBankAccounts is the number of payout bank accounts a wallet may hold.
const MaxBankAccounts = 2

// WalletDB represents a wallet row in the database
type WalletDB struct {
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`       // Owner of the wallet, immutable
	Balance   decimal.Decimal `json:"balance" db:"balance"`       // Current balance in base currency, never negative
	CreatedAt time.Time       `json:"created_at" db:"created_at"` // Timestamp when the wallet was created
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"` // Timestamp of the last balance mutation
}

// BankAccountDB represents a payout bank account attached to a wallet.
type BankAccountDB struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	AccountNumber string    `json:"account_number" db:"account_number"`
	BankCode      string    `json:"bank_code" db:"bank_code"`
	BankName      string    `json:"bank_name" db:"bank_name"`
	AccountName   string    `json:"account_name" db:"account_name"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionCredit     TransactionType = "credit"
	TransactionDebit      TransactionType = "debit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionCredit, TransactionDebit, TransactionWithdrawal:
		return true
	}
	return false
}

// IsDebit reports whether entries of this type take money out of the wallet.
func (t TransactionType) IsDebit() bool {
	return t == TransactionDebit || t == TransactionWithdrawal
}

// TransactionStatus tracks the lifecycle of a ledger entry.
type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionProcessing TransactionStatus = "approved-processing"
	TransactionRejected   TransactionStatus = "rejected"
	TransactionCompleted  TransactionStatus = "completed"
)

// TransactionDB is one append-only entry in a wallet's transaction log.
type TransactionDB struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	UserID       uuid.UUID         `json:"user_id" db:"user_id"`
	Type         TransactionType   `json:"type" db:"type"`
	Amount       decimal.Decimal   `json:"amount" db:"amount"` // Always positive, direction comes from Type
	Description  string            `json:"description" db:"description"`
	Status       TransactionStatus `json:"status" db:"status"`
	BalanceAfter decimal.Decimal   `json:"balance_after" db:"balance_after"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	Reference
}
