package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementStatus is the workflow state of a submitted item.
type SettlementStatus string

const (
	SettlementWait       SettlementStatus = "WAIT"
	SettlementProcessing SettlementStatus = "PROCESSING"
	SettlementDone       SettlementStatus = "DONE"
	SettlementCancel     SettlementStatus = "CANCEL"
)

// Valid reports whether s is a known settlement status.
func (s SettlementStatus) Valid() bool {
	switch s {
	case SettlementWait, SettlementProcessing, SettlementDone, SettlementCancel:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected from s.
func (s SettlementStatus) Terminal() bool {
	return s == SettlementDone || s == SettlementCancel
}

// CanTransitionTo reports whether moving from s to next is a legal workflow step.
// Re-entering the current state is handled by callers as a no-op and is not a transition.
func (s SettlementStatus) CanTransitionTo(next SettlementStatus) bool {
	switch s {
	case SettlementWait:
		return next == SettlementProcessing || next == SettlementDone || next == SettlementCancel
	case SettlementProcessing:
		return next == SettlementDone || next == SettlementCancel
	}
	return false
}

// SettlementItemDB is a submitted gift-card/asset record awaiting appraisal.
type SettlementItemDB struct {
	ID                    uuid.UUID        `json:"id" db:"id"`
	UserID                uuid.UUID        `json:"user_id" db:"user_id"`
	CalculatedTotalAmount decimal.Decimal  `json:"calculated_total_amount" db:"calculated_total_amount"`
	Status                SettlementStatus `json:"status" db:"status"`
	CancelReason          *string          `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CRImage               *string          `json:"cr_image,omitempty" db:"cr_image"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
}

// SettlementUpdate carries the column values written together with a status change.
type SettlementUpdate struct {
	Status       SettlementStatus
	CancelReason *string
	CRImage      *string
}
