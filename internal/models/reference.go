package models

import (
	"fmt"

	"github.com/google/uuid"
)

// RefKind names the kind of entity a Reference points at (the stored "on_model" column).
type RefKind string

// Supported reference kinds.
const (
	RefSettlementItem    RefKind = "SettlementItem"
	RefWithdrawalRequest RefKind = "WithdrawalRequest"
	RefWallet            RefKind = "Wallet"
)

// Valid reports whether k is one of the known kinds.
func (k RefKind) Valid() bool {
	switch k {
	case RefSettlementItem, RefWithdrawalRequest, RefWallet:
		return true
	}
	return false
}

// Reference is a weak pointer to another entity: an id plus the kind of the entity it names.
// It never implies ownership and is never followed by cascading deletes.
type Reference struct {
	Kind RefKind   `json:"on_model" db:"ref_kind"`
	ID   uuid.UUID `json:"related_object_id" db:"ref_id"`
}

// SettlementRef references a settlement item.
func SettlementRef(id uuid.UUID) Reference {
	return Reference{Kind: RefSettlementItem, ID: id}
}

// WithdrawalRef references a withdrawal request.
func WithdrawalRef(id uuid.UUID) Reference {
	return Reference{Kind: RefWithdrawalRequest, ID: id}
}

// WalletRef references a user's wallet.
func WalletRef(userID uuid.UUID) Reference {
	return Reference{Kind: RefWallet, ID: userID}
}

// Describe returns a short human readable label for the referenced entity.
func (r Reference) Describe() string {
	switch r.Kind {
	case RefSettlementItem:
		return fmt.Sprintf("settlement item %s", r.ID)
	case RefWithdrawalRequest:
		return fmt.Sprintf("withdrawal request %s", r.ID)
	case RefWallet:
		return "wallet"
	default:
		return fmt.Sprintf("unknown reference %q %s", r.Kind, r.ID)
	}
}
