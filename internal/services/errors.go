package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientFunds is returned when a debit would take the balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBelowMinimum is returned when a debit is smaller than the configured floor.
	ErrBelowMinimum = errors.New("amount below minimum")
	// ErrDuplicateTransaction is returned when a ledger entry already exists for the same reference.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	// ErrInvalidTransition is returned when a status change is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict is returned when a concurrent writer moved the entity to another state.
	ErrConflict = errors.New("concurrent status change")
	// ErrPendingWithdrawalExists is returned when the user already has an active withdrawal.
	ErrPendingWithdrawalExists = errors.New("pending withdrawal already exists")
	// ErrBankAccountLimit is returned when the wallet already holds the maximum number of bank accounts.
	ErrBankAccountLimit = errors.New("bank account limit reached")
	// ErrDuplicateBankAccount is returned when the same account is added twice.
	ErrDuplicateBankAccount = errors.New("bank account already exists")
	// ErrUpstreamUnavailable is returned when a quote cannot be fetched and nothing is cached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
