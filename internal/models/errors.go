package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Storage level errors shared by repositories and the services consuming them.
var (
	// ErrRecordNotFound is returned when a lookup or owner-scoped mutation matches no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrUniqueViolation is returned when an insert collides with a unique constraint.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// UpstreamError is a failed call to a quote provider. StatusCode follows HTTP semantics
// even for non-HTTP providers.
type UpstreamError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: status %d", e.Source, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Permanent reports whether retrying the call cannot help: the credentials were refused
// or the provider asked us to back off.
func (e *UpstreamError) Permanent() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusTooManyRequests
}
