package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known quote keys.
const (
	QuoteETHPrice = "eth-price" // Price of 1 ETH in base currency
)

// Quote is the last known good value for a logical upstream query.
type Quote struct {
	Key       string          `json:"key"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetched_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the quote is past its expiry at now.
func (q Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}
