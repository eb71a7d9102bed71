package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
)

//go:generate mockgen -source=quote.go -destination=quote_mock.go -package=handlers

// Quoter defines the interface that the service must implement.
type Quoter interface {
	GetQuote(ctx context.Context, key string) (models.Quote, bool, error)
}

// QuoteResponse is a cached quote
// swagger:model QuoteResponse
type QuoteResponse struct {
	Data models.Quote `json:"data"`
	// True when the value came from cache
	Cached bool `json:"cached"`
	// True when the cached value is past its expiry and a refresh is under way
	Stale bool `json:"stale"`
}

// NewGetQuoteHandler returns an HTTP handler serving a quote, preferring a cached value over an error.
// @Summary Get quote
// @Tags quotes
// @Produce json
// @Param key path string true "Quote key, e.g. eth-price or fx-usd-rub"
// @Success 200 {object} handlers.QuoteResponse
// @Failure 404 {object} handlers.ErrorResponse "Unknown quote"
// @Failure 503 {object} handlers.ErrorResponse "Quote provider unavailable"
// @Router /quotes/{key} [get]
// @Security BearerAuth
func NewGetQuoteHandler(svc Quoter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")

		q, fromCache, err := svc.GetQuote(r.Context(), key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, QuoteResponse{
			Data:   q,
			Cached: fromCache,
			Stale:  fromCache && q.Expired(time.Now()),
		})
	}
}
