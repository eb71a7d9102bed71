package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/jwt"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/middlewares"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/services"
)

// ClaimsGetter returns the identity stored in ctx by the auth middleware.
type ClaimsGetter func(ctx context.Context) (*jwt.Claims, bool)

// ErrorResponse is the body of every failed request
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	Error string `json:"error"`
}

// MessageResponse is returned by operations without a payload
// swagger:model MessageResponse
type MessageResponse struct {
	Message string `json:"message"`
	// Number of affected records, when relevant
	Count int64 `json:"count,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeError translates a service error into its HTTP status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, services.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrBelowMinimum),
		errors.Is(err, services.ErrBankAccountLimit):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrPendingWithdrawalExists),
		errors.Is(err, services.ErrDuplicateTransaction),
		errors.Is(err, services.ErrDuplicateBankAccount):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUpstreamUnavailable):
		writeErrorMessage(w, http.StatusServiceUnavailable, "Quote provider unavailable")
	default:
		logger.Log.Errorw("request failed",
			"request_id", middlewares.RequestIDFromContext(r.Context()),
			"uri", r.RequestURI,
			"error", err,
		)
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// caller returns the authenticated user or writes 401.
func caller(w http.ResponseWriter, r *http.Request, claimsGetter ClaimsGetter) (uuid.UUID, bool) {
	claims, ok := claimsGetter(r.Context())
	if !ok || claims.UserID == uuid.Nil {
		logger.Log.Warnw("unauthorized request", "uri", r.RequestURI)
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// pathID parses the {id} URL parameter or writes 400.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads the limit and offset query parameters. Invalid values become zero.
func pagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	return limit, offset
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Log.Warnw("invalid request body", "uri", r.RequestURI, "error", err)
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
