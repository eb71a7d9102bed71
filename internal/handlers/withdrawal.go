package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/services"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=withdrawal.go -destination=withdrawal_mock.go -package=handlers

// WithdrawalService defines the withdrawal operations used by the handlers.
type WithdrawalService interface {
	Submit(ctx context.Context, userID uuid.UUID, in services.SubmitWithdrawal) (services.SubmitResult, error)
	Status(ctx context.Context, userID, requestID uuid.UUID) (*models.WithdrawalRequestDB, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequestDB, error)
}

// WithdrawalResolver is the staff side of the workflow.
type WithdrawalResolver interface {
	Resolve(ctx context.Context, requestID uuid.UUID, status, reason string) (*models.WithdrawalRequestDB, error)
}

// SubmitWithdrawalRequest is a payout request
// swagger:model SubmitWithdrawalRequest
type SubmitWithdrawalRequest struct {
	// bank or crypto
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	BankAccountID *uuid.UUID      `json:"bank_account_id,omitempty"`
	ChainAddress  string          `json:"chain_address,omitempty"`
}

// WithdrawalResponse wraps a withdrawal request
// swagger:model WithdrawalResponse
type WithdrawalResponse struct {
	Request *models.WithdrawalRequestDB `json:"request"`
}

// WithdrawalsResponse lists withdrawal requests
// swagger:model WithdrawalsResponse
type WithdrawalsResponse struct {
	Requests []models.WithdrawalRequestDB `json:"requests"`
}

// ResolveWithdrawalRequest is the staff decision on a request
// swagger:model ResolveWithdrawalRequest
type ResolveWithdrawalRequest struct {
	// Processed (or Paid) or Rejected
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// NewSubmitWithdrawalHandler returns an HTTP handler submitting a payout request.
// @Summary Request withdrawal
// @Description Debits the wallet and records a Pending payout request. Honours the Idempotency-Key header.
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body handlers.SubmitWithdrawalRequest true "Withdrawal"
// @Success 201 {object} handlers.WithdrawalResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse "Pending withdrawal exists"
// @Failure 422 {object} handlers.ErrorResponse "Insufficient funds or below minimum"
// @Failure 503 {object} handlers.ErrorResponse "Quote provider unavailable"
// @Router /withdrawals [post]
// @Security BearerAuth
func NewSubmitWithdrawalHandler(svc WithdrawalService, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		var req SubmitWithdrawalRequest
		if !decodeBody(w, r, &req) {
			return
		}

		in := services.SubmitWithdrawal{
			Kind:         models.WithdrawalKind(req.Kind),
			Amount:       req.Amount,
			ChainAddress: req.ChainAddress,
		}
		if req.BankAccountID != nil {
			in.BankAccountID = *req.BankAccountID
		}

		res, err := svc.Submit(r.Context(), userID, in)
		if err != nil {
			logger.Log.Warnw("withdrawal rejected", "userID", userID, "error", err)
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, WithdrawalResponse{Request: res.Request})
	}
}

// NewGetWithdrawalHandler returns an HTTP handler reporting the status of a request.
// @Summary Get withdrawal status
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal request ID"
// @Success 200 {object} handlers.WithdrawalResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /withdrawals/{id} [get]
// @Security BearerAuth
func NewGetWithdrawalHandler(svc WithdrawalService, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		req, err := svc.Status(r.Context(), userID, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, WithdrawalResponse{Request: req})
	}
}

// NewListWithdrawalsHandler returns an HTTP handler listing the caller's requests.
// @Summary List withdrawals
// @Tags withdrawals
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} handlers.WithdrawalsResponse
// @Router /withdrawals [get]
// @Security BearerAuth
func NewListWithdrawalsHandler(svc WithdrawalService, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		limit, offset := pagination(r)
		reqs, err := svc.List(r.Context(), userID, limit, offset)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if reqs == nil {
			reqs = []models.WithdrawalRequestDB{}
		}
		writeJSON(w, http.StatusOK, WithdrawalsResponse{Requests: reqs})
	}
}

// NewResolveWithdrawalHandler returns an HTTP handler for staff decisions on a request.
// @Summary Resolve withdrawal
// @Description Marks a Pending request Processed or Rejected. Rejection returns the funds.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Withdrawal request ID"
// @Param request body handlers.ResolveWithdrawalRequest true "Decision"
// @Success 200 {object} handlers.WithdrawalResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse
// @Router /admin/withdrawals/{id} [patch]
// @Security BearerAuth
func NewResolveWithdrawalHandler(svc WithdrawalResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req ResolveWithdrawalRequest
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := svc.Resolve(r.Context(), id, req.Status, req.RejectionReason)
		if err != nil {
			logger.Log.Warnw("failed to resolve withdrawal", "requestID", id, "status", req.Status, "error", err)
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, WithdrawalResponse{Request: res})
	}
}
