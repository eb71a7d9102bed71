package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/services"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=wallet.go -destination=wallet_mock.go -package=handlers

// Balancer defines the interface that the service must implement.
type Balancer interface {
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// TransactionLister lists ledger entries.
type TransactionLister interface {
	Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.TransactionDB, error)
}

// BankAccountManager manages payout accounts.
type BankAccountManager interface {
	AddBankAccount(ctx context.Context, userID uuid.UUID, in services.BankAccountInput) (*models.BankAccountDB, error)
	ListBankAccounts(ctx context.Context, userID uuid.UUID) ([]models.BankAccountDB, error)
	DeleteBankAccount(ctx context.Context, userID, accountID uuid.UUID) error
}

// BalanceResponse represents a successful response with the user balance
// swagger:model BalanceResponse
type BalanceResponse struct {
	// Balance in base currency
	Balance decimal.Decimal `json:"balance"`
}

// TransactionResponse is one ledger entry
// swagger:model TransactionResponse
type TransactionResponse struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Amount          string    `json:"amount"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	BalanceAfter    string    `json:"balance_after"`
	OnModel         string    `json:"on_model"`
	RelatedObjectID uuid.UUID `json:"related_object_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransactionsResponse is a page of ledger entries
// swagger:model TransactionsResponse
type TransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// AddBankAccountRequest is a payout account to attach
// swagger:model AddBankAccountRequest
type AddBankAccountRequest struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
}

// BankAccountsResponse lists payout accounts
// swagger:model BankAccountsResponse
type BankAccountsResponse struct {
	BankAccounts []models.BankAccountDB `json:"bank_accounts"`
}

// NewGetBalanceHandler returns an HTTP handler for fetching the user balance.
// @Summary Get user balance
// @Description Returns the wallet balance, creating the wallet on first use
// @Tags wallet
// @Produce json
// @Success 200 {object} handlers.BalanceResponse "User balance"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /wallet/balance [get]
// @Security BearerAuth
func NewGetBalanceHandler(svc Balancer, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			logger.Log.Errorw("failed to get balance", "userID", userID, "error", err)
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, BalanceResponse{Balance: balance})
	}
}

// NewListTransactionsHandler returns an HTTP handler listing ledger entries.
// @Summary List wallet transactions
// @Tags wallet
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} handlers.TransactionsResponse
// @Failure 401 {object} handlers.ErrorResponse
// @Router /wallet/transactions [get]
// @Security BearerAuth
func NewListTransactionsHandler(svc TransactionLister, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		limit, offset := pagination(r)
		txns, err := svc.Transactions(r.Context(), userID, limit, offset)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := TransactionsResponse{Transactions: make([]TransactionResponse, 0, len(txns))}
		for _, t := range txns {
			resp.Transactions = append(resp.Transactions, TransactionResponse{
				ID:              t.ID,
				Type:            string(t.Type),
				Amount:          t.Amount.StringFixed(2),
				Description:     t.Description,
				Status:          string(t.Status),
				BalanceAfter:    t.BalanceAfter.StringFixed(2),
				OnModel:         string(t.Kind),
				RelatedObjectID: t.Reference.ID,
				CreatedAt:       t.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewAddBankAccountHandler returns an HTTP handler attaching a payout account.
// @Summary Add bank account
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body handlers.AddBankAccountRequest true "Bank account"
// @Success 201 {object} models.BankAccountDB
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse "Duplicate account"
// @Failure 422 {object} handlers.ErrorResponse "Account limit reached"
// @Router /wallet/bank-accounts [post]
// @Security BearerAuth
func NewAddBankAccountHandler(svc BankAccountManager, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		var req AddBankAccountRequest
		if !decodeBody(w, r, &req) {
			return
		}

		acct, err := svc.AddBankAccount(r.Context(), userID, services.BankAccountInput{
			AccountNumber: req.AccountNumber,
			BankCode:      req.BankCode,
			BankName:      req.BankName,
			AccountName:   req.AccountName,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, acct)
	}
}

// NewListBankAccountsHandler returns an HTTP handler listing payout accounts.
// @Summary List bank accounts
// @Tags wallet
// @Produce json
// @Success 200 {object} handlers.BankAccountsResponse
// @Router /wallet/bank-accounts [get]
// @Security BearerAuth
func NewListBankAccountsHandler(svc BankAccountManager, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		accounts, err := svc.ListBankAccounts(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if accounts == nil {
			accounts = []models.BankAccountDB{}
		}
		writeJSON(w, http.StatusOK, BankAccountsResponse{BankAccounts: accounts})
	}
}

// NewDeleteBankAccountHandler returns an HTTP handler removing a payout account.
// @Summary Delete bank account
// @Tags wallet
// @Param id path string true "Bank account ID"
// @Success 204
// @Failure 404 {object} handlers.ErrorResponse
// @Router /wallet/bank-accounts/{id} [delete]
// @Security BearerAuth
func NewDeleteBankAccountHandler(svc BankAccountManager, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteBankAccount(r.Context(), userID, id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
