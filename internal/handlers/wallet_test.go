package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/jwt"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsFor(userID uuid.UUID) ClaimsGetter {
	return func(ctx context.Context) (*jwt.Claims, bool) {
		return &jwt.Claims{UserID: userID}, true
	}
}

func noClaims(ctx context.Context) (*jwt.Claims, bool) {
	return nil, false
}

func TestGetBalanceHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBalancer := NewMockBalancer(ctrl)
	userID := uuid.New()

	tests := []struct {
		name                string
		claims              ClaimsGetter
		setupMocks          func()
		expectedStatus      int
		expectedResponseKey string // "balance" or "error"
	}{
		{
			name:   "successful balance fetch",
			claims: claimsFor(userID),
			setupMocks: func() {
				mockBalancer.EXPECT().Balance(gomock.Any(), userID).
					Return(decimal.RequireFromString("5000"), nil)
			},
			expectedStatus:      http.StatusOK,
			expectedResponseKey: "balance",
		},
		{
			name:                "unauthorized",
			claims:              noClaims,
			setupMocks:          func() {},
			expectedStatus:      http.StatusUnauthorized,
			expectedResponseKey: "error",
		},
		{
			name:   "internal server error",
			claims: claimsFor(userID),
			setupMocks: func() {
				mockBalancer.EXPECT().Balance(gomock.Any(), userID).
					Return(decimal.Zero, errors.New("db error"))
			},
			expectedStatus:      http.StatusInternalServerError,
			expectedResponseKey: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMocks()
			handler := NewGetBalanceHandler(mockBalancer, tt.claims)

			req := httptest.NewRequest(http.MethodGet, "/wallet/balance", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			var body map[string]interface{}
			err := json.NewDecoder(rr.Body).Decode(&body)
			assert.NoError(t, err)

			_, ok := body[tt.expectedResponseKey]
			assert.True(t, ok, "response should contain key %s", tt.expectedResponseKey)
		})
	}
}

func TestListTransactionsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLister := NewMockTransactionLister(ctrl)
	userID := uuid.New()
	itemID := uuid.New()

	mockLister.EXPECT().Transactions(gomock.Any(), userID, 10, 20).
		Return([]models.TransactionDB{{
			ID:           uuid.New(),
			UserID:       userID,
			Type:         models.TransactionCredit,
			Amount:       decimal.RequireFromString("5000"),
			Status:       models.TransactionCompleted,
			BalanceAfter: decimal.RequireFromString("5000"),
			Reference:    models.SettlementRef(itemID),
		}}, nil)

	handler := NewListTransactionsHandler(mockLister, claimsFor(userID))
	req := httptest.NewRequest(http.MethodGet, "/wallet/transactions?limit=10&offset=20", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp TransactionsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "5000.00", resp.Transactions[0].Amount)
	assert.Equal(t, string(models.RefSettlementItem), resp.Transactions[0].OnModel)
	assert.Equal(t, itemID, resp.Transactions[0].RelatedObjectID)
}

func TestBankAccountHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockManager := NewMockBankAccountManager(ctrl)
	userID := uuid.New()
	accountID := uuid.New()

	r := chi.NewRouter()
	r.Post("/wallet/bank-accounts", NewAddBankAccountHandler(mockManager, claimsFor(userID)))
	r.Get("/wallet/bank-accounts", NewListBankAccountsHandler(mockManager, claimsFor(userID)))
	r.Delete("/wallet/bank-accounts/{id}", NewDeleteBankAccountHandler(mockManager, claimsFor(userID)))

	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		setupMocks     func()
		expectedStatus int
	}{
		{
			name:   "add",
			method: http.MethodPost,
			target: "/wallet/bank-accounts",
			body:   `{"account_number":"0123456789","bank_code":"058"}`,
			setupMocks: func() {
				mockManager.EXPECT().AddBankAccount(gomock.Any(), userID, services.BankAccountInput{
					AccountNumber: "0123456789",
					BankCode:      "058",
				}).Return(&models.BankAccountDB{ID: accountID, UserID: userID}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:   "add over limit",
			method: http.MethodPost,
			target: "/wallet/bank-accounts",
			body:   `{"account_number":"1","bank_code":"2"}`,
			setupMocks: func() {
				mockManager.EXPECT().AddBankAccount(gomock.Any(), userID, gomock.Any()).
					Return(nil, services.ErrBankAccountLimit)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "add duplicate",
			method: http.MethodPost,
			target: "/wallet/bank-accounts",
			body:   `{"account_number":"1","bank_code":"2"}`,
			setupMocks: func() {
				mockManager.EXPECT().AddBankAccount(gomock.Any(), userID, gomock.Any()).
					Return(nil, services.ErrDuplicateBankAccount)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "add bad body",
			method:         http.MethodPost,
			target:         "/wallet/bank-accounts",
			body:           `{`,
			setupMocks:     func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "list",
			method: http.MethodGet,
			target: "/wallet/bank-accounts",
			setupMocks: func() {
				mockManager.EXPECT().ListBankAccounts(gomock.Any(), userID).Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			target: "/wallet/bank-accounts/" + accountID.String(),
			setupMocks: func() {
				mockManager.EXPECT().DeleteBankAccount(gomock.Any(), userID, accountID).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "delete missing",
			method: http.MethodDelete,
			target: "/wallet/bank-accounts/" + accountID.String(),
			setupMocks: func() {
				mockManager.EXPECT().DeleteBankAccount(gomock.Any(), userID, accountID).Return(services.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "delete bad id",
			method:         http.MethodDelete,
			target:         "/wallet/bank-accounts/not-a-uuid",
			setupMocks:     func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMocks()

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
