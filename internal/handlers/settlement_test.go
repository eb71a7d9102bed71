package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestTransitionSettlementHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockSettlementTransitioner(ctrl)
	itemID := uuid.New()

	r := chi.NewRouter()
	r.Post("/admin/settlements/{id}/transition", NewTransitionSettlementHandler(mockSvc))

	tests := []struct {
		name           string
		target         string
		body           string
		setupMocks     func()
		expectedStatus int
		expectCredited bool
	}{
		{
			name:   "approve",
			target: "/admin/settlements/" + itemID.String() + "/transition",
			body:   `{"status":"done"}`,
			setupMocks: func() {
				mockSvc.EXPECT().Transition(gomock.Any(), itemID, models.SettlementDone, services.TransitionExtra{}).
					Return(services.TransitionResult{
						Item:     &models.SettlementItemDB{ID: itemID, Status: models.SettlementDone},
						Changed:  true,
						Credited: true,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectCredited: true,
		},
		{
			name:   "repeat approval is a no-op",
			target: "/admin/settlements/" + itemID.String() + "/transition",
			body:   `{"status":"DONE"}`,
			setupMocks: func() {
				mockSvc.EXPECT().Transition(gomock.Any(), itemID, models.SettlementDone, gomock.Any()).
					Return(services.TransitionResult{
						Item: &models.SettlementItemDB{ID: itemID, Status: models.SettlementDone},
					}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "cancel without reason",
			target: "/admin/settlements/" + itemID.String() + "/transition",
			body:   `{"status":"CANCEL"}`,
			setupMocks: func() {
				mockSvc.EXPECT().Transition(gomock.Any(), itemID, models.SettlementCancel, gomock.Any()).
					Return(services.TransitionResult{}, &services.ValidationError{Field: "cancel_reason", Reason: "required when cancelling"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "out of terminal state",
			target: "/admin/settlements/" + itemID.String() + "/transition",
			body:   `{"status":"WAIT"}`,
			setupMocks: func() {
				mockSvc.EXPECT().Transition(gomock.Any(), itemID, models.SettlementWait, gomock.Any()).
					Return(services.TransitionResult{}, fmt.Errorf("%w: DONE -> WAIT", services.ErrInvalidTransition))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "unknown item",
			target: "/admin/settlements/" + itemID.String() + "/transition",
			body:   `{"status":"DONE"}`,
			setupMocks: func() {
				mockSvc.EXPECT().Transition(gomock.Any(), itemID, models.SettlementDone, gomock.Any()).
					Return(services.TransitionResult{}, services.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad id",
			target:         "/admin/settlements/xyz/transition",
			body:           `{"status":"DONE"}`,
			setupMocks:     func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMocks()

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if rr.Code == http.StatusOK {
				var resp TransitionResponse
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tt.expectCredited, resp.Credited)
			}
		})
	}
}
