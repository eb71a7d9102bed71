package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/services"
)

//go:generate mockgen -source=settlement.go -destination=settlement_mock.go -package=handlers

// SettlementTransitioner moves settlement items through their workflow.
type SettlementTransitioner interface {
	Transition(ctx context.Context, itemID uuid.UUID, newStatus models.SettlementStatus, extra services.TransitionExtra) (services.TransitionResult, error)
}

// TransitionRequest is a staff status change
// swagger:model TransitionRequest
type TransitionRequest struct {
	// WAIT, PROCESSING, DONE or CANCEL
	Status string `json:"status"`
	// Required when cancelling
	CancelReason string `json:"cancel_reason,omitempty"`
	CRImage      string `json:"cr_image,omitempty"`
}

// TransitionResponse reports the item after the change
// swagger:model TransitionResponse
type TransitionResponse struct {
	Item *models.SettlementItemDB `json:"item"`
	// True when this request credited the wallet
	Credited bool `json:"credited"`
}

// NewTransitionSettlementHandler returns an HTTP handler changing the status of a settlement item.
// @Summary Transition settlement item
// @Description Moves a submitted item to a new status. Approving (DONE) credits the owner exactly once.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Settlement item ID"
// @Param request body handlers.TransitionRequest true "Transition"
// @Success 200 {object} handlers.TransitionResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Failure 409 {object} handlers.ErrorResponse "Invalid or concurrent transition"
// @Router /admin/settlements/{id}/transition [post]
// @Security BearerAuth
func NewTransitionSettlementHandler(svc SettlementTransitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req TransitionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		status := models.SettlementStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
		res, err := svc.Transition(r.Context(), id, status, services.TransitionExtra{
			CancelReason: req.CancelReason,
			CRImage:      req.CRImage,
		})
		if err != nil {
			logger.Log.Warnw("settlement transition failed", "itemID", id, "status", status, "error", err)
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, TransitionResponse{Item: res.Item, Credited: res.Credited})
	}
}
