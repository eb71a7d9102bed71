package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
)

//go:generate mockgen -source=settlement.go -destination=settlement_mock.go -package=services

// SettlementRepository loads and transitions settlement items.
type SettlementRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SettlementItemDB, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, prev models.SettlementStatus, upd models.SettlementUpdate) (*models.SettlementItemDB, bool, error)
}

// Crediter credits a wallet.
type Crediter interface {
	Credit(ctx context.Context, p Posting) (LedgerResult, error)
}

// TransitionExtra carries the optional inputs of a status change.
type TransitionExtra struct {
	CancelReason string
	CRImage      string
}

// TransitionResult reports what a status change did.
type TransitionResult struct {
	Item *models.SettlementItemDB
	// Changed is false when the item already had the requested status.
	Changed bool
	// Credited is true only when this call posted the approval credit.
	Credited bool
}

// SettlementService drives the WAIT -> PROCESSING -> DONE / CANCEL workflow of submitted items.
type SettlementService struct {
	repo     SettlementRepository
	ledger   Crediter
	notifier Notifier
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(repo SettlementRepository, ledger Crediter, notifier Notifier) *SettlementService {
	return &SettlementService{repo: repo, ledger: ledger, notifier: notifier}
}

// Transition moves an item to newStatus. The stored status is changed with a compare-and-set,
// and the credit and notification only happen for the caller whose update changed it, so
// repeating a transition or racing another caller never credits twice.
func (s *SettlementService) Transition(
	ctx context.Context,
	itemID uuid.UUID,
	newStatus models.SettlementStatus,
	extra TransitionExtra,
) (TransitionResult, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return TransitionResult{}, ErrNotFound
		}
		logger.Log.Errorw("failed to load settlement item", "itemID", itemID, "error", err)
		return TransitionResult{}, err
	}

	if newStatus == "" {
		return TransitionResult{}, invalid("status", "required")
	}
	if !newStatus.Valid() {
		return TransitionResult{}, invalid("status", "unsupported status "+string(newStatus))
	}
	extra.CancelReason = strings.TrimSpace(extra.CancelReason)
	if newStatus == models.SettlementCancel && extra.CancelReason == "" {
		return TransitionResult{}, invalid("cancel_reason", "required when cancelling")
	}

	if item.Status == newStatus {
		return TransitionResult{Item: item}, nil
	}
	if !item.Status.CanTransitionTo(newStatus) {
		return TransitionResult{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, newStatus)
	}

	updated, ok, err := s.repo.CompareAndSetStatus(ctx, itemID, item.Status, transitionUpdate(item, newStatus, extra))
	if err != nil {
		logger.Log.Errorw("failed to update settlement status", "itemID", itemID, "status", newStatus, "error", err)
		return TransitionResult{}, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, itemID)
		if err != nil {
			return TransitionResult{}, err
		}
		if current.Status == newStatus {
			return TransitionResult{Item: current}, nil
		}
		return TransitionResult{}, fmt.Errorf("%w: item %s is now %s", ErrConflict, itemID, current.Status)
	}

	res := TransitionResult{Item: updated, Changed: true}
	if newStatus == models.SettlementDone {
		res.Credited = s.credit(ctx, updated)
	}
	s.announce(ctx, updated)

	logger.Log.Infow("settlement item transitioned",
		"itemID", itemID,
		"from", item.Status,
		"to", newStatus,
		"credited", res.Credited,
	)
	return res, nil
}

func transitionUpdate(item *models.SettlementItemDB, next models.SettlementStatus, extra TransitionExtra) models.SettlementUpdate {
	upd := models.SettlementUpdate{Status: next, CRImage: item.CRImage}
	switch next {
	case models.SettlementCancel:
		reason := extra.CancelReason
		upd.CancelReason = &reason
		upd.CRImage = nil
	case models.SettlementDone:
		if img := strings.TrimSpace(extra.CRImage); img != "" {
			upd.CRImage = &img
		}
	}
	return upd
}

// credit posts the approval amount. A failure leaves the item DONE and is only logged.
func (s *SettlementService) credit(ctx context.Context, item *models.SettlementItemDB) bool {
	_, err := s.ledger.Credit(ctx, Posting{
		UserID: item.UserID,
		Amount: item.CalculatedTotalAmount,
		Reason: "gift card trade approved",
		Ref:    models.SettlementRef(item.ID),
	})
	if err != nil {
		logger.Log.Errorw("settlement item is DONE but the wallet credit failed",
			"itemID", item.ID,
			"userID", item.UserID,
			"amount", item.CalculatedTotalAmount,
			"error", err,
		)
		return false
	}
	return true
}

func (s *SettlementService) announce(ctx context.Context, item *models.SettlementItemDB) {
	typ, ok := models.MarketUploadNotification(item.Status)
	if !ok {
		return
	}

	var (
		msg   string
		extra models.NotificationExtra
	)
	switch item.Status {
	case models.SettlementDone:
		msg = fmt.Sprintf("Your trade has been approved. %s was added to your wallet", item.CalculatedTotalAmount.StringFixed(2))
	case models.SettlementCancel:
		msg = "Your trade was cancelled"
		if item.CancelReason != nil {
			msg += ": " + *item.CancelReason
		}
		extra.CancelReason = item.CancelReason
	case models.SettlementProcessing:
		msg = "Your trade is being processed"
	}

	link := fmt.Sprintf("/market/uploads/%s", item.ID)
	s.notifier.Notify(ctx, item.UserID, typ, msg, link, models.SettlementRef(item.ID), extra)
}
