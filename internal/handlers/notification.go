package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
)

//go:generate mockgen -source=notification.go -destination=notification_mock.go -package=handlers

// Mailbox defines the notification operations used by the handlers.
type Mailbox interface {
	List(ctx context.Context, userID uuid.UUID, f models.NotificationFilter) ([]models.NotificationDB, error)
	MarkRead(ctx context.Context, id, callerID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationsResponse lists notifications
// swagger:model NotificationsResponse
type NotificationsResponse struct {
	Notifications []models.NotificationDB `json:"notifications"`
}

// NewListNotificationsHandler returns an HTTP handler listing the caller's notifications.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param filter query string false "unread to list unread only"
// @Param category query string false "transaction, market_upload, report_reply or new_blog"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} handlers.NotificationsResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Router /notifications [get]
// @Security BearerAuth
func NewListNotificationsHandler(svc Mailbox, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		limit, offset := pagination(r)
		q := r.URL.Query()
		items, err := svc.List(r.Context(), userID, models.NotificationFilter{
			UnreadOnly: q.Get("filter") == "unread",
			Category:   q.Get("category"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		if items == nil {
			items = []models.NotificationDB{}
		}
		writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: items})
	}
}

// NewMarkNotificationReadHandler returns an HTTP handler marking one notification read.
// @Summary Mark notification read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 200 {object} handlers.MessageResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /notifications/{id}/read [patch]
// @Security BearerAuth
func NewMarkNotificationReadHandler(svc Mailbox, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.MarkRead(r.Context(), id, userID); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Notification marked as read", Count: 1})
	}
}

// NewMarkAllNotificationsReadHandler returns an HTTP handler marking every notification read.
// @Summary Mark all notifications read
// @Tags notifications
// @Success 200 {object} handlers.MessageResponse
// @Router /notifications/read-all [patch]
// @Security BearerAuth
func NewMarkAllNotificationsReadHandler(svc Mailbox, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		n, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Notifications marked as read", Count: n})
	}
}

// NewDeleteNotificationHandler returns an HTTP handler deleting one notification.
// @Summary Delete notification
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} handlers.ErrorResponse
// @Router /notifications/{id} [delete]
// @Security BearerAuth
func NewDeleteNotificationHandler(svc Mailbox, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id, userID); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// NewDeleteAllNotificationsHandler returns an HTTP handler emptying the mailbox.
// @Summary Delete all notifications
// @Tags notifications
// @Success 200 {object} handlers.MessageResponse
// @Router /notifications [delete]
// @Security BearerAuth
func NewDeleteAllNotificationsHandler(svc Mailbox, claimsGetter ClaimsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := caller(w, r, claimsGetter)
		if !ok {
			return
		}

		n, err := svc.DeleteAll(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Notifications deleted", Count: n})
	}
}
