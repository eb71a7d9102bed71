package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationType is a member of the closed notification taxonomy.
type NotificationType string

const (
	NotificationReportReply        NotificationType = "report_reply"
	NotificationDebit              NotificationType = "transaction:debit"
	NotificationCredit             NotificationType = "transaction:credit"
	NotificationWithdrawal         NotificationType = "transaction:withdrawal"
	NotificationPaymentCompleted   NotificationType = "transaction:payment_completed"
	NotificationRejected           NotificationType = "transaction:rejected"
	NotificationMarketUploadDone   NotificationType = "market_upload:DONE"
	NotificationMarketUploadCancel NotificationType = "market_upload:CANCEL"
	NotificationMarketUploadProc   NotificationType = "market_upload:PROCESSING"
	NotificationNewBlog            NotificationType = "new_blog"
)

// Valid reports whether t belongs to the taxonomy.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationReportReply, NotificationDebit, NotificationCredit, NotificationWithdrawal,
		NotificationPaymentCompleted, NotificationRejected, NotificationMarketUploadDone,
		NotificationMarketUploadCancel, NotificationMarketUploadProc, NotificationNewBlog:
		return true
	}
	return false
}

// Category is the part of the type before the colon, e.g. "transaction".
func (t NotificationType) Category() string {
	c, _, _ := strings.Cut(string(t), ":")
	return c
}

// ValidCategory reports whether c names a notification category.
func ValidCategory(c string) bool {
	switch c {
	case "report_reply", "transaction", "market_upload", "new_blog":
		return true
	}
	return false
}

// MarketUploadNotification returns the notification type announcing a settlement status.
func MarketUploadNotification(s SettlementStatus) (NotificationType, bool) {
	switch s {
	case SettlementDone:
		return NotificationMarketUploadDone, true
	case SettlementCancel:
		return NotificationMarketUploadCancel, true
	case SettlementProcessing:
		return NotificationMarketUploadProc, true
	}
	return "", false
}

// TransactionNotification returns the notification type announcing a ledger entry.
func TransactionNotification(t TransactionType) NotificationType {
	switch t {
	case TransactionDebit:
		return NotificationDebit
	case TransactionWithdrawal:
		return NotificationWithdrawal
	default:
		return NotificationCredit
	}
}

// NotificationDB is one entry in a user's mailbox.
type NotificationDB struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	UserID          uuid.UUID        `json:"user_id" db:"user_id"`
	Type            NotificationType `json:"type" db:"type"`
	Message         string           `json:"message" db:"message"`
	Link            string           `json:"link" db:"link"`
	IsRead          bool             `json:"is_read" db:"is_read"`
	RejectionReason *string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CancelReason    *string          `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	Reference
}

// NotificationExtra holds the optional reason fields attached to some notifications.
type NotificationExtra struct {
	RejectionReason *string
	CancelReason    *string
}

// NotificationFilter narrows a mailbox listing.
type NotificationFilter struct {
	UnreadOnly bool
	Category   string // e.g. "transaction"; empty matches all
	Limit      int
	Offset     int
}
