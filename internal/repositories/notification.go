package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
)

const notificationColumns = `id, user_id, type, message, link, ref_kind, ref_id, is_read, rejection_reason, cancel_reason, created_at`

// NotificationRepository stores the per-user mailbox.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.NotificationDB) error {
	const query = `
		INSERT INTO notifications (id, user_id, type, message, link, ref_kind, ref_id, is_read, rejection_reason, cancel_reason, created_at)
		VALUES (:id, :user_id, :type, :message, :link, :ref_kind, :ref_id, :is_read, :rejection_reason, :cancel_reason, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, n)
	logQuery(query, []any{n.ID, n.UserID, n.Type}, nil, err)
	return translateError(err)
}

// List returns the user's notifications matching f, newest first.
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, f models.NotificationFilter) ([]models.NotificationDB, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = $1
		  AND ($2 = FALSE OR is_read = FALSE)
		  AND ($3 = '' OR type = $3 OR type LIKE $3 || ':%')
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5`

	items := []models.NotificationDB{}
	err := r.db.SelectContext(ctx, &items, query, userID, f.UnreadOnly, f.Category, f.Limit, f.Offset)
	logQuery(query, []any{userID, f.UnreadOnly, f.Category, f.Limit, f.Offset}, len(items), err)
	return items, translateError(err)
}

// MarkRead flips is_read for a notification owned by userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	logQuery(query, []any{id, userID}, nil, err)
	return affectedOne(res, err)
}

// MarkAllRead flips is_read on every unread notification of userID.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`

	res, err := r.db.ExecContext(ctx, query, userID)
	logQuery(query, []any{userID}, nil, err)
	if err != nil {
		return 0, translateError(err)
	}
	return res.RowsAffected()
}

// Delete removes one notification owned by userID.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	const query = `DELETE FROM notifications WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	logQuery(query, []any{id, userID}, nil, err)
	return affectedOne(res, err)
}

// DeleteAll empties the user's mailbox.
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `DELETE FROM notifications WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, userID)
	logQuery(query, []any{userID}, nil, err)
	if err != nil {
		return 0, translateError(err)
	}
	return res.RowsAffected()
}
