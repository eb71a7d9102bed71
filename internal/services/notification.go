package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/logger"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=notification.go -destination=notification_mock.go -package=services

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// NotificationWriter persists mailbox mutations.
type NotificationWriter interface {
	Create(ctx context.Context, n *models.NotificationDB) error
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationReader lists mailbox entries.
type NotificationReader interface {
	List(ctx context.Context, userID uuid.UUID, f models.NotificationFilter) ([]models.NotificationDB, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// NotificationService records per-user notifications and fans them out to Kafka.
type NotificationService struct {
	writer      NotificationWriter
	reader      NotificationReader
	kafkaWriter KafkaWriter
	now         func() time.Time
}

// NewNotificationService creates a new NotificationService. kafkaWriter may be nil.
func NewNotificationService(writer NotificationWriter, reader NotificationReader, kafkaWriter KafkaWriter) *NotificationService {
	return &NotificationService{
		writer:      writer,
		reader:      reader,
		kafkaWriter: kafkaWriter,
		now:         time.Now,
	}
}

// Record appends a notification to the user's mailbox and publishes it.
func (s *NotificationService) Record(
	ctx context.Context,
	userID uuid.UUID,
	typ models.NotificationType,
	message, link string,
	ref models.Reference,
	extra models.NotificationExtra,
) (*models.NotificationDB, error) {
	if userID == uuid.Nil {
		return nil, invalid("user_id", "required")
	}
	if !typ.Valid() {
		return nil, invalid("type", "unsupported notification type "+string(typ))
	}
	if !ref.Kind.Valid() {
		return nil, invalid("on_model", "unsupported reference kind "+string(ref.Kind))
	}
	if message == "" {
		return nil, invalid("message", "required")
	}

	n := &models.NotificationDB{
		ID:              uuid.New(),
		UserID:          userID,
		Type:            typ,
		Message:         message,
		Link:            link,
		RejectionReason: extra.RejectionReason,
		CancelReason:    extra.CancelReason,
		CreatedAt:       s.now().UTC(),
		Reference:       ref,
	}
	if err := s.writer.Create(ctx, n); err != nil {
		logger.Log.Errorw("failed to save notification", "userID", userID, "type", typ, "error", err)
		return nil, err
	}

	s.publish(ctx, n)
	return n, nil
}

// Notify is the best-effort form of Record used as a side effect of business operations.
// Failures are logged and never returned.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID uuid.UUID,
	typ models.NotificationType,
	message, link string,
	ref models.Reference,
	extra models.NotificationExtra,
) {
	if _, err := s.Record(ctx, userID, typ, message, link, ref, extra); err != nil {
		logger.Log.Warnw("notification dropped",
			"userID", userID,
			"type", typ,
			"ref", ref.Describe(),
			"error", err,
		)
	}
}

// publish sends the notification to Kafka keyed by user so per-user order is kept.
func (s *NotificationService) publish(ctx context.Context, n *models.NotificationDB) {
	if s.kafkaWriter == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "notification_id", n.ID)
		return
	}

	data, err := json.Marshal(n)
	if err != nil {
		logger.Log.Errorw("Failed to marshal notification for Kafka", "notification_id", n.ID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(n.UserID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Type)},
		},
	}
	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish notification to Kafka", "notification_id", n.ID, "error", err)
		return
	}
	logger.Log.Infow("Notification published to Kafka", "notification_id", n.ID, "type", n.Type)
}

// List returns the user's notifications matching the filter.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, f models.NotificationFilter) ([]models.NotificationDB, error) {
	if f.Category != "" && !models.ValidCategory(f.Category) {
		return nil, invalid("category", "unknown category "+f.Category)
	}
	f.Limit, f.Offset = page(f.Limit, f.Offset)

	items, err := s.reader.List(ctx, userID, f)
	if err != nil {
		logger.Log.Errorw("failed to list notifications", "userID", userID, "error", err)
		return nil, err
	}
	return items, nil
}

// ListUnread returns unread notifications.
func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.NotificationDB, error) {
	return s.List(ctx, userID, models.NotificationFilter{UnreadOnly: true})
}

// ListByCategory returns notifications whose type belongs to category.
func (s *NotificationService) ListByCategory(ctx context.Context, userID uuid.UUID, category string) ([]models.NotificationDB, error) {
	if category == "" {
		return nil, invalid("category", "required")
	}
	return s.List(ctx, userID, models.NotificationFilter{Category: category})
}

// MarkRead marks one notification as read. A notification owned by someone else is reported
// as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, callerID uuid.UUID) error {
	if err := s.writer.MarkRead(ctx, id, callerID); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return ErrNotFound
		}
		logger.Log.Errorw("failed to mark notification read", "id", id, "error", err)
		return err
	}
	return nil
}

// MarkAllRead marks every notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.writer.MarkAllRead(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to mark notifications read", "userID", userID, "error", err)
		return 0, err
	}
	return n, nil
}

// Delete removes one notification owned by the caller.
func (s *NotificationService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	if err := s.writer.Delete(ctx, id, callerID); err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return ErrNotFound
		}
		logger.Log.Errorw("failed to delete notification", "id", id, "error", err)
		return err
	}
	return nil
}

// DeleteAll empties the user's mailbox.
func (s *NotificationService) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.writer.DeleteAll(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to delete notifications", "userID", userID, "error", err)
		return 0, err
	}
	return n, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
