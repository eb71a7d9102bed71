package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-backoffice/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWriter := NewMockNotificationWriter(ctrl)
	mockReader := NewMockNotificationReader(ctrl)
	mockKafka := NewMockKafkaWriter(ctrl)
	svc := NewNotificationService(mockWriter, mockReader, mockKafka)

	userID := uuid.New()
	itemID := uuid.New()
	reason := "blurry card"

	tests := []struct {
		name       string
		userID     uuid.UUID
		typ        models.NotificationType
		message    string
		ref        models.Reference
		setupMocks func()
		wantErr    bool
		validation bool
	}{
		{
			name:    "recorded and published",
			userID:  userID,
			typ:     models.NotificationMarketUploadCancel,
			message: "Your trade was cancelled",
			ref:     models.SettlementRef(itemID),
			setupMocks: func() {
				mockWriter.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, n *models.NotificationDB) error {
						assert.Equal(t, userID, n.UserID)
						assert.False(t, n.IsRead)
						require.NotNil(t, n.CancelReason)
						assert.Equal(t, reason, *n.CancelReason)
						return nil
					})
				mockKafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
						require.Len(t, msgs, 1)
						assert.Equal(t, userID.String(), string(msgs[0].Key))
						var n models.NotificationDB
						require.NoError(t, json.Unmarshal(msgs[0].Value, &n))
						assert.Equal(t, models.NotificationMarketUploadCancel, n.Type)
						assert.Equal(t, itemID, n.Reference.ID)
						return nil
					})
			},
		},
		{
			name:    "publish failure is not an error",
			userID:  userID,
			typ:     models.NotificationCredit,
			message: "Your wallet was credited with 10.00",
			ref:     models.WalletRef(userID),
			setupMocks: func() {
				mockWriter.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				mockKafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
		},
		{
			name:    "store failure",
			userID:  userID,
			typ:     models.NotificationCredit,
			message: "Your wallet was credited with 10.00",
			ref:     models.WalletRef(userID),
			setupMocks: func() {
				mockWriter.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantErr: true,
		},
		{
			name:       "unknown type",
			userID:     userID,
			typ:        "promo",
			message:    "hi",
			ref:        models.WalletRef(userID),
			setupMocks: func() {},
			wantErr:    true,
			validation: true,
		},
		{
			name:       "unknown reference kind",
			userID:     userID,
			typ:        models.NotificationCredit,
			message:    "hi",
			ref:        models.Reference{Kind: "Order", ID: uuid.New()},
			setupMocks: func() {},
			wantErr:    true,
			validation: true,
		},
		{
			name:       "missing user",
			typ:        models.NotificationCredit,
			message:    "hi",
			ref:        models.WalletRef(userID),
			setupMocks: func() {},
			wantErr:    true,
			validation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMocks()

			n, err := svc.Record(context.Background(), tt.userID, tt.typ, tt.message, "/link", tt.ref,
				models.NotificationExtra{CancelReason: &reason})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.validation, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, n.Type)
		})
	}
}

func TestNotificationService_NotifySwallowsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWriter := NewMockNotificationWriter(ctrl)
	svc := NewNotificationService(mockWriter, NewMockNotificationReader(ctrl), nil)

	mockWriter.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), uuid.New(), models.NotificationCredit, "credited", "", models.WalletRef(uuid.New()), models.NotificationExtra{})
	})
}

func TestNotificationService_Mailbox(t *testing.T) {
	ctx := context.Background()
	store := &memNotifications{}
	svc := NewNotificationService(store, store, nil)

	alice, bob := uuid.New(), uuid.New()
	credit, err := svc.Record(ctx, alice, models.NotificationCredit, "credited", "", models.WalletRef(alice), models.NotificationExtra{})
	require.NoError(t, err)
	_, err = svc.Record(ctx, alice, models.NotificationMarketUploadDone, "approved", "", models.SettlementRef(uuid.New()), models.NotificationExtra{})
	require.NoError(t, err)
	_, err = svc.Record(ctx, bob, models.NotificationRejected, "rejected", "", models.WithdrawalRef(uuid.New()), models.NotificationExtra{})
	require.NoError(t, err)

	items, err := svc.ListByCategory(ctx, alice, "transaction")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, credit.ID, items[0].ID)

	_, err = svc.ListByCategory(ctx, alice, "")
	assert.True(t, IsValidation(err))
	_, err = svc.List(ctx, alice, models.NotificationFilter{Category: "billing"})
	assert.True(t, IsValidation(err))

	assert.ErrorIs(t, svc.MarkRead(ctx, credit.ID, bob), ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, credit.ID, alice))

	unread, err := svc.ListUnread(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	n, err := svc.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.ErrorIs(t, svc.Delete(ctx, credit.ID, bob), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, credit.ID, alice))

	n, err = svc.DeleteAll(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := svc.List(ctx, bob, models.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, defaultPageSize, 0},
		{10, 20, 10, 20},
		{1000, -1, maxPageSize, 0},
	}
	for _, tt := range tests {
		limit, offset := page(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, limit)
		assert.Equal(t, tt.wantOffset, offset)
	}
}
