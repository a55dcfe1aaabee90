// File: internal/notification/service_test.go
package notification

import (
	"context"
	"testing"
	"time"

	"swapseva_backend/internal/common"
	"swapseva_backend/internal/config"
	"swapseva_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- Mocks ---

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	args := m.Called(ctx, notification)
	if args.Error(0) == nil && notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockNotificationRepository) CreateTx(tx *gorm.DB, notification *Notification) error {
	args := m.Called(tx, notification)
	if args.Error(0) == nil && notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, pageSize int) ([]Notification, *common.Pagination, error) {
	args := m.Called(ctx, recipientID, unreadOnly, page, pageSize)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Notification), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) SendToUser(userID uuid.UUID, event shared.Event) {
	m.Called(userID, event)
}

// --- Test Suite Setup ---

type NotificationServiceTestSuite struct {
	service   Service
	mockRepo  *MockNotificationRepository
	mockRelay *MockRelay
}

func setupNotificationServiceTestSuite(t *testing.T) *NotificationServiceTestSuite {
	ts := &NotificationServiceTestSuite{
		mockRepo:  new(MockNotificationRepository),
		mockRelay: new(MockRelay),
	}
	cfg := &config.Config{NotificationLifespanDays: 30}
	ts.service = NewService(ts.mockRepo, ts.mockRelay, cfg, zap.NewNop())
	return ts
}

// --- Tests ---

func TestNotificationService_CreateNotification_SetsExpiryAndPublishes(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	recipientID := uuid.New()

	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Run(func(args mock.Arguments) {
		n := args.Get(1).(*Notification)
		assert.Equal(t, PriorityNormal, n.Priority)
		assert.NotNil(t, n.ExpiresAt)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *n.ExpiresAt, time.Minute)
	}).Return(nil)
	ts.mockRelay.On("SendToUser", recipientID, mock.MatchedBy(func(event shared.Event) bool {
		return event.Type == shared.EventPlatformNotification
	})).Return()

	created, err := ts.service.CreateNotification(ctx, CreateInput{
		RecipientID: recipientID,
		Type:        TypeSystem,
		Title:       "Welcome",
		Message:     "Welcome to the platform.",
	})

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	ts.mockRepo.AssertExpectations(t)
	ts.mockRelay.AssertExpectations(t)
}

func TestNotificationService_CreateNotification_InvalidInput(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)

	_, err := ts.service.CreateNotification(context.Background(), CreateInput{
		RecipientID: uuid.Nil,
		Type:        TypeSystem,
		Message:     "no recipient",
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	ts.mockRelay.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything)
}

func TestNotificationService_CreateNotificationTx_DoesNotPublish(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	recipientID := uuid.New()

	ts.mockRepo.On("CreateTx", mock.Anything, mock.AnythingOfType("*notification.Notification")).Return(nil)

	created, err := ts.service.CreateNotificationTx(nil, CreateInput{
		RecipientID: recipientID,
		Type:        TypeTradeConfirmed,
		Message:     "Your trade is confirmed.",
	})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	// Publishing happens after commit, via an explicit Publish call.
	ts.mockRelay.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything)

	ts.mockRelay.On("SendToUser", recipientID, mock.AnythingOfType("shared.Event")).Return()
	ts.service.Publish(created)
	ts.mockRelay.AssertExpectations(t)
}

func TestNotificationService_Publish_NilRelayIsNoop(t *testing.T) {
	mockRepo := new(MockNotificationRepository)
	service := NewService(mockRepo, nil, &config.Config{}, zap.NewNop())

	// Must not panic without a relay wired.
	service.Publish(&Notification{ID: uuid.New(), RecipientID: uuid.New()})
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	recipientID := uuid.New()

	ts.mockRepo.On("MarkAllAsRead", ctx, recipientID).Return(int64(4), nil)

	count, err := ts.service.MarkAllAsRead(ctx, recipientID)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestNotificationService_PurgeExpired(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(7), nil)

	count, err := ts.service.PurgeExpired(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
