// File: internal/chat/service_test.go
package chat

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"swapseva_backend/internal/common"
	"swapseva_backend/internal/notification"
	"swapseva_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- Mocks ---

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) CreateTx(tx *gorm.DB, chat *Chat) error {
	args := m.Called(tx, chat)
	return args.Error(0)
}

func (m *MockChatRepository) FindByID(ctx context.Context, id uuid.UUID, withMessages bool) (*Chat, error) {
	args := m.Called(ctx, id, withMessages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Chat), args.Error(1)
}

func (m *MockChatRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Chat), args.Error(1)
}

func (m *MockChatRepository) FindLastMessages(ctx context.Context, chatIDs []uuid.UUID) (map[uuid.UUID]Message, error) {
	args := m.Called(ctx, chatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]Message), args.Error(1)
}

func (m *MockChatRepository) AppendMessage(ctx context.Context, chat *Chat, message *Message) error {
	args := m.Called(ctx, chat, message)
	if args.Error(0) == nil && message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockChatRepository) MarkRead(ctx context.Context, chat *Chat, readerID uuid.UUID) error {
	args := m.Called(ctx, chat, readerID)
	return args.Error(0)
}

func (m *MockChatRepository) CompleteTrade(ctx context.Context, chatID uuid.UUID, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, chatID, completedAt)
	return args.Bool(0), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) CreateNotification(ctx context.Context, input notification.CreateInput) (*notification.Notification, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotificationService) CreateNotificationTx(tx *gorm.DB, input notification.CreateInput) (*notification.Notification, error) {
	args := m.Called(tx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotificationService) Publish(n *notification.Notification) {
	m.Called(n)
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, pageSize int) ([]notification.Notification, *common.Pagination, error) {
	args := m.Called(ctx, recipientID, unreadOnly, page, pageSize)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]notification.Notification), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockNotificationService) GetNotificationByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*shared.User), args.Get(1).(*shared.TokenResponse), args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*shared.User), args.Get(1).(*shared.TokenResponse), args.Error(2)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, req shared.UpdateProfileRequest) (*shared.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) SendToUser(userID uuid.UUID, event shared.Event) {
	m.Called(userID, event)
}

// --- Test Suite Setup ---

type ChatServiceTestSuite struct {
	service          Service
	mockRepo         *MockChatRepository
	mockNotification *MockNotificationService
	mockUsers        *MockUserService
	mockRelay        *MockRelay
}

func setupChatServiceTestSuite(t *testing.T) *ChatServiceTestSuite {
	ts := &ChatServiceTestSuite{
		mockRepo:         new(MockChatRepository),
		mockNotification: new(MockNotificationService),
		mockUsers:        new(MockUserService),
		mockRelay:        new(MockRelay),
	}
	ts.service = NewService(ts.mockRepo, ts.mockNotification, ts.mockUsers, ts.mockRelay, zap.NewNop())
	return ts
}

func confirmedChat(initiatorID, responderID uuid.UUID) *Chat {
	c := &Chat{
		InitiatorID:         initiatorID,
		ResponderID:         responderID,
		InitiatorOfferingID: uuid.New(),
		ResponderOfferingID: uuid.New(),
		Status:              StatusConfirmed,
		ConfirmedAt:         time.Now(),
	}
	c.ID = uuid.New()
	return c
}

func eventOfType(eventType shared.EventType) interface{} {
	return mock.MatchedBy(func(event shared.Event) bool {
		return event.Type == eventType
	})
}

// --- SendMessage ---

func TestChatService_SendMessage_Success(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	responderID := uuid.New()
	c := confirmedChat(initiatorID, responderID)

	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(c, nil)
	ts.mockRepo.On("AppendMessage", ctx, c, mock.AnythingOfType("*chat.Message")).Run(func(args mock.Arguments) {
		msg := args.Get(2).(*Message)
		assert.Equal(t, c.ID, msg.ChatID)
		assert.Equal(t, initiatorID, msg.SenderID)
		assert.Equal(t, "Is the guitar still available?", msg.Content)
	}).Return(nil)
	ts.mockNotification.On("CreateNotification", ctx, mock.MatchedBy(func(input notification.CreateInput) bool {
		return input.RecipientID == responderID && input.Type == notification.TypeMessage
	})).Return(&notification.Notification{}, nil)
	ts.mockRelay.On("SendToUser", responderID, eventOfType(shared.EventNewMessage)).Return()

	message, err := ts.service.SendMessage(ctx, initiatorID, SendMessageRequest{
		ChatID:  c.ID,
		Content: "  Is the guitar still available?  ",
	})

	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NotEqual(t, uuid.Nil, message.ID)
	ts.mockRepo.AssertExpectations(t)
	ts.mockNotification.AssertExpectations(t)
	ts.mockRelay.AssertExpectations(t)
}

func TestChatService_SendMessage_EmptyContent(t *testing.T) {
	ts := setupChatServiceTestSuite(t)

	_, err := ts.service.SendMessage(context.Background(), uuid.New(), SendMessageRequest{
		ChatID:  uuid.New(),
		Content: "   ",
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_NotParticipant(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	c := confirmedChat(uuid.New(), uuid.New())
	intruderID := uuid.New()

	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(c, nil)

	_, err := ts.service.SendMessage(ctx, intruderID, SendMessageRequest{
		ChatID:  c.ID,
		Content: "hello",
	})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_NotificationFailureDoesNotFailSend(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	responderID := uuid.New()
	c := confirmedChat(initiatorID, responderID)

	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(c, nil)
	ts.mockRepo.On("AppendMessage", ctx, c, mock.AnythingOfType("*chat.Message")).Return(nil)
	ts.mockNotification.On("CreateNotification", ctx, mock.Anything).
		Return(nil, common.ErrInternalServer)
	ts.mockRelay.On("SendToUser", responderID, eventOfType(shared.EventNewMessage)).Return()

	message, err := ts.service.SendMessage(ctx, initiatorID, SendMessageRequest{
		ChatID:  c.ID,
		Content: "hello",
	})

	assert.NoError(t, err)
	assert.NotNil(t, message)
	ts.mockRelay.AssertExpectations(t)
}

func TestTruncateForPreview_KeepsRuneBoundaries(t *testing.T) {
	long := strings.Repeat("é", 200)
	preview := truncateForPreview(long)
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, strings.Repeat("é", 120)+"…", preview)

	short := "see you at the park"
	assert.Equal(t, short, truncateForPreview(short))
}

// --- MarkRead ---

func TestChatService_MarkRead_Success(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	c := confirmedChat(initiatorID, uuid.New())

	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(c, nil)
	ts.mockRepo.On("MarkRead", ctx, c, initiatorID).Return(nil)

	err := ts.service.MarkRead(ctx, c.ID, initiatorID)

	assert.NoError(t, err)
	ts.mockRepo.AssertExpectations(t)
}

func TestChatService_MarkRead_NotParticipant(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	c := confirmedChat(uuid.New(), uuid.New())

	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(c, nil)

	err := ts.service.MarkRead(ctx, c.ID, uuid.New())

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
}

// --- CompleteTrade ---

func TestChatService_CompleteTrade_Success(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	responderID := uuid.New()
	c := confirmedChat(initiatorID, responderID)

	completedAt := time.Now()
	completed := *c
	completed.Status = StatusCompleted
	completed.CompletedAt = &completedAt

	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(c, nil).Once()
	ts.mockRepo.On("CompleteTrade", ctx, c.ID, mock.AnythingOfType("time.Time")).Return(true, nil)
	ts.mockNotification.On("CreateNotification", ctx, mock.MatchedBy(func(input notification.CreateInput) bool {
		return input.RecipientID == responderID && input.Type == notification.TypeBarterCompleted
	})).Return(&notification.Notification{}, nil)
	ts.mockRelay.On("SendToUser", initiatorID, eventOfType(shared.EventTradeCompleted)).Return()
	ts.mockRelay.On("SendToUser", responderID, eventOfType(shared.EventTradeCompleted)).Return()
	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(&completed, nil).Once()

	result, err := ts.service.CompleteTrade(ctx, c.ID, initiatorID)

	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.NotNil(t, result.CompletedAt)
	ts.mockRepo.AssertExpectations(t)
	ts.mockNotification.AssertExpectations(t)
	ts.mockRelay.AssertExpectations(t)
}

func TestChatService_CompleteTrade_RepeatFails(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	c := confirmedChat(initiatorID, uuid.New())
	c.Status = StatusCompleted

	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(c, nil)
	// The CAS loses: the chat left the confirmed state already.
	ts.mockRepo.On("CompleteTrade", ctx, c.ID, mock.AnythingOfType("time.Time")).Return(false, nil)

	_, err := ts.service.CompleteTrade(ctx, c.ID, initiatorID)

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrInvalidState.Code, apiErr.Code)
	ts.mockNotification.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
	ts.mockRelay.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything)
}

func TestChatService_CompleteTrade_NotParticipant(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	c := confirmedChat(uuid.New(), uuid.New())

	ts.mockRepo.On("FindByID", ctx, c.ID, false).Return(c, nil)

	_, err := ts.service.CompleteTrade(ctx, c.ID, uuid.New())

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrForbidden.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "CompleteTrade", mock.Anything, mock.Anything, mock.Anything)
}

// --- GetChat ---

func TestChatService_GetChat_MarksReadAndReturnsCounterpart(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	responderID := uuid.New()
	c := confirmedChat(initiatorID, responderID)
	c.InitiatorUnread = 3
	c.Messages = []Message{
		{ID: uuid.New(), ChatID: c.ID, SenderID: responderID, Content: "hi"},
		{ID: uuid.New(), ChatID: c.ID, SenderID: initiatorID, Content: "hello"},
	}

	firstName := "Bao"
	ts.mockRepo.On("FindByID", ctx, c.ID, true).Return(c, nil)
	ts.mockRepo.On("MarkRead", ctx, c, initiatorID).Return(nil)
	ts.mockUsers.On("GetUserByID", ctx, responderID).Return(&shared.User{
		ID:        responderID,
		Email:     "bao@example.com",
		FirstName: &firstName,
	}, nil)

	response, err := ts.service.GetChat(ctx, c.ID, initiatorID)

	assert.NoError(t, err)
	assert.Equal(t, 0, response.UnreadCount[initiatorID.String()])
	assert.Len(t, response.Messages, 2)
	// The fetch marked the counterpart's message read; the response reflects it.
	assert.True(t, response.Messages[0].IsRead)
	assert.False(t, response.Messages[1].IsRead)
	assert.Equal(t, responderID, response.Counterpart.ID)
	assert.Equal(t, &firstName, response.Counterpart.FirstName)
	ts.mockRepo.AssertExpectations(t)
}

// --- ListChatsForUser ---

func TestChatService_ListChatsForUser_IncludesLastMessages(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	userID := uuid.New()
	counterpartID := uuid.New()
	c := confirmedChat(userID, counterpartID)
	last := Message{ID: uuid.New(), ChatID: c.ID, SenderID: counterpartID, Content: "see you then"}

	ts.mockRepo.On("ListForUser", ctx, userID).Return([]Chat{*c}, nil)
	ts.mockRepo.On("FindLastMessages", ctx, []uuid.UUID{c.ID}).
		Return(map[uuid.UUID]Message{c.ID: last}, nil)
	ts.mockUsers.On("GetUserByID", ctx, counterpartID).Return(&shared.User{ID: counterpartID, Email: "bao@example.com"}, nil)

	responses, err := ts.service.ListChatsForUser(ctx, userID)

	assert.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.NotNil(t, responses[0].LastMessage)
	assert.Equal(t, last.ID, responses[0].LastMessage.ID)
	assert.Equal(t, counterpartID, responses[0].Counterpart.ID)
	ts.mockRepo.AssertExpectations(t)
}
