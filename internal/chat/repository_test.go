// File: internal/chat/repository_test.go
package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupChatRepositoryTest(t *testing.T) Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// An in-memory sqlite database exists per connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Chat{}, &Message{}))
	return NewGORMRepository(db)
}

func createTestChat(t *testing.T, repo Repository, initiatorID, responderID uuid.UUID) *Chat {
	t.Helper()
	c := &Chat{
		InitiatorID:         initiatorID,
		ResponderID:         responderID,
		InitiatorOfferingID: uuid.New(),
		ResponderOfferingID: uuid.New(),
		Status:              StatusConfirmed,
		ConfirmedAt:         time.Now(),
	}
	gormRepo := repo.(*GORMRepository)
	require.NoError(t, repo.CreateTx(gormRepo.db, c))
	return c
}

func TestChatRepository_AppendMessage_IncrementsCounterpartCounter(t *testing.T) {
	repo := setupChatRepositoryTest(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	responderID := uuid.New()
	c := createTestChat(t, repo, initiatorID, responderID)

	err := repo.AppendMessage(ctx, c, &Message{ChatID: c.ID, SenderID: initiatorID, Content: "hello"})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.InitiatorUnread)
	assert.Equal(t, 1, reloaded.ResponderUnread)

	// A reply bumps the other counter only.
	err = repo.AppendMessage(ctx, c, &Message{ChatID: c.ID, SenderID: responderID, Content: "hi there"})
	require.NoError(t, err)

	reloaded, err = repo.FindByID(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.InitiatorUnread)
	assert.Equal(t, 1, reloaded.ResponderUnread)
}

func TestChatRepository_MarkRead_ZeroesCounterAndFlagsMessages(t *testing.T) {
	repo := setupChatRepositoryTest(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	responderID := uuid.New()
	c := createTestChat(t, repo, initiatorID, responderID)

	require.NoError(t, repo.AppendMessage(ctx, c, &Message{ChatID: c.ID, SenderID: initiatorID, Content: "one"}))
	require.NoError(t, repo.AppendMessage(ctx, c, &Message{ChatID: c.ID, SenderID: initiatorID, Content: "two"}))

	reloaded, err := repo.FindByID(ctx, c.ID, false)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.ResponderUnread)

	require.NoError(t, repo.MarkRead(ctx, reloaded, responderID))

	reloaded, err = repo.FindByID(ctx, c.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.ResponderUnread)
	require.Len(t, reloaded.Messages, 2)
	for _, msg := range reloaded.Messages {
		assert.True(t, msg.IsRead)
	}

	// Marking an already-read chat is a no-op, not an error.
	require.NoError(t, repo.MarkRead(ctx, reloaded, responderID))
}

func TestChatRepository_MarkRead_DoesNotTouchOwnCounter(t *testing.T) {
	repo := setupChatRepositoryTest(t)
	ctx := context.Background()

	initiatorID := uuid.New()
	responderID := uuid.New()
	c := createTestChat(t, repo, initiatorID, responderID)

	// Responder has sent a message the initiator has not read yet.
	require.NoError(t, repo.AppendMessage(ctx, c, &Message{ChatID: c.ID, SenderID: responderID, Content: "ping"}))

	reloaded, err := repo.FindByID(ctx, c.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.InitiatorUnread)

	// The responder marking the chat read must not clear the initiator's counter.
	require.NoError(t, repo.MarkRead(ctx, reloaded, responderID))

	reloaded, err = repo.FindByID(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.InitiatorUnread)
	assert.Equal(t, 0, reloaded.ResponderUnread)
}

func TestChatRepository_CompleteTrade_CASAllowsSingleCompletion(t *testing.T) {
	repo := setupChatRepositoryTest(t)
	ctx := context.Background()

	c := createTestChat(t, repo, uuid.New(), uuid.New())

	firstCompletedAt := time.Now()
	swapped, err := repo.CompleteTrade(ctx, c.ID, firstCompletedAt)
	require.NoError(t, err)
	assert.True(t, swapped)

	afterFirst, err := repo.FindByID(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, afterFirst.Status)
	require.NotNil(t, afterFirst.CompletedAt)

	// A second completion attempt loses the CAS and leaves the row untouched.
	swapped, err = repo.CompleteTrade(ctx, c.ID, firstCompletedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, swapped)

	afterSecond, err := repo.FindByID(ctx, c.ID, false)
	require.NoError(t, err)
	require.NotNil(t, afterSecond.CompletedAt)
	assert.WithinDuration(t, *afterFirst.CompletedAt, *afterSecond.CompletedAt, time.Second)
}

func TestChatRepository_ListForUser_OrdersByRecentActivity(t *testing.T) {
	repo := setupChatRepositoryTest(t)
	ctx := context.Background()

	userID := uuid.New()
	older := createTestChat(t, repo, userID, uuid.New())
	time.Sleep(20 * time.Millisecond)
	newer := createTestChat(t, repo, uuid.New(), userID)
	time.Sleep(20 * time.Millisecond)

	chats, err := repo.ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, newer.ID, chats[0].ID)
	assert.Equal(t, older.ID, chats[1].ID)

	// Appending a message touches updated_at and reorders the list.
	require.NoError(t, repo.AppendMessage(ctx, older, &Message{ChatID: older.ID, SenderID: userID, Content: "bump"}))

	chats, err = repo.ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, older.ID, chats[0].ID)
}

func TestChatRepository_FindLastMessages_ReturnsNewestPerChat(t *testing.T) {
	repo := setupChatRepositoryTest(t)
	ctx := context.Background()

	userID := uuid.New()
	c := createTestChat(t, repo, userID, uuid.New())

	require.NoError(t, repo.AppendMessage(ctx, c, &Message{ChatID: c.ID, SenderID: userID, Content: "first"}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.AppendMessage(ctx, c, &Message{ChatID: c.ID, SenderID: userID, Content: "second"}))

	lastMessages, err := repo.FindLastMessages(ctx, []uuid.UUID{c.ID})
	require.NoError(t, err)
	require.Contains(t, lastMessages, c.ID)
	assert.Equal(t, "second", lastMessages[c.ID].Content)

	empty, err := repo.FindLastMessages(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
