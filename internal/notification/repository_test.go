// File: internal/notification/repository_test.go
package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupNotificationRepositoryTest(t *testing.T) Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// An in-memory sqlite database exists per connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Notification{}))
	return NewGORMRepository(db)
}

func createTestNotification(t *testing.T, repo Repository, recipientID uuid.UUID, mutate func(*Notification)) *Notification {
	t.Helper()
	n := &Notification{
		RecipientID: recipientID,
		Type:        TypeSystem,
		Title:       "Test",
		Message:     "test message",
		Priority:    PriorityNormal,
	}
	if mutate != nil {
		mutate(n)
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestNotificationRepository_Create_AssignsID(t *testing.T) {
	repo := setupNotificationRepositoryTest(t)

	n := createTestNotification(t, repo, uuid.New(), func(n *Notification) {
		n.Data = JSONMap{"trade_request_id": uuid.New().String()}
	})

	assert.NotEqual(t, uuid.Nil, n.ID)

	found, err := repo.FindByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.RecipientID, found.RecipientID)
	assert.Contains(t, found.Data, "trade_request_id")
	assert.False(t, found.IsRead)
}

func TestNotificationRepository_FindByID_NotFound(t *testing.T) {
	repo := setupNotificationRepositoryTest(t)

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
}

func TestNotificationRepository_MarkAsRead_Idempotent(t *testing.T) {
	repo := setupNotificationRepositoryTest(t)
	ctx := context.Background()

	recipientID := uuid.New()
	n := createTestNotification(t, repo, recipientID, nil)

	require.NoError(t, repo.MarkAsRead(ctx, n.ID, recipientID))

	found, err := repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, found.IsRead)
	assert.NotNil(t, found.ReadAt)

	// A repeat call succeeds without touching the original read time.
	firstReadAt := *found.ReadAt
	require.NoError(t, repo.MarkAsRead(ctx, n.ID, recipientID))

	found, err = repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, firstReadAt, *found.ReadAt, time.Second)
}

func TestNotificationRepository_MarkAsRead_WrongRecipient(t *testing.T) {
	repo := setupNotificationRepositoryTest(t)
	ctx := context.Background()

	n := createTestNotification(t, repo, uuid.New(), nil)

	err := repo.MarkAsRead(ctx, n.ID, uuid.New())

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)

	found, findErr := repo.FindByID(ctx, n.ID)
	require.NoError(t, findErr)
	assert.False(t, found.IsRead)
}

func TestNotificationRepository_MarkAllAsRead(t *testing.T) {
	repo := setupNotificationRepositoryTest(t)
	ctx := context.Background()

	recipientID := uuid.New()
	otherID := uuid.New()
	createTestNotification(t, repo, recipientID, nil)
	createTestNotification(t, repo, recipientID, nil)
	createTestNotification(t, repo, otherID, nil)

	count, err := repo.MarkAllAsRead(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	unread, err := repo.CountUnread(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// The other user's notifications are untouched.
	otherUnread, err := repo.CountUnread(ctx, otherID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), otherUnread)
}

func TestNotificationRepository_GetByRecipient_UnreadFilterAndPagination(t *testing.T) {
	repo := setupNotificationRepositoryTest(t)
	ctx := context.Background()

	recipientID := uuid.New()
	for i := 0; i < 5; i++ {
		createTestNotification(t, repo, recipientID, func(n *Notification) {
			n.Message = fmt.Sprintf("message %d", i)
		})
	}
	read := createTestNotification(t, repo, recipientID, nil)
	require.NoError(t, repo.MarkAsRead(ctx, read.ID, recipientID))

	all, pagination, err := repo.GetByRecipient(ctx, recipientID, false, 1, 10)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, int64(6), pagination.TotalItems)

	unread, pagination, err := repo.GetByRecipient(ctx, recipientID, true, 1, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 5)
	assert.Equal(t, int64(5), pagination.TotalItems)

	page2, pagination, err := repo.GetByRecipient(ctx, recipientID, false, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.Equal(t, 2, pagination.TotalPages)
}

func TestNotificationRepository_DeleteExpired(t *testing.T) {
	repo := setupNotificationRepositoryTest(t)
	ctx := context.Background()

	recipientID := uuid.New()
	expired := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	createTestNotification(t, repo, recipientID, func(n *Notification) { n.ExpiresAt = &expired })
	keepFuture := createTestNotification(t, repo, recipientID, func(n *Notification) { n.ExpiresAt = &future })
	keepForever := createTestNotification(t, repo, recipientID, nil)

	count, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.FindByID(ctx, keepFuture.ID)
	assert.NoError(t, err)
	_, err = repo.FindByID(ctx, keepForever.ID)
	assert.NoError(t, err)
}
