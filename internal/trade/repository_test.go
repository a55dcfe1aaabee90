// File: internal/trade/repository_test.go
package trade

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTradeRepositoryTest(t *testing.T) Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// An in-memory sqlite database exists per connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&TradeRequest{}))
	return NewGORMRepository(db)
}

func createTestTradeRequest(t *testing.T, repo Repository) *TradeRequest {
	t.Helper()
	tr := &TradeRequest{
		RequesterID:         uuid.New(),
		RecipientID:         uuid.New(),
		RequestedOfferingID: uuid.New(),
		OfferedItemIDs:      []string{uuid.New().String(), uuid.New().String()},
		Status:              StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), tr))
	return tr
}

func TestTradeRepository_Create_RoundTripsOfferedItems(t *testing.T) {
	repo := setupTradeRepositoryTest(t)
	ctx := context.Background()

	tr := createTestTradeRequest(t, repo)
	require.NotEqual(t, uuid.Nil, tr.ID)

	reloaded, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, reloaded.Status)
	assert.Equal(t, []string(tr.OfferedItemIDs), []string(reloaded.OfferedItemIDs))
	assert.Nil(t, reloaded.SelectedOfferingID)
}

func TestTradeRepository_Accept_CASAllowsSingleAcceptance(t *testing.T) {
	repo := setupTradeRepositoryTest(t)
	ctx := context.Background()

	tr := createTestTradeRequest(t, repo)
	firstPick := uuid.MustParse(tr.OfferedItemIDs[0])
	secondPick := uuid.MustParse(tr.OfferedItemIDs[1])

	swapped, err := repo.Accept(ctx, tr.ID, firstPick)
	require.NoError(t, err)
	assert.True(t, swapped)

	// A racing second accept loses the swap and must not overwrite the selection.
	swapped, err = repo.Accept(ctx, tr.ID, secondPick)
	require.NoError(t, err)
	assert.False(t, swapped)

	reloaded, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, reloaded.Status)
	require.NotNil(t, reloaded.SelectedOfferingID)
	assert.Equal(t, firstPick, *reloaded.SelectedOfferingID)
}

func TestTradeRepository_ConfirmTx_CASAllowsSingleConfirmation(t *testing.T) {
	repo := setupTradeRepositoryTest(t)
	ctx := context.Background()

	tr := createTestTradeRequest(t, repo)
	selected := uuid.MustParse(tr.OfferedItemIDs[0])

	// Confirming a request that was never accepted loses the swap.
	var swapped bool
	err := repo.Transaction(ctx, func(tx *gorm.DB) error {
		var txErr error
		swapped, txErr = repo.ConfirmTx(tx, tr.ID, uuid.New())
		return txErr
	})
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = repo.Accept(ctx, tr.ID, selected)
	require.NoError(t, err)
	require.True(t, swapped)

	chatID := uuid.New()
	err = repo.Transaction(ctx, func(tx *gorm.DB) error {
		var txErr error
		swapped, txErr = repo.ConfirmTx(tx, tr.ID, chatID)
		return txErr
	})
	require.NoError(t, err)
	assert.True(t, swapped)

	// The double confirm loses the swap and keeps the original chat.
	err = repo.Transaction(ctx, func(tx *gorm.DB) error {
		var txErr error
		swapped, txErr = repo.ConfirmTx(tx, tr.ID, uuid.New())
		return txErr
	})
	require.NoError(t, err)
	assert.False(t, swapped)

	reloaded, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, reloaded.Status)
	require.NotNil(t, reloaded.ChatID)
	assert.Equal(t, chatID, *reloaded.ChatID)
}

func TestTradeRepository_Decline_TerminalStateWinsOnce(t *testing.T) {
	repo := setupTradeRepositoryTest(t)
	ctx := context.Background()

	tr := createTestTradeRequest(t, repo)

	swapped, err := repo.Decline(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = repo.Decline(ctx, tr.ID)
	require.NoError(t, err)
	assert.False(t, swapped)

	// Declined is terminal: accepting after a decline loses the swap too.
	swapped, err = repo.Accept(ctx, tr.ID, uuid.MustParse(tr.OfferedItemIDs[0]))
	require.NoError(t, err)
	assert.False(t, swapped)

	reloaded, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, reloaded.Status)
}

func TestTradeRepository_Decline_AllowedFromAccepted(t *testing.T) {
	repo := setupTradeRepositoryTest(t)
	ctx := context.Background()

	tr := createTestTradeRequest(t, repo)
	swapped, err := repo.Accept(ctx, tr.ID, uuid.MustParse(tr.OfferedItemIDs[0]))
	require.NoError(t, err)
	require.True(t, swapped)

	swapped, err = repo.Decline(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, swapped)

	reloaded, err := repo.FindByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, reloaded.Status)
}

func TestTradeRepository_Decline_NotAllowedFromConfirmed(t *testing.T) {
	repo := setupTradeRepositoryTest(t)
	ctx := context.Background()

	tr := createTestTradeRequest(t, repo)
	swapped, err := repo.Accept(ctx, tr.ID, uuid.MustParse(tr.OfferedItemIDs[0]))
	require.NoError(t, err)
	require.True(t, swapped)

	err = repo.Transaction(ctx, func(tx *gorm.DB) error {
		var txErr error
		swapped, txErr = repo.ConfirmTx(tx, tr.ID, uuid.New())
		return txErr
	})
	require.NoError(t, err)
	require.True(t, swapped)

	swapped, err = repo.Decline(ctx, tr.ID)
	require.NoError(t, err)
	assert.False(t, swapped)
}
