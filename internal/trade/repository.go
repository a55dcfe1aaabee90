// File: internal/trade/repository.go
package trade

import (
	"context"
	"errors"
	"fmt"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for trade request data operations. All
// state transitions are compare-and-swap: the UPDATE carries the expected
// current status, and a zero RowsAffected means another call won the race.
type Repository interface {
	Create(ctx context.Context, tradeRequest *TradeRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*TradeRequest, error)
	// Accept transitions pending -> accepted, recording the selected item.
	Accept(ctx context.Context, id uuid.UUID, selectedOfferingID uuid.UUID) (bool, error)
	// ConfirmTx transitions accepted -> confirmed inside an existing
	// transaction, recording the created chat.
	ConfirmTx(tx *gorm.DB, id uuid.UUID, chatID uuid.UUID) (bool, error)
	// Decline transitions pending or accepted -> declined.
	Decline(ctx context.Context, id uuid.UUID) (bool, error)
	// Transaction runs fn inside a database transaction.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM trade repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db}
}

// Create inserts a new trade request into the database.
func (r *GORMRepository) Create(ctx context.Context, tradeRequest *TradeRequest) error {
	if err := r.db.WithContext(ctx).Create(tradeRequest).Error; err != nil {
		return fmt.Errorf("failed to create trade request: %w", err)
	}
	return nil
}

// FindByID retrieves a trade request by its ID.
func (r *GORMRepository) FindByID(ctx context.Context, id uuid.UUID) (*TradeRequest, error) {
	var tradeRequest TradeRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tradeRequest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Trade request not found.")
		}
		return nil, fmt.Errorf("failed to find trade request %s: %w", id, err)
	}
	return &tradeRequest, nil
}

// Accept performs the pending -> accepted compare-and-swap.
func (r *GORMRepository) Accept(ctx context.Context, id uuid.UUID, selectedOfferingID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&TradeRequest{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":               StatusAccepted,
			"selected_offering_id": selectedOfferingID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to accept trade request %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ConfirmTx performs the accepted -> confirmed compare-and-swap within tx.
func (r *GORMRepository) ConfirmTx(tx *gorm.DB, id uuid.UUID, chatID uuid.UUID) (bool, error) {
	result := tx.Model(&TradeRequest{}).
		Where("id = ? AND status = ?", id, StatusAccepted).
		Updates(map[string]interface{}{
			"status":  StatusConfirmed,
			"chat_id": chatID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to confirm trade request %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Decline moves a live trade request to the terminal declined state.
func (r *GORMRepository) Decline(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&TradeRequest{}).
		Where("id = ? AND status IN ?", id, []Status{StatusPending, StatusAccepted}).
		Update("status", StatusDeclined)
	if result.Error != nil {
		return false, fmt.Errorf("failed to decline trade request %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Transaction runs fn inside a database transaction.
func (r *GORMRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
