// File: internal/notification/repository.go
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for notification data operations.
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	// CreateTx inserts within an existing transaction; used by workflows that
	// must persist notifications atomically with other writes.
	CreateTx(tx *gorm.DB, notification *Notification) error
	GetByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, pageSize int) ([]Notification, *common.Pagination, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM notification repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db}
}

// Create inserts a new notification into the database.
func (r *GORMRepository) Create(ctx context.Context, notification *Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateTx inserts a notification using the provided transaction handle.
func (r *GORMRepository) CreateTx(tx *gorm.DB, notification *Notification) error {
	if err := tx.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification in transaction: %w", err)
	}
	return nil
}

// GetByRecipient retrieves a paginated list of a user's notifications, newest first.
func (r *GORMRepository) GetByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, pageSize int) ([]Notification, *common.Pagination, error) {
	var notifications []Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count notifications for %s: %w", recipientID, err)
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&notifications).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list notifications for %s: %w", recipientID, err)
	}

	pagination := common.NewPagination(total, page, pageSize)
	return notifications, pagination, nil
}

// FindByID retrieves a notification by its ID.
func (r *GORMRepository) FindByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var notification Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Notification not found.")
		}
		return nil, fmt.Errorf("failed to find notification %s: %w", id, err)
	}
	return &notification, nil
}

// MarkAsRead flags a notification as read. The recipientID guard enforces
// ownership; a repeat call is a no-op.
func (r *GORMRepository) MarkAsRead(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification %s as read: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&Notification{}).
			Where("id = ? AND recipient_id = ?", id, recipientID).Count(&count)
		if count == 0 {
			return common.ErrNotFound.WithDetails("Notification not found.")
		}
		// Already read; treat as success.
	}
	return nil
}

// MarkAllAsRead flags all of a user's unread notifications as read.
func (r *GORMRepository) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read for %s: %w", recipientID, result.Error)
	}
	return result.RowsAffected, nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *GORMRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for %s: %w", recipientID, err)
	}
	return count, nil
}

// DeleteExpired removes notifications whose expiry has passed.
func (r *GORMRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
