// File: internal/notification/service.go
package notification

import (
	"context"
	"time"

	"swapseva_backend/internal/common"
	"swapseva_backend/internal/config"
	"swapseva_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service defines the interface for notification business logic.
type Service interface {
	CreateNotification(ctx context.Context, input CreateInput) (*Notification, error)
	// CreateNotificationTx persists a notification inside an existing
	// transaction without publishing. Callers publish after commit.
	CreateNotificationTx(tx *gorm.DB, input CreateInput) (*Notification, error)
	// Publish emits the realtime event for an already-persisted notification.
	Publish(notification *Notification)

	GetNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, pageSize int) ([]Notification, *common.Pagination, error)
	GetNotificationByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// ServiceImplementation provides notification business logic.
type ServiceImplementation struct {
	repo   Repository
	relay  shared.Relay
	cfg    *config.Config
	logger *zap.Logger
}

// NewService creates a new notification service. relay may be nil.
func NewService(repo Repository, relay shared.Relay, cfg *config.Config, logger *zap.Logger) Service {
	return &ServiceImplementation{
		repo:   repo,
		relay:  relay,
		cfg:    cfg,
		logger: logger.Named("NotificationService"),
	}
}

func (s *ServiceImplementation) build(input CreateInput) *Notification {
	priority := input.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	notification := &Notification{
		RecipientID: input.RecipientID,
		SenderID:    input.SenderID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		Data:        input.Data,
		Priority:    priority,
	}
	if s.cfg.NotificationLifespanDays > 0 {
		expiresAt := time.Now().AddDate(0, 0, s.cfg.NotificationLifespanDays)
		notification.ExpiresAt = &expiresAt
	}
	return notification
}

// CreateNotification persists a notification and publishes it to the relay.
func (s *ServiceImplementation) CreateNotification(ctx context.Context, input CreateInput) (*Notification, error) {
	if err := input.Validate(); err != nil {
		return nil, common.ErrBadRequest.WithDetails(err.Error())
	}

	notification := s.build(input)
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Error("Failed to create notification",
			zap.Error(err),
			zap.String("recipientID", input.RecipientID.String()),
			zap.String("type", string(input.Type)))
		return nil, common.ErrInternalServer.WithDetails("Could not create notification.")
	}

	s.Publish(notification)
	return notification, nil
}

// CreateNotificationTx persists a notification within the given transaction.
func (s *ServiceImplementation) CreateNotificationTx(tx *gorm.DB, input CreateInput) (*Notification, error) {
	if err := input.Validate(); err != nil {
		return nil, common.ErrBadRequest.WithDetails(err.Error())
	}
	notification := s.build(input)
	if err := s.repo.CreateTx(tx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// Publish emits a platform-notification event for the recipient. Best-effort:
// the database record is the source of truth, delivery may be missed.
func (s *ServiceImplementation) Publish(notification *Notification) {
	if s.relay == nil || notification == nil {
		return
	}
	s.relay.SendToUser(notification.RecipientID, shared.NewEvent(shared.EventPlatformNotification, notification))
}

// GetNotifications lists a user's notifications, newest first.
func (s *ServiceImplementation) GetNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page, pageSize int) ([]Notification, *common.Pagination, error) {
	notifications, pagination, err := s.repo.GetByRecipient(ctx, recipientID, unreadOnly, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.Error(err), zap.String("recipientID", recipientID.String()))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	return notifications, pagination, nil
}

// GetNotificationByID retrieves a notification without an ownership check.
// Callers enforce ownership where it matters.
func (s *ServiceImplementation) GetNotificationByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return s.repo.FindByID(ctx, id)
}

// MarkAsRead flags a notification read for its owner. Idempotent.
func (s *ServiceImplementation) MarkAsRead(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, recipientID)
}

// MarkAllAsRead flags all unread notifications read for a user.
func (s *ServiceImplementation) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllAsRead(ctx, recipientID)
	if err != nil {
		s.logger.Error("Failed to mark all notifications read", zap.Error(err), zap.String("recipientID", recipientID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not update notifications.")
	}
	return count, nil
}

// CountUnread returns the number of unread notifications for a user.
func (s *ServiceImplementation) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		s.logger.Error("Failed to count unread notifications", zap.Error(err), zap.String("recipientID", recipientID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	return count, nil
}

// PurgeExpired deletes notifications whose expiry has passed.
func (s *ServiceImplementation) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("Failed to purge expired notifications", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		s.logger.Info("Purged expired notifications", zap.Int64("count", count))
	}
	return count, nil
}
