// File: internal/chat/repository.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for chat data operations.
type Repository interface {
	// CreateTx inserts a chat within an existing transaction; chat creation
	// always rides the trade-confirmation transaction.
	CreateTx(tx *gorm.DB, chat *Chat) error
	FindByID(ctx context.Context, id uuid.UUID, withMessages bool) (*Chat, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error)
	FindLastMessages(ctx context.Context, chatIDs []uuid.UUID) (map[uuid.UUID]Message, error)
	// AppendMessage inserts the message and atomically increments the
	// counterpart's unread counter.
	AppendMessage(ctx context.Context, chat *Chat, message *Message) error
	// MarkRead zeroes the reader's unread counter and flags the other
	// participant's messages as read. Idempotent.
	MarkRead(ctx context.Context, chat *Chat, readerID uuid.UUID) error
	// CompleteTrade transitions confirmed -> completed. Returns false when the
	// chat was not in the confirmed state (already completed by a concurrent
	// or earlier call).
	CompleteTrade(ctx context.Context, chatID uuid.UUID, completedAt time.Time) (bool, error)
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM chat repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db}
}

// CreateTx inserts a new chat using the provided transaction handle.
func (r *GORMRepository) CreateTx(tx *gorm.DB, chat *Chat) error {
	if err := tx.Create(chat).Error; err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

// FindByID retrieves a chat, optionally with its messages in ascending order.
func (r *GORMRepository) FindByID(ctx context.Context, id uuid.UUID, withMessages bool) (*Chat, error) {
	var chat Chat
	query := r.db.WithContext(ctx)
	if withMessages {
		query = query.Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC")
		})
	}
	err := query.Where("id = ?", id).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Chat not found.")
		}
		return nil, fmt.Errorf("failed to find chat %s: %w", id, err)
	}
	return &chat, nil
}

// ListForUser retrieves all chats a user participates in, most recently
// updated first.
func (r *GORMRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	var chats []Chat
	err := r.db.WithContext(ctx).
		Where("initiator_id = ? OR responder_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for user %s: %w", userID, err)
	}
	return chats, nil
}

// FindLastMessages returns the newest message per chat for the given ids.
func (r *GORMRepository) FindLastMessages(ctx context.Context, chatIDs []uuid.UUID) (map[uuid.UUID]Message, error) {
	result := make(map[uuid.UUID]Message, len(chatIDs))
	if len(chatIDs) == 0 {
		return result, nil
	}

	var messages []Message
	err := r.db.WithContext(ctx).
		Where("chat_id IN ?", chatIDs).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load last messages: %w", err)
	}

	for _, msg := range messages {
		if _, seen := result[msg.ChatID]; !seen {
			result[msg.ChatID] = msg
		}
	}
	return result, nil
}

// AppendMessage inserts the message and bumps the counterpart's unread counter
// in one transaction. The increment happens in SQL so concurrent sends cannot
// lose updates.
func (r *GORMRepository) AppendMessage(ctx context.Context, chat *Chat, message *Message) error {
	counterColumn := "responder_unread"
	if message.SenderID == chat.ResponderID {
		counterColumn = "initiator_unread"
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		err := tx.Model(&Chat{}).
			Where("id = ?", chat.ID).
			Updates(map[string]interface{}{
				counterColumn: gorm.Expr(counterColumn+" + ?", 1),
				"updated_at":  time.Now(),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to increment unread counter: %w", err)
		}
		return nil
	})
}

// MarkRead zeroes the reader's counter and marks the counterpart's messages read.
func (r *GORMRepository) MarkRead(ctx context.Context, chat *Chat, readerID uuid.UUID) error {
	counterColumn := "initiator_unread"
	if readerID == chat.ResponderID {
		counterColumn = "responder_unread"
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Chat{}).
			Where("id = ?", chat.ID).
			Update(counterColumn, 0).Error
		if err != nil {
			return fmt.Errorf("failed to reset unread counter: %w", err)
		}
		err = tx.Model(&Message{}).
			Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chat.ID, readerID, false).
			Update("is_read", true).Error
		if err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}
		return nil
	})
}

// CompleteTrade performs the compare-and-swap confirmed -> completed transition.
func (r *GORMRepository) CompleteTrade(ctx context.Context, chatID uuid.UUID, completedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Chat{}).
		Where("id = ? AND status = ?", chatID, StatusConfirmed).
		Updates(map[string]interface{}{
			"status":       StatusCompleted,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete trade for chat %s: %w", chatID, result.Error)
	}
	return result.RowsAffected > 0, nil
}
