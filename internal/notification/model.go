// File: internal/notification/model.go
package notification

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Type defines the kind of notification being delivered.
type Type string

const (
	TypeBarterRequest   Type = "barter_request"
	TypeBarterAccepted  Type = "barter_accepted"
	TypeTradeConfirmed  Type = "trade_confirmed"
	TypeTradeDeclined   Type = "trade_declined"
	TypeMessage         Type = "message"
	TypeBarterCompleted Type = "barter_completed"
	TypeSystem          Type = "system"
)

// Priority levels for notifications.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// JSONMap stores an arbitrary JSON object in a single column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONMap", value)
	}
	return json.Unmarshal(bytes, m)
}

// Notification is a delivery record pointing at workflow entities via its
// Data bag. Immutable once created, except for the read state.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index:idx_notifications_recipient_read" json:"recipient_id"`
	SenderID    *uuid.UUID `gorm:"type:uuid" json:"sender_id,omitempty"`
	Type        Type       `gorm:"type:varchar(50);not null" json:"type"`
	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	Data        JSONMap    `gorm:"type:jsonb" json:"data,omitempty"`
	IsRead      bool       `gorm:"not null;default:false;index:idx_notifications_recipient_read" json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	Priority    string     `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	CreatedAt   time.Time  `gorm:"not null;default:current_timestamp" json:"created_at"`
	ExpiresAt   *time.Time `gorm:"index:idx_notifications_expires_at" json:"expires_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// CreateInput carries the fields a caller provides when creating a notification.
type CreateInput struct {
	RecipientID uuid.UUID
	SenderID    *uuid.UUID
	Type        Type
	Title       string
	Message     string
	Data        JSONMap
	Priority    string
}

// Validate checks required fields on the create input.
func (in CreateInput) Validate() error {
	if in.RecipientID == uuid.Nil {
		return errors.New("recipient id is required")
	}
	if in.Type == "" {
		return errors.New("notification type is required")
	}
	if in.Message == "" {
		return errors.New("notification message is required")
	}
	return nil
}

// UnreadCountResponse is the payload for the unread-count endpoint.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
