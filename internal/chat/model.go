// File: internal/chat/model.go
package chat

import (
	"time"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status of a chat's underlying trade.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
)

// Chat is the conversation materialized when a trade is confirmed. The
// initiator is the trade requester, the responder the offering owner.
// Unread counters are maintained with atomic SQL increments.
type Chat struct {
	common.BaseModel
	InitiatorID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_chats_initiator_id"`
	ResponderID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_chats_responder_id"`
	InitiatorOfferingID uuid.UUID  `gorm:"type:uuid;not null"`
	ResponderOfferingID uuid.UUID  `gorm:"type:uuid;not null"`
	Status              Status     `gorm:"type:varchar(20);not null;default:'confirmed'"`
	ConfirmedAt         time.Time  `gorm:"not null"`
	CompletedAt         *time.Time ``
	InitiatorUnread     int        `gorm:"not null;default:0"`
	ResponderUnread     int        `gorm:"not null;default:0"`
	Messages            []Message  `gorm:"foreignKey:ChatID"`
}

// TableName specifies the table name for the Chat model.
func (Chat) TableName() string {
	return "chats"
}

// IsParticipant reports whether userID is a party to the chat.
func (c *Chat) IsParticipant(userID uuid.UUID) bool {
	return c.InitiatorID == userID || c.ResponderID == userID
}

// CounterpartID returns the other participant's id.
func (c *Chat) CounterpartID(userID uuid.UUID) uuid.UUID {
	if c.InitiatorID == userID {
		return c.ResponderID
	}
	return c.InitiatorID
}

// UnreadFor returns the unread counter for the given participant.
func (c *Chat) UnreadFor(userID uuid.UUID) int {
	if c.InitiatorID == userID {
		return c.InitiatorUnread
	}
	return c.ResponderUnread
}

// Message is a single chat message. Immutable except for the read flag.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_chat_id" json:"chat_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"not null;default:current_timestamp" json:"created_at"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

// SendMessageRequest defines the payload for sending a chat message.
type SendMessageRequest struct {
	ChatID  uuid.UUID `json:"chat_id" binding:"required"`
	Content string    `json:"content" binding:"required,max=5000"`
}

// ParticipantInfo is the counterpart summary embedded in chat responses.
type ParticipantInfo struct {
	ID                uuid.UUID `json:"id"`
	FirstName         *string   `json:"first_name,omitempty"`
	LastName          *string   `json:"last_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
}

// ChatResponse defines the structure for chat data in API responses.
// UnreadCount is keyed by participant id so clients can pick their own entry.
type ChatResponse struct {
	ID                  uuid.UUID        `json:"id"`
	InitiatorID         uuid.UUID        `json:"initiator_id"`
	ResponderID         uuid.UUID        `json:"responder_id"`
	InitiatorOfferingID uuid.UUID        `json:"initiator_offering_id"`
	ResponderOfferingID uuid.UUID        `json:"responder_offering_id"`
	Status              Status           `json:"status"`
	ConfirmedAt         time.Time        `json:"confirmed_at"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty"`
	UnreadCount         map[string]int   `json:"unread_count"`
	Counterpart         *ParticipantInfo `json:"counterpart,omitempty"`
	LastMessage         *Message         `json:"last_message,omitempty"`
	Messages            []Message        `json:"messages,omitempty"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ToChatResponse converts a Chat model to a ChatResponse DTO.
func ToChatResponse(c *Chat) ChatResponse {
	return ChatResponse{
		ID:                  c.ID,
		InitiatorID:         c.InitiatorID,
		ResponderID:         c.ResponderID,
		InitiatorOfferingID: c.InitiatorOfferingID,
		ResponderOfferingID: c.ResponderOfferingID,
		Status:              c.Status,
		ConfirmedAt:         c.ConfirmedAt,
		CompletedAt:         c.CompletedAt,
		UnreadCount: map[string]int{
			c.InitiatorID.String(): c.InitiatorUnread,
			c.ResponderID.String(): c.ResponderUnread,
		},
		UpdatedAt: c.UpdatedAt,
	}
}
