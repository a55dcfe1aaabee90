// File: internal/trade/model.go
package trade

import (
	"time"

	"swapseva_backend/internal/common"
	"swapseva_backend/internal/offering"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status of a trade request. Transitions are compare-and-swap only:
// pending -> accepted -> confirmed, with pending/accepted -> declined.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
)

// TradeRequest is the workflow record for a barter exchange. OfferedItemIDs
// snapshots the requester's tradable offerings at request time; the recipient
// accepts by selecting exactly one of them.
type TradeRequest struct {
	common.BaseModel
	RequesterID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_trade_requests_requester_id"`
	RecipientID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_trade_requests_recipient_id"`
	RequestedOfferingID uuid.UUID      `gorm:"type:uuid;not null"`
	OfferedItemIDs      pq.StringArray `gorm:"type:text[];not null"`
	SelectedOfferingID  *uuid.UUID     `gorm:"type:uuid"`
	Status              Status         `gorm:"type:varchar(20);not null;default:'pending';index:idx_trade_requests_status"`
	ChatID              *uuid.UUID     `gorm:"type:uuid"`
}

// TableName specifies the table name for the TradeRequest model.
func (TradeRequest) TableName() string {
	return "trade_requests"
}

// ContainsOfferedItem reports whether id is among the snapshotted candidates.
func (t *TradeRequest) ContainsOfferedItem(id uuid.UUID) bool {
	idStr := id.String()
	for _, candidate := range t.OfferedItemIDs {
		if candidate == idStr {
			return true
		}
	}
	return false
}

// OfferingSnapshot is the display snapshot embedded in notification data so
// clients can render a request without extra lookups.
type OfferingSnapshot struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Type  string  `json:"type"`
	Image *string `json:"image,omitempty"`
}

// SnapshotOffering builds a display snapshot from an offering.
func SnapshotOffering(o *offering.Offering) OfferingSnapshot {
	snapshot := OfferingSnapshot{
		ID:    o.ID.String(),
		Title: o.Title,
		Type:  string(o.Type),
	}
	if len(o.Images) > 0 {
		image := o.Images[0]
		snapshot.Image = &image
	}
	return snapshot
}

// --- DTOs ---

// ConnectRequest defines the payload for initiating a trade.
type ConnectRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	OfferingID  uuid.UUID `json:"offering_id" binding:"required"`
}

// AcceptTradeRequest defines the payload for accepting a trade.
type AcceptTradeRequest struct {
	NotificationID uuid.UUID `json:"notification_id" binding:"required"`
	SelectedItemID uuid.UUID `json:"selected_item_id" binding:"required"`
}

// ConfirmTradeRequest defines the payload for confirming a trade.
type ConfirmTradeRequest struct {
	NotificationID uuid.UUID `json:"notification_id" binding:"required"`
}

// DeclineTradeRequest defines the payload for declining a trade.
type DeclineTradeRequest struct {
	NotificationID uuid.UUID `json:"notification_id" binding:"required"`
}

// TradeRequestResponse defines the structure for trade request data in API
// responses.
type TradeRequestResponse struct {
	ID                  uuid.UUID  `json:"id"`
	RequesterID         uuid.UUID  `json:"requester_id"`
	RecipientID         uuid.UUID  `json:"recipient_id"`
	RequestedOfferingID uuid.UUID  `json:"requested_offering_id"`
	OfferedItemIDs      []string   `json:"offered_item_ids"`
	SelectedOfferingID  *uuid.UUID `json:"selected_offering_id,omitempty"`
	Status              Status     `json:"status"`
	ChatID              *uuid.UUID `json:"chat_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ToTradeRequestResponse converts a TradeRequest model to its response DTO.
func ToTradeRequestResponse(t *TradeRequest) TradeRequestResponse {
	return TradeRequestResponse{
		ID:                  t.ID,
		RequesterID:         t.RequesterID,
		RecipientID:         t.RecipientID,
		RequestedOfferingID: t.RequestedOfferingID,
		OfferedItemIDs:      t.OfferedItemIDs,
		SelectedOfferingID:  t.SelectedOfferingID,
		Status:              t.Status,
		ChatID:              t.ChatID,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}
