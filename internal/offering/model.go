// File: internal/offering/model.go
package offering

import (
	"time"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OfferingType discriminates what a user puts up for barter.
type OfferingType string

const (
	TypeSkill OfferingType = "skill"
	TypeGood  OfferingType = "good"
)

// Offering represents a skill or good a user offers for trade.
type Offering struct {
	common.BaseModel
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_offerings_user_id"`
	Type           OfferingType   `gorm:"type:varchar(10);not null;index:idx_offerings_type"`
	Title          string         `gorm:"type:varchar(200);not null"`
	Description    string         `gorm:"type:text;not null"`
	CategoryID     *uuid.UUID     `gorm:"type:uuid;index:idx_offerings_category_id"`
	Condition      *string        `gorm:"type:varchar(20)"` // goods only
	SkillLevel     *string        `gorm:"type:varchar(20)"` // skills only
	EstimatedValue *float64       `gorm:"type:numeric(12,2)"`
	Images         pq.StringArray `gorm:"type:text[]"`
	IsApproved     bool           `gorm:"not null;default:false;index:idx_offerings_is_approved"`
	IsRejected     bool           `gorm:"not null;default:false"`
}

// TableName specifies the table name for the Offering model.
func (Offering) TableName() string {
	return "offerings"
}

// --- DTOs ---

// CreateOfferingRequest defines the payload for creating an offering.
type CreateOfferingRequest struct {
	Type           OfferingType `json:"type" binding:"required,oneof=skill good"`
	Title          string       `json:"title" binding:"required,min=3,max=200"`
	Description    string       `json:"description" binding:"required,min=10,max=5000"`
	CategoryID     *uuid.UUID   `json:"category_id,omitempty"`
	Condition      *string      `json:"condition,omitempty" binding:"omitempty,oneof=new like_new good fair poor"`
	SkillLevel     *string      `json:"skill_level,omitempty" binding:"omitempty,oneof=beginner intermediate advanced expert"`
	EstimatedValue *float64     `json:"estimated_value,omitempty" binding:"omitempty,gte=0"`
	Images         []string     `json:"images,omitempty" binding:"omitempty,dive,url"`
}

// UpdateOfferingRequest defines the payload for updating an offering.
// Type is intentionally absent: an offering's type is immutable after creation.
type UpdateOfferingRequest struct {
	Title          *string    `json:"title,omitempty" binding:"omitempty,min=3,max=200"`
	Description    *string    `json:"description,omitempty" binding:"omitempty,min=10,max=5000"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	Condition      *string    `json:"condition,omitempty" binding:"omitempty,oneof=new like_new good fair poor"`
	SkillLevel     *string    `json:"skill_level,omitempty" binding:"omitempty,oneof=beginner intermediate advanced expert"`
	EstimatedValue *float64   `json:"estimated_value,omitempty" binding:"omitempty,gte=0"`
	Images         []string   `json:"images,omitempty" binding:"omitempty,dive,url"`
}

// SearchQuery carries browse/search filters.
type SearchQuery struct {
	Term         string
	Type         OfferingType
	CategoryID   *uuid.UUID
	CategorySlug string
	Page         int
	PageSize     int
}

// OfferingResponse defines the structure for offering data in API responses.
type OfferingResponse struct {
	ID             uuid.UUID    `json:"id"`
	UserID         uuid.UUID    `json:"user_id"`
	Type           OfferingType `json:"type"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	CategoryID     *uuid.UUID   `json:"category_id,omitempty"`
	Condition      *string      `json:"condition,omitempty"`
	SkillLevel     *string      `json:"skill_level,omitempty"`
	EstimatedValue *float64     `json:"estimated_value,omitempty"`
	Images         []string     `json:"images"`
	IsApproved     bool         `json:"is_approved"`
	IsRejected     bool         `json:"is_rejected"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ToOfferingResponse converts an Offering model to an OfferingResponse DTO.
func ToOfferingResponse(o *Offering) OfferingResponse {
	images := []string(o.Images)
	if images == nil {
		images = []string{}
	}
	return OfferingResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		Type:           o.Type,
		Title:          o.Title,
		Description:    o.Description,
		CategoryID:     o.CategoryID,
		Condition:      o.Condition,
		SkillLevel:     o.SkillLevel,
		EstimatedValue: o.EstimatedValue,
		Images:         images,
		IsApproved:     o.IsApproved,
		IsRejected:     o.IsRejected,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
