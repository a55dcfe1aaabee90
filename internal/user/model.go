// File: internal/user/model.go
package user

import (
	"time"

	"swapseva_backend/internal/common"
	"swapseva_backend/internal/shared"

	"github.com/google/uuid"
)

// User represents the user model in the database.
type User struct {
	common.BaseModel
	Email             string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash      string  `gorm:"type:varchar(255);not null"`
	FirstName         *string `gorm:"type:varchar(100)"`
	LastName          *string `gorm:"type:varchar(100)"`
	ProfilePictureURL *string `gorm:"type:text"`
	Bio               *string `gorm:"type:text"`
	Role              string  `gorm:"type:varchar(50);not null;default:'user'"` // "user" or "admin"
	LastLoginAt       *time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetEmail() string {
	return u.Email
}

func (u *User) GetRole() string {
	return u.Role
}

// --- DTOs ---

// UpdateProfileRequest defines the structure for updating the caller's profile.
type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name,omitempty" binding:"omitempty,max=100"`
	LastName          *string `json:"last_name,omitempty" binding:"omitempty,max=100"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty" binding:"omitempty,max=2048"`
	Bio               *string `json:"bio,omitempty" binding:"omitempty,max=1000"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	FirstName         *string    `json:"first_name,omitempty"`
	LastName          *string    `json:"last_name,omitempty"`
	ProfilePictureURL *string    `json:"profile_picture_url,omitempty"`
	Bio               *string    `json:"bio,omitempty"`
	Role              string     `json:"role"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
}

// ToUserResponse converts a shared.User to a UserResponse DTO.
func ToUserResponse(u *shared.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		ProfilePictureURL: u.ProfilePictureURL,
		Bio:               u.Bio,
		Role:              u.Role,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
		LastLoginAt:       u.LastLoginAt,
	}
}

// DBToShared converts a GORM User model to the shared.User view.
func DBToShared(u *User) *shared.User {
	if u == nil {
		return nil
	}
	return &shared.User{
		ID:                u.ID,
		Email:             u.Email,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		ProfilePictureURL: u.ProfilePictureURL,
		Bio:               u.Bio,
		Role:              u.Role,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
		LastLoginAt:       u.LastLoginAt,
	}
}

// sharedTokenAdapter lets a shared.User satisfy shared.UserDataForToken.
type sharedTokenAdapter struct {
	u *shared.User
}

func (a sharedTokenAdapter) GetID() uuid.UUID  { return a.u.ID }
func (a sharedTokenAdapter) GetEmail() string  { return a.u.Email }
func (a sharedTokenAdapter) GetRole() string   { return a.u.Role }

// SharedForToken adapts a shared.User for token generation.
func SharedForToken(u *shared.User) shared.UserDataForToken {
	return sharedTokenAdapter{u: u}
}
