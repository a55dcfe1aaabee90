// File: internal/shared/core.go
package shared

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User represents a user in the system as seen by other modules.
type User struct {
	ID                uuid.UUID
	Email             string
	FirstName         *string
	LastName          *string
	ProfilePictureURL *string
	Bio               *string
	Role              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastLoginAt       *time.Time
}

// CreateUserRequest represents a request to create a new user.
type CreateUserRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileRequest represents a request to update a user's profile.
type UpdateProfileRequest struct {
	FirstName         *string
	LastName          *string
	ProfilePictureURL *string
	Bio               *string
}

// TokenResponse represents the response containing JWT tokens.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// Service defines the interface for user-related business logic consumed
// by other modules (auth handler, middleware, trade engine, chat store).
type Service interface {
	Register(ctx context.Context, req CreateUserRequest) (*User, *TokenResponse, error)
	Login(ctx context.Context, email, password string) (*User, *TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error)
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() string
	GetRole() string
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	GenerateRefreshToken(userData UserDataForToken) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
	ParseRefreshToken(refreshTokenString string) (*Claims, error)
}

// Claims represents the JWT claims structure.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// EventType identifies a realtime relay event.
type EventType string

const (
	EventNewMessage           EventType = "new-message"
	EventTradeCompleted       EventType = "trade-completed"
	EventPlatformNotification EventType = "platform-notification"
)

// Event is the JSON envelope pushed to connected clients over the relay.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Relay pushes events to a user's connected sessions. Delivery is
// fire-and-forget: the database write that precedes the push is the source
// of truth, and a failed or skipped push never fails the owning request.
type Relay interface {
	SendToUser(userID uuid.UUID, event Event)
}

// NewEvent builds an Event, marshalling the payload. Marshalling errors are
// swallowed and yield an event without payload, matching the relay's
// best-effort contract.
func NewEvent(eventType EventType, payload interface{}) Event {
	ev := Event{Type: eventType, Timestamp: time.Now().UTC()}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			ev.Payload = raw
		}
	}
	return ev
}
