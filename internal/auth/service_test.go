// File: internal/auth/service_test.go
package auth

import (
	"testing"
	"time"

	"swapseva_backend/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenUserData struct {
	id    uuid.UUID
	email string
	role  string
}

func (u tokenUserData) GetID() uuid.UUID { return u.id }
func (u tokenUserData) GetEmail() string { return u.email }
func (u tokenUserData) GetRole() string  { return u.role }

func setupJWTService(accessLifetime, refreshLifetime time.Duration) *JWTService {
	return NewJWTService(&config.Config{
		JWTSecret:               "test-secret-key-for-unit-tests",
		JWTAccessTokenLifetime:  accessLifetime,
		JWTRefreshTokenLifetime: refreshLifetime,
	})
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	service := setupJWTService(time.Hour, 24*time.Hour)
	userData := tokenUserData{id: uuid.New(), email: "asha@example.com", role: "user"}

	token, expiresAt, err := service.GenerateAccessToken(userData)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userData.id, claims.UserID)
	assert.Equal(t, userData.email, claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestJWTService_RefreshTokenNotValidAsAccessToken(t *testing.T) {
	service := setupJWTService(time.Hour, 24*time.Hour)
	userData := tokenUserData{id: uuid.New(), email: "asha@example.com", role: "user"}

	refreshToken, _, err := service.GenerateRefreshToken(userData)
	require.NoError(t, err)

	_, err = service.ValidateToken(refreshToken)
	assert.Error(t, err)

	claims, err := service.ParseRefreshToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, userData.id, claims.UserID)
}

func TestJWTService_AccessTokenNotValidAsRefreshToken(t *testing.T) {
	service := setupJWTService(time.Hour, 24*time.Hour)
	userData := tokenUserData{id: uuid.New(), email: "asha@example.com", role: "user"}

	accessToken, _, err := service.GenerateAccessToken(userData)
	require.NoError(t, err)

	_, err = service.ParseRefreshToken(accessToken)
	assert.Error(t, err)
}

func TestJWTService_ExpiredTokenRejected(t *testing.T) {
	service := setupJWTService(-time.Minute, 24*time.Hour)
	userData := tokenUserData{id: uuid.New(), email: "asha@example.com", role: "user"}

	token, _, err := service.GenerateAccessToken(userData)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_WrongSecretRejected(t *testing.T) {
	service := setupJWTService(time.Hour, 24*time.Hour)
	other := NewJWTService(&config.Config{
		JWTSecret:               "a-different-secret",
		JWTAccessTokenLifetime:  time.Hour,
		JWTRefreshTokenLifetime: 24 * time.Hour,
	})
	userData := tokenUserData{id: uuid.New(), email: "asha@example.com", role: "user"}

	token, _, err := service.GenerateAccessToken(userData)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_GarbageTokenRejected(t *testing.T) {
	service := setupJWTService(time.Hour, 24*time.Hour)

	_, err := service.ValidateToken("not.a.token")
	assert.Error(t, err)
}
