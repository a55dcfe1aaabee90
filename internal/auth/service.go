// File: internal/auth/service.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"swapseva_backend/internal/config"
	"swapseva_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// jwtClaims extends shared.Claims with an internal token-type discriminator so
// a refresh token can never be presented as an access token.
type jwtClaims struct {
	shared.Claims
	TokenType string `json:"token_type"`
}

// JWTService implements shared.TokenService using HMAC-signed JWTs.
type JWTService struct {
	secret          []byte
	accessLifetime  time.Duration
	refreshLifetime time.Duration
}

var _ shared.TokenService = (*JWTService)(nil)

// NewJWTService creates a new JWT token service from configuration.
func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		secret:          []byte(cfg.JWTSecret),
		accessLifetime:  cfg.JWTAccessTokenLifetime,
		refreshLifetime: cfg.JWTRefreshTokenLifetime,
	}
}

// GenerateAccessToken issues a short-lived access token for the given user.
func (s *JWTService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	return s.generate(userData, tokenTypeAccess, s.accessLifetime)
}

// GenerateRefreshToken issues a long-lived refresh token for the given user.
func (s *JWTService) GenerateRefreshToken(userData shared.UserDataForToken) (string, time.Time, error) {
	return s.generate(userData, tokenTypeRefresh, s.refreshLifetime)
}

func (s *JWTService) generate(userData shared.UserDataForToken, tokenType string, lifetime time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(lifetime)

	claims := jwtClaims{
		Claims: shared.Claims{
			UserID: userData.GetID(),
			Email:  userData.GetEmail(),
			Role:   userData.GetRole(),
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userData.GetID().String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
		},
		TokenType: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates an access token.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	return s.parse(tokenString, tokenTypeAccess)
}

// ParseRefreshToken parses and validates a refresh token.
func (s *JWTService) ParseRefreshToken(refreshTokenString string) (*shared.Claims, error) {
	return s.parse(refreshTokenString, tokenTypeRefresh)
}

func (s *JWTService) parse(tokenString, wantType string) (*shared.Claims, error) {
	var claims jwtClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("token is not a valid %s token", wantType)
	}
	return &claims.Claims, nil
}
