// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swapseva_backend/internal/common"
	"swapseva_backend/internal/config"
	"swapseva_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceImplementation implements the shared.Service interface.
type ServiceImplementation struct {
	repo         Repository
	tokenService shared.TokenService
	cfg          *config.Config
	logger       *zap.Logger
}

var _ shared.Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(
	repo Repository,
	tokenService shared.TokenService,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:         repo,
		tokenService: tokenService,
		cfg:          cfg,
		logger:       logger,
	}
}

// Register creates a new user and issues an initial token pair.
func (s *ServiceImplementation) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, nil, common.ErrConflict.WithDetails("User with this email already exists.")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check existing user by email: %w", err)
	}
	// At this point err is common.ErrNotFound, meaning the email is available.

	hashedPassword, err := common.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	dbUser := &User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         common.RoleUser,
	}
	if req.FirstName != "" {
		dbUser.FirstName = &req.FirstName
	}
	if req.LastName != "" {
		dbUser.LastName = &req.LastName
	}

	if err := s.repo.Create(ctx, dbUser); err != nil {
		s.logger.Error("Failed to create user in repository", zap.Error(err), zap.String("email", req.Email))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, nil, apiErr
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokenResponse, err := s.issueTokens(dbUser)
	if err != nil {
		s.logger.Error("Failed to generate tokens after registration", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return nil, nil, err
	}

	s.logger.Info("User registered successfully", zap.String("userID", dbUser.ID.String()))
	return DBToShared(dbUser), tokenResponse, nil
}

// Login verifies credentials and issues a token pair.
func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Info("User not found during login", zap.String("email", email))
			return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
		}
		s.logger.Error("Error finding user by email during login", zap.Error(err), zap.String("email", email))
		return nil, nil, common.ErrInternalServer.WithDetails("Login failed due to an internal error.")
	}

	if !common.CheckPasswordHash(password, dbUser.PasswordHash) {
		s.logger.Info("Invalid password during login", zap.String("userID", dbUser.ID.String()))
		return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
	}

	now := time.Now()
	dbUser.LastLoginAt = &now
	if err := s.repo.Update(ctx, dbUser); err != nil {
		// Not fatal for login; the user is authenticated either way.
		s.logger.Warn("Failed to update last login timestamp", zap.Error(err), zap.String("userID", dbUser.ID.String()))
	}

	tokenResponse, err := s.issueTokens(dbUser)
	if err != nil {
		s.logger.Error("Failed to generate tokens during login", zap.Error(err), zap.String("userID", dbUser.ID.String()))
		return nil, nil, err
	}

	s.logger.Info("User logged in successfully", zap.String("userID", dbUser.ID.String()))
	return DBToShared(dbUser), tokenResponse, nil
}

// GetUserByID retrieves a user by ID.
func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// GetUserByEmail retrieves a user by email.
func (s *ServiceImplementation) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// UpdateProfile applies partial profile updates for the given user.
func (s *ServiceImplementation) UpdateProfile(ctx context.Context, id uuid.UUID, req shared.UpdateProfileRequest) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		dbUser.FirstName = req.FirstName
	}
	if req.LastName != nil {
		dbUser.LastName = req.LastName
	}
	if req.ProfilePictureURL != nil {
		dbUser.ProfilePictureURL = req.ProfilePictureURL
	}
	if req.Bio != nil {
		dbUser.Bio = req.Bio
	}

	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to update user profile", zap.Error(err), zap.String("userID", id.String()))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, common.ErrInternalServer.WithDetails("Could not update profile.")
	}

	s.logger.Info("User profile updated", zap.String("userID", id.String()))
	return DBToShared(dbUser), nil
}

func (s *ServiceImplementation) issueTokens(dbUser *User) (*shared.TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.tokenService.GenerateAccessToken(dbUser)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, _, err := s.tokenService.GenerateRefreshToken(dbUser)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &shared.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessExpiresAt,
	}, nil
}
