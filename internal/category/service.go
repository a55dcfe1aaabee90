// File: internal/category/service.go
package category

import (
	"context"
	"strings"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Service defines the interface for category-related business logic.
type Service interface {
	// Admin methods
	AdminCreateCategory(ctx context.Context, req AdminCreateCategoryRequest) (*Category, error)
	AdminUpdateCategory(ctx context.Context, id uuid.UUID, req AdminCreateCategoryRequest) (*Category, error)
	AdminDeleteCategory(ctx context.Context, id uuid.UUID) error

	// Public methods
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	GetAllCategories(ctx context.Context) ([]Category, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new category service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

// --- Admin Methods ---

func (s *service) AdminCreateCategory(ctx context.Context, req AdminCreateCategoryRequest) (*Category, error) {
	finalSlug := strings.TrimSpace(req.Slug)
	if finalSlug == "" {
		finalSlug = slug.Make(req.Name) // Generate slug if not provided
	} else {
		finalSlug = slug.Make(finalSlug) // Ensure provided slug is clean
	}

	category := &Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        finalSlug,
		Description: req.Description,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		s.logger.Error("Failed to create category", zap.Error(err), zap.String("name", req.Name))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, common.ErrInternalServer.WithDetails("Could not create category.")
	}

	s.logger.Info("Category created", zap.String("categoryID", category.ID.String()), zap.String("slug", category.Slug))
	return category, nil
}

func (s *service) AdminUpdateCategory(ctx context.Context, id uuid.UUID, req AdminCreateCategoryRequest) (*Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(req.Name)
	if req.Slug != "" {
		category.Slug = slug.Make(req.Slug)
	} else {
		category.Slug = slug.Make(category.Name)
	}
	category.Description = req.Description

	if err := s.repo.Update(ctx, category); err != nil {
		s.logger.Error("Failed to update category", zap.Error(err), zap.String("categoryID", id.String()))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, common.ErrInternalServer.WithDetails("Could not update category.")
	}
	return category, nil
}

func (s *service) AdminDeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if apiErr, ok := common.IsAPIError(err); ok {
			return apiErr
		}
		s.logger.Error("Failed to delete category", zap.Error(err), zap.String("categoryID", id.String()))
		return common.ErrInternalServer.WithDetails("Could not delete category.")
	}
	s.logger.Info("Category deleted", zap.String("categoryID", id.String()))
	return nil
}

// --- Public Methods ---

func (s *service) GetCategoryByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetCategoryBySlug(ctx context.Context, categorySlug string) (*Category, error) {
	return s.repo.FindBySlug(ctx, categorySlug)
}

func (s *service) GetAllCategories(ctx context.Context) ([]Category, error) {
	return s.repo.FindAll(ctx)
}
