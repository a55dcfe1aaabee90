// File: internal/category/service_test.go
package category

import (
	"context"
	"testing"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// --- Mocks ---

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *Category) error {
	args := m.Called(ctx, category)
	if args.Error(0) == nil && category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Category), args.Error(1)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Category), args.Error(1)
}

// --- Test Suite Setup ---

type CategoryServiceTestSuite struct {
	service  Service
	mockRepo *MockCategoryRepository
}

func setupCategoryServiceTestSuite(t *testing.T) *CategoryServiceTestSuite {
	ts := &CategoryServiceTestSuite{
		mockRepo: new(MockCategoryRepository),
	}
	ts.service = NewService(ts.mockRepo, zap.NewNop())
	return ts
}

// --- Tests ---

func TestCategoryService_AdminCreateCategory_GeneratesSlug(t *testing.T) {
	ts := setupCategoryServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*category.Category")).Run(func(args mock.Arguments) {
		category := args.Get(1).(*Category)
		assert.Equal(t, "Music Lessons", category.Name)
		assert.Equal(t, "music-lessons", category.Slug)
	}).Return(nil)

	created, err := ts.service.AdminCreateCategory(ctx, AdminCreateCategoryRequest{
		Name: "  Music Lessons  ",
	})

	assert.NoError(t, err)
	assert.Equal(t, "music-lessons", created.Slug)
	ts.mockRepo.AssertExpectations(t)
}

func TestCategoryService_AdminCreateCategory_CleansProvidedSlug(t *testing.T) {
	ts := setupCategoryServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*category.Category")).Return(nil)

	created, err := ts.service.AdminCreateCategory(ctx, AdminCreateCategoryRequest{
		Name: "Electronics",
		Slug: "Fancy Electronics!",
	})

	assert.NoError(t, err)
	assert.Equal(t, "fancy-electronics", created.Slug)
}

func TestCategoryService_AdminCreateCategory_DuplicateConflict(t *testing.T) {
	ts := setupCategoryServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("Create", ctx, mock.AnythingOfType("*category.Category")).
		Return(common.ErrConflict.WithDetails("A category with this name or slug already exists."))

	_, err := ts.service.AdminCreateCategory(ctx, AdminCreateCategoryRequest{Name: "Electronics"})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
}

func TestCategoryService_AdminUpdateCategory_Success(t *testing.T) {
	ts := setupCategoryServiceTestSuite(t)
	ctx := context.Background()

	existing := &Category{Name: "Old Name", Slug: "old-name"}
	existing.ID = uuid.New()

	ts.mockRepo.On("FindByID", ctx, existing.ID).Return(existing, nil)
	ts.mockRepo.On("Update", ctx, existing).Return(nil)

	updated, err := ts.service.AdminUpdateCategory(ctx, existing.ID, AdminCreateCategoryRequest{
		Name: "New Name",
	})

	assert.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "new-name", updated.Slug)
	ts.mockRepo.AssertExpectations(t)
}

func TestCategoryService_AdminUpdateCategory_NotFound(t *testing.T) {
	ts := setupCategoryServiceTestSuite(t)
	ctx := context.Background()
	id := uuid.New()

	ts.mockRepo.On("FindByID", ctx, id).Return(nil, common.ErrNotFound.WithDetails("Category not found."))

	_, err := ts.service.AdminUpdateCategory(ctx, id, AdminCreateCategoryRequest{Name: "X"})

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
	ts.mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCategoryService_AdminDeleteCategory_NotFound(t *testing.T) {
	ts := setupCategoryServiceTestSuite(t)
	ctx := context.Background()
	id := uuid.New()

	ts.mockRepo.On("Delete", ctx, id).Return(common.ErrNotFound.WithDetails("Category not found."))

	err := ts.service.AdminDeleteCategory(ctx, id)

	assert.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrNotFound.Code, apiErr.Code)
}

func TestCategoryService_GetAllCategories(t *testing.T) {
	ts := setupCategoryServiceTestSuite(t)
	ctx := context.Background()

	ts.mockRepo.On("FindAll", ctx).Return([]Category{
		{Name: "Electronics", Slug: "electronics"},
		{Name: "Music Lessons", Slug: "music-lessons"},
	}, nil)

	categories, err := ts.service.GetAllCategories(ctx)

	assert.NoError(t, err)
	assert.Len(t, categories, 2)
}
