// File: internal/offering/repository.go
package offering

import (
	"context"
	"errors"
	"fmt"

	"swapseva_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for offering data operations.
type Repository interface {
	Create(ctx context.Context, offering *Offering) error
	Update(ctx context.Context, offering *Offering) error
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Offering, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Offering, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Offering, *common.Pagination, error)
	FindApprovedByOwnerAndType(ctx context.Context, ownerID uuid.UUID, offeringType OfferingType) ([]Offering, error)
	Search(ctx context.Context, query SearchQuery) ([]Offering, *common.Pagination, error)
	SetModeration(ctx context.Context, id uuid.UUID, approved, rejected bool) error
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM offering repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db}
}

// Create inserts a new offering into the database.
func (r *GORMRepository) Create(ctx context.Context, offering *Offering) error {
	if err := r.db.WithContext(ctx).Create(offering).Error; err != nil {
		return fmt.Errorf("failed to create offering: %w", err)
	}
	return nil
}

// Update saves changes to an existing offering.
func (r *GORMRepository) Update(ctx context.Context, offering *Offering) error {
	if err := r.db.WithContext(ctx).Save(offering).Error; err != nil {
		return fmt.Errorf("failed to update offering %s: %w", offering.ID, err)
	}
	return nil
}

// Delete removes an offering. The userID guard ensures only the owner can delete.
func (r *GORMRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Offering{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete offering %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		// Distinguish not-found from not-owner for a useful error.
		var count int64
		r.db.WithContext(ctx).Model(&Offering{}).Where("id = ?", id).Count(&count)
		if count > 0 {
			return common.ErrForbidden.WithDetails("You do not own this offering.")
		}
		return common.ErrNotFound.WithDetails("Offering not found.")
	}
	return nil
}

// FindByID retrieves an offering by its ID.
func (r *GORMRepository) FindByID(ctx context.Context, id uuid.UUID) (*Offering, error) {
	var offering Offering
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&offering).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Offering not found.")
		}
		return nil, fmt.Errorf("failed to find offering %s: %w", id, err)
	}
	return &offering, nil
}

// FindByIDs retrieves all offerings matching the given IDs.
func (r *GORMRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Offering, error) {
	if len(ids) == 0 {
		return []Offering{}, nil
	}
	var offerings []Offering
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&offerings).Error; err != nil {
		return nil, fmt.Errorf("failed to find offerings by ids: %w", err)
	}
	return offerings, nil
}

// FindByUserID retrieves a user's offerings, newest first, paginated.
func (r *GORMRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Offering, *common.Pagination, error) {
	var offerings []Offering
	var totalItems int64

	query := r.db.WithContext(ctx).Model(&Offering{}).Where("user_id = ?", userID)
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count user offerings: %w", err)
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&offerings).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list user offerings: %w", err)
	}

	pagination := common.NewPagination(totalItems, page, pageSize)
	return offerings, pagination, nil
}

// FindApprovedByOwnerAndType retrieves a user's approved offerings of a given type.
func (r *GORMRepository) FindApprovedByOwnerAndType(ctx context.Context, ownerID uuid.UUID, offeringType OfferingType) ([]Offering, error) {
	var offerings []Offering
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND is_approved = ? AND is_rejected = ?", ownerID, offeringType, true, false).
		Order("created_at DESC").
		Find(&offerings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find approved offerings: %w", err)
	}
	return offerings, nil
}

// Search performs a database-backed browse over approved offerings.
// Used directly, or as the fallback when Elasticsearch is not configured.
func (r *GORMRepository) Search(ctx context.Context, query SearchQuery) ([]Offering, *common.Pagination, error) {
	var offerings []Offering
	var totalItems int64

	dbQuery := r.db.WithContext(ctx).Model(&Offering{}).
		Where("is_approved = ? AND is_rejected = ?", true, false)

	if query.Type != "" {
		dbQuery = dbQuery.Where("type = ?", query.Type)
	}
	if query.CategoryID != nil {
		dbQuery = dbQuery.Where("category_id = ?", *query.CategoryID)
	}
	if query.Term != "" {
		term := "%" + query.Term + "%"
		dbQuery = dbQuery.Where("title ILIKE ? OR description ILIKE ?", term, term)
	}

	if err := dbQuery.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count offerings for search: %w", err)
	}

	offset := (query.Page - 1) * query.PageSize
	err := dbQuery.Order("created_at DESC").Offset(offset).Limit(query.PageSize).Find(&offerings).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search offerings: %w", err)
	}

	pagination := common.NewPagination(totalItems, query.Page, query.PageSize)
	return offerings, pagination, nil
}

// SetModeration updates the approve/reject flags on an offering.
func (r *GORMRepository) SetModeration(ctx context.Context, id uuid.UUID, approved, rejected bool) error {
	result := r.db.WithContext(ctx).Model(&Offering{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_approved": approved, "is_rejected": rejected})
	if result.Error != nil {
		return fmt.Errorf("failed to update moderation flags for offering %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Offering not found.")
	}
	return nil
}
