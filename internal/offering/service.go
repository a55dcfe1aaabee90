// File: internal/offering/service.go
package offering

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"swapseva_backend/internal/category"
	"swapseva_backend/internal/common"
	"swapseva_backend/internal/config"
	platformES "swapseva_backend/internal/platform/elasticsearch"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for offering-related business logic.
type Service interface {
	CreateOffering(ctx context.Context, userID uuid.UUID, req CreateOfferingRequest) (*Offering, error)
	UpdateOffering(ctx context.Context, id uuid.UUID, userID uuid.UUID, req UpdateOfferingRequest) (*Offering, error)
	DeleteOffering(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	GetOfferingByID(ctx context.Context, id uuid.UUID) (*Offering, error)
	GetUserOfferings(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Offering, *common.Pagination, error)
	SearchOfferings(ctx context.Context, query SearchQuery) ([]Offering, *common.Pagination, error)

	// Used by the trade workflow to build and validate candidate item lists.
	ListTradableOfferings(ctx context.Context, ownerID uuid.UUID, offeringType OfferingType) ([]Offering, error)
	GetOfferingsByIDs(ctx context.Context, ids []uuid.UUID) ([]Offering, error)

	AdminApproveOffering(ctx context.Context, id uuid.UUID) (*Offering, error)
	AdminRejectOffering(ctx context.Context, id uuid.UUID) (*Offering, error)
}

// ServiceImplementation provides offering business logic.
type ServiceImplementation struct {
	repo         Repository
	categoryRepo category.Repository
	esClient     *platformES.ESClientWrapper
	cfg          *config.Config
	logger       *zap.Logger
}

// NewService creates a new offering service.
func NewService(
	repo Repository,
	categoryRepo category.Repository,
	esClient *platformES.ESClientWrapper,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &ServiceImplementation{
		repo:         repo,
		categoryRepo: categoryRepo,
		esClient:     esClient,
		cfg:          cfg,
		logger:       logger.Named("OfferingService"),
	}
}

// CreateOffering handles creation of a new offering.
func (s *ServiceImplementation) CreateOffering(ctx context.Context, userID uuid.UUID, req CreateOfferingRequest) (*Offering, error) {
	if len(req.Images) > s.cfg.MaxOfferingImages {
		return nil, common.ErrBadRequest.WithDetails(
			fmt.Sprintf("An offering can have at most %d images.", s.cfg.MaxOfferingImages))
	}
	if req.Type == TypeGood && req.SkillLevel != nil {
		return nil, common.ErrBadRequest.WithDetails("skill_level is only valid for skill offerings.")
	}
	if req.Type == TypeSkill && req.Condition != nil {
		return nil, common.ErrBadRequest.WithDetails("condition is only valid for good offerings.")
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			return nil, common.ErrBadRequest.WithDetails("The specified category does not exist.")
		}
	}

	offering := &Offering{
		UserID:         userID,
		Type:           req.Type,
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		CategoryID:     req.CategoryID,
		Condition:      req.Condition,
		SkillLevel:     req.SkillLevel,
		EstimatedValue: req.EstimatedValue,
		Images:         req.Images,
	}

	if err := s.repo.Create(ctx, offering); err != nil {
		s.logger.Error("Failed to create offering", zap.Error(err), zap.String("userID", userID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not create offering.")
	}

	s.indexOffering(ctx, offering)
	s.logger.Info("Offering created",
		zap.String("offeringID", offering.ID.String()),
		zap.String("userID", userID.String()),
		zap.String("type", string(offering.Type)))
	return offering, nil
}

// UpdateOffering handles updating an existing offering. The offering's type is
// immutable; an update request carries no type field.
func (s *ServiceImplementation) UpdateOffering(ctx context.Context, id uuid.UUID, userID uuid.UUID, req UpdateOfferingRequest) (*Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offering.UserID != userID {
		return nil, common.ErrForbidden.WithDetails("You do not own this offering.")
	}
	if len(req.Images) > s.cfg.MaxOfferingImages {
		return nil, common.ErrBadRequest.WithDetails(
			fmt.Sprintf("An offering can have at most %d images.", s.cfg.MaxOfferingImages))
	}
	if offering.Type == TypeGood && req.SkillLevel != nil {
		return nil, common.ErrBadRequest.WithDetails("skill_level is only valid for skill offerings.")
	}
	if offering.Type == TypeSkill && req.Condition != nil {
		return nil, common.ErrBadRequest.WithDetails("condition is only valid for good offerings.")
	}

	if req.Title != nil {
		offering.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		offering.Description = strings.TrimSpace(*req.Description)
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			return nil, common.ErrBadRequest.WithDetails("The specified category does not exist.")
		}
		offering.CategoryID = req.CategoryID
	}
	if req.Condition != nil {
		offering.Condition = req.Condition
	}
	if req.SkillLevel != nil {
		offering.SkillLevel = req.SkillLevel
	}
	if req.EstimatedValue != nil {
		offering.EstimatedValue = req.EstimatedValue
	}
	if req.Images != nil {
		offering.Images = req.Images
	}

	if err := s.repo.Update(ctx, offering); err != nil {
		s.logger.Error("Failed to update offering", zap.Error(err), zap.String("offeringID", id.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not update offering.")
	}

	s.indexOffering(ctx, offering)
	return offering, nil
}

// DeleteOffering handles hard-deleting an offering owned by userID.
func (s *ServiceImplementation) DeleteOffering(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.deleteFromIndex(ctx, id)
	s.logger.Info("Offering deleted", zap.String("offeringID", id.String()), zap.String("userID", userID.String()))
	return nil
}

// GetOfferingByID retrieves a single offering.
func (s *ServiceImplementation) GetOfferingByID(ctx context.Context, id uuid.UUID) (*Offering, error) {
	return s.repo.FindByID(ctx, id)
}

// GetUserOfferings lists a user's own offerings, including unapproved ones.
func (s *ServiceImplementation) GetUserOfferings(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Offering, *common.Pagination, error) {
	return s.repo.FindByUserID(ctx, userID, page, pageSize)
}

// SearchOfferings performs a search over approved offerings. Uses Elasticsearch
// when configured, falling back to the database otherwise.
func (s *ServiceImplementation) SearchOfferings(ctx context.Context, query SearchQuery) ([]Offering, *common.Pagination, error) {
	if query.CategorySlug != "" && query.CategoryID == nil {
		cat, err := s.categoryRepo.FindBySlug(ctx, query.CategorySlug)
		if err != nil {
			return nil, nil, err
		}
		query.CategoryID = &cat.ID
	}

	if s.esClient != nil && s.esClient.Client != nil {
		offerings, pagination, err := s.searchWithElasticsearch(ctx, query)
		if err == nil {
			return offerings, pagination, nil
		}
		s.logger.Warn("Elasticsearch search failed, falling back to database", zap.Error(err))
	}

	offerings, pagination, err := s.repo.Search(ctx, query)
	if err != nil {
		s.logger.Error("Failed to search offerings", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve offerings.")
	}
	return offerings, pagination, nil
}

// ListTradableOfferings returns a user's approved offerings of the given type.
func (s *ServiceImplementation) ListTradableOfferings(ctx context.Context, ownerID uuid.UUID, offeringType OfferingType) ([]Offering, error) {
	return s.repo.FindApprovedByOwnerAndType(ctx, ownerID, offeringType)
}

// GetOfferingsByIDs retrieves offerings matching the given IDs.
func (s *ServiceImplementation) GetOfferingsByIDs(ctx context.Context, ids []uuid.UUID) ([]Offering, error) {
	return s.repo.FindByIDs(ctx, ids)
}

// --- Admin Methods ---

// AdminApproveOffering marks an offering approved and clears any rejection.
func (s *ServiceImplementation) AdminApproveOffering(ctx context.Context, id uuid.UUID) (*Offering, error) {
	return s.setModeration(ctx, id, true, false)
}

// AdminRejectOffering marks an offering rejected and clears approval.
func (s *ServiceImplementation) AdminRejectOffering(ctx context.Context, id uuid.UUID) (*Offering, error) {
	return s.setModeration(ctx, id, false, true)
}

func (s *ServiceImplementation) setModeration(ctx context.Context, id uuid.UUID, approved, rejected bool) (*Offering, error) {
	if err := s.repo.SetModeration(ctx, id, approved, rejected); err != nil {
		return nil, err
	}
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexOffering(ctx, offering)
	s.logger.Info("Offering moderation updated",
		zap.String("offeringID", id.String()),
		zap.Bool("approved", approved),
		zap.Bool("rejected", rejected))
	return offering, nil
}

// --- Elasticsearch helpers ---

// toSearchDoc builds the Elasticsearch document for an offering.
func (s *ServiceImplementation) toSearchDoc(ctx context.Context, o *Offering) map[string]interface{} {
	doc := map[string]interface{}{
		"title":       o.Title,
		"description": o.Description,
		"type":        string(o.Type),
		"user_id":     o.UserID.String(),
		"is_approved": o.IsApproved,
		"is_rejected": o.IsRejected,
		"created_at":  o.CreatedAt,
		"updated_at":  o.UpdatedAt,
	}
	if o.CategoryID != nil {
		doc["category_id"] = o.CategoryID.String()
		if cat, err := s.categoryRepo.FindByID(ctx, *o.CategoryID); err == nil {
			doc["category_slug"] = cat.Slug
		}
	}
	if o.Condition != nil {
		doc["condition"] = *o.Condition
	}
	if o.SkillLevel != nil {
		doc["skill_level"] = *o.SkillLevel
	}
	if o.EstimatedValue != nil {
		doc["estimated_value"] = *o.EstimatedValue
	}
	return doc
}

// indexOffering pushes the offering document to Elasticsearch. Best-effort:
// search index staleness must never fail the owning write.
func (s *ServiceImplementation) indexOffering(ctx context.Context, o *Offering) {
	if s.esClient == nil || s.esClient.Client == nil {
		return
	}
	docBytes, err := json.Marshal(s.toSearchDoc(ctx, o))
	if err != nil {
		s.logger.Error("Failed to marshal offering for indexing", zap.Error(err), zap.String("offeringID", o.ID.String()))
		return
	}
	req := esapi.IndexRequest{
		Index:      platformES.OfferingsIndexName,
		DocumentID: o.ID.String(),
		Body:       bytes.NewReader(docBytes),
	}
	res, err := req.Do(ctx, s.esClient.Client)
	if err != nil {
		s.logger.Warn("Failed to index offering in Elasticsearch", zap.Error(err), zap.String("offeringID", o.ID.String()))
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		s.logger.Warn("Elasticsearch index request returned an error",
			zap.String("status", res.Status()),
			zap.String("offeringID", o.ID.String()))
	}
}

// deleteFromIndex removes the offering document from Elasticsearch. Best-effort.
func (s *ServiceImplementation) deleteFromIndex(ctx context.Context, id uuid.UUID) {
	if s.esClient == nil || s.esClient.Client == nil {
		return
	}
	req := esapi.DeleteRequest{
		Index:      platformES.OfferingsIndexName,
		DocumentID: id.String(),
	}
	res, err := req.Do(ctx, s.esClient.Client)
	if err != nil {
		s.logger.Warn("Failed to delete offering from Elasticsearch", zap.Error(err), zap.String("offeringID", id.String()))
		return
	}
	defer res.Body.Close()
}

// searchWithElasticsearch runs the search against the offerings index, then
// hydrates full rows from the database so responses match the DB path exactly.
func (s *ServiceImplementation) searchWithElasticsearch(ctx context.Context, query SearchQuery) ([]Offering, *common.Pagination, error) {
	filters := []map[string]interface{}{
		{"term": map[string]interface{}{"is_approved": true}},
		{"term": map[string]interface{}{"is_rejected": false}},
	}
	if query.Type != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"type": string(query.Type)},
		})
	}
	if query.CategoryID != nil {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"category_id": query.CategoryID.String()},
		})
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if query.Term != "" {
		boolQuery["must"] = []map[string]interface{}{
			{
				"multi_match": map[string]interface{}{
					"query":  query.Term,
					"fields": []string{"title^2", "description"},
				},
			},
		}
	}

	esQuery := map[string]interface{}{
		"from":  (query.Page - 1) * query.PageSize,
		"size":  query.PageSize,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []map[string]interface{}{
			{"_score": map[string]string{"order": "desc"}},
			{"created_at": map[string]string{"order": "desc"}},
		},
	}

	bodyBytes, err := json.Marshal(esQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Client.Search(
		s.esClient.Client.Search.WithContext(ctx),
		s.esClient.Client.Search.WithIndex(platformES.OfferingsIndexName),
		s.esClient.Client.Search.WithBody(bytes.NewReader(bodyBytes)),
		s.esClient.Client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("elasticsearch search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, nil, fmt.Errorf("elasticsearch search returned status %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to decode elasticsearch response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, parseErr := uuid.Parse(hit.ID)
		if parseErr != nil {
			continue
		}
		ids = append(ids, id)
	}

	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	// Preserve Elasticsearch relevance ordering.
	byID := make(map[uuid.UUID]Offering, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]Offering, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}

	pagination := common.NewPagination(parsed.Hits.Total.Value, query.Page, query.PageSize)
	return ordered, pagination, nil
}
