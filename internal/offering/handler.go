// File: internal/offering/handler.go
package offering

import (
	"errors"

	"swapseva_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for offering handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new offering handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for offering operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminRoleMW gin.HandlerFunc) {
	offerings := router.Group("/offerings")
	{
		offerings.GET("", h.searchOfferings)
		offerings.GET("/:offering_id", h.getOffering)
		offerings.POST("", authMW, h.createOffering)
		offerings.PUT("/:offering_id", authMW, h.updateOffering)
		offerings.DELETE("/:offering_id", authMW, h.deleteOffering)
	}

	router.GET("/users/me/offerings", authMW, h.getMyOfferings)

	admin := router.Group("/admin/offerings", authMW, adminRoleMW)
	{
		admin.POST("/:offering_id/approve", h.adminApprove)
		admin.POST("/:offering_id/reject", h.adminReject)
	}
}

func (h *Handler) searchOfferings(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)

	query := SearchQuery{
		Term:         c.Query("q"),
		Type:         OfferingType(c.Query("type")),
		CategorySlug: c.Query("category"),
		Page:         page,
		PageSize:     pageSize,
	}
	if query.Type != "" && query.Type != TypeSkill && query.Type != TypeGood {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("type must be 'skill' or 'good'."))
		return
	}
	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		categoryID, err := uuid.Parse(categoryIDStr)
		if err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid category_id format."))
			return
		}
		query.CategoryID = &categoryID
	}

	offerings, pagination, err := h.service.SearchOfferings(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Offerings retrieved successfully.", toResponses(offerings), pagination)
}

func (h *Handler) getOffering(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("offering_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid offering ID format."))
		return
	}

	offering, err := h.service.GetOfferingByID(c.Request.Context(), offeringID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Offering retrieved successfully.", ToOfferingResponse(offering))
}

func (h *Handler) getMyOfferings(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	page, pageSize := common.GetPaginationParams(c)
	offerings, pagination, err := h.service.GetUserOfferings(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Your offerings retrieved successfully.", toResponses(offerings), pagination)
}

func (h *Handler) createOffering(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var req CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("CreateOffering: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	offering, err := h.service.CreateOffering(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Offering created successfully. It will be visible once approved.", ToOfferingResponse(offering))
}

func (h *Handler) updateOffering(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	offeringID, err := uuid.Parse(c.Param("offering_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid offering ID format."))
		return
	}

	var req UpdateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	offering, err := h.service.UpdateOffering(c.Request.Context(), offeringID, userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Offering updated successfully.", ToOfferingResponse(offering))
}

func (h *Handler) deleteOffering(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	offeringID, err := uuid.Parse(c.Param("offering_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid offering ID format."))
		return
	}

	if err := h.service.DeleteOffering(c.Request.Context(), offeringID, userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) adminApprove(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("offering_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid offering ID format."))
		return
	}

	offering, err := h.service.AdminApproveOffering(c.Request.Context(), offeringID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Offering approved.", ToOfferingResponse(offering))
}

func (h *Handler) adminReject(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("offering_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid offering ID format."))
		return
	}

	offering, err := h.service.AdminRejectOffering(c.Request.Context(), offeringID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Offering rejected.", ToOfferingResponse(offering))
}

func toResponses(offerings []Offering) []OfferingResponse {
	responses := make([]OfferingResponse, len(offerings))
	for i := range offerings {
		responses[i] = ToOfferingResponse(&offerings[i])
	}
	return responses
}
