// File: internal/trade/handler.go
package trade

import (
	"errors"

	"swapseva_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for trade workflow handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new trade handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for the trade workflow. The accept,
// confirm, and decline actions live under /notifications because the client
// drives them from the notification feed.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.POST("/users/connect", authMW, h.requestTrade)

	notifications := router.Group("/notifications", authMW)
	{
		notifications.POST("/accept-trade", h.acceptTrade)
		notifications.POST("/confirm-trade", h.confirmTrade)
		notifications.POST("/decline-trade", h.declineTrade)
	}
}

func (h *Handler) requestTrade(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("RequestTrade: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	tradeRequest, err := h.service.RequestTrade(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Trade request sent.", ToTradeRequestResponse(tradeRequest))
}

func (h *Handler) acceptTrade(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var req AcceptTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	tradeRequest, err := h.service.AcceptTrade(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Trade request accepted.", ToTradeRequestResponse(tradeRequest))
}

func (h *Handler) confirmTrade(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var req ConfirmTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	chatID, err := h.service.ConfirmTrade(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Trade confirmed. A chat has been opened.", gin.H{"chat_id": chatID})
}

func (h *Handler) declineTrade(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var req DeclineTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	if err := h.service.DeclineTrade(c.Request.Context(), userID, req); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Trade declined.", nil)
}
