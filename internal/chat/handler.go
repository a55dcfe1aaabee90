// File: internal/chat/handler.go
package chat

import (
	"errors"

	"swapseva_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for chat handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new chat handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for chat operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	chats := router.Group("/chats", authMW)
	{
		chats.GET("", h.listChats)
		chats.GET("/:chat_id", h.getChat)
		chats.POST("/message", h.sendMessage)
		chats.PUT("/:chat_id/read", h.markRead)
		chats.PUT("/:chat_id/complete", h.completeTrade)
	}
}

func (h *Handler) listChats(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	chats, err := h.service.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chats retrieved successfully.", chats)
}

func (h *Handler) getChat(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid chat ID format."))
		return
	}

	chat, err := h.service.GetChat(c.Request.Context(), chatID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chat retrieved successfully.", chat)
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User ID not found in token."))
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	message, err := h.service.SendMessage(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Message sent.", message)
}

func (h *Handler) markRead(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid chat ID format."))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), chatID, userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chat marked as read.", nil)
}

func (h *Handler) completeTrade(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid chat ID format."))
		return
	}

	chat, err := h.service.CompleteTrade(c.Request.Context(), chatID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Trade marked as completed.", ToChatResponse(chat))
}
