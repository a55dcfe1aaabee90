// File: internal/ws/handler.go
package ws

import (
	"net/http"

	"swapseva_backend/internal/common"
	"swapseva_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set custom headers on WebSocket connects, so origin
	// policy is enforced by the CORS layer in front of the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades authenticated requests to WebSocket connections.
type Handler struct {
	manager      *Manager
	tokenService shared.TokenService
	logger       *zap.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(manager *Manager, tokenService shared.TokenService, logger *zap.Logger) *Handler {
	return &Handler{
		manager:      manager,
		tokenService: tokenService,
		logger:       logger,
	}
}

// RegisterRoutes sets up the WebSocket upgrade route. The token travels as a
// query parameter because browser WebSocket clients cannot send an
// Authorization header.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", h.serveWS)
}

func (h *Handler) serveWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Missing token query parameter."))
		return
	}

	claims, err := h.tokenService.ValidateToken(token)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err), zap.String("userID", claims.UserID.String()))
		return
	}

	client := NewClient(claims.UserID, conn, h.manager, h.logger)
	client.Start()
}
