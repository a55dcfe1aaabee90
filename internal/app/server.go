// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"swapseva_backend/internal/auth"
	"swapseva_backend/internal/category"
	"swapseva_backend/internal/chat"
	"swapseva_backend/internal/common"
	"swapseva_backend/internal/config"
	"swapseva_backend/internal/jobs"
	"swapseva_backend/internal/middleware"
	"swapseva_backend/internal/notification"
	"swapseva_backend/internal/offering"
	platformES "swapseva_backend/internal/platform/elasticsearch"
	"swapseva_backend/internal/shared"
	"swapseva_backend/internal/trade"
	"swapseva_backend/internal/user"
	"swapseva_backend/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Exposed for startup tasks in main (index creation, logging).
	AppLogger *zap.Logger
	ESClient  *platformES.ESClientWrapper

	// Handlers
	userHandler         *user.Handler
	authHandler         *auth.Handler
	categoryHandler     *category.Handler
	offeringHandler     *offering.Handler
	notificationHandler *notification.Handler
	tradeHandler        *trade.Handler
	chatHandler         *chat.Handler
	wsHandler           *ws.Handler

	// Realtime + jobs
	wsManager             *ws.Manager
	notificationExpiryJob *jobs.NotificationExpiryJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	tokenService shared.TokenService,
	userHandler *user.Handler,
	authHandler *auth.Handler,
	categoryHandler *category.Handler,
	offeringHandler *offering.Handler,
	notificationHandler *notification.Handler,
	tradeHandler *trade.Handler,
	chatHandler *chat.Handler,
	wsHandler *ws.Handler,
	wsManager *ws.Manager,
	notificationExpiryJob *jobs.NotificationExpiryJob,
	esClient *platformES.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(tokenService, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(common.RoleAdmin)

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "UP",
			"message":        "SwapSeva API is healthy!",
			"ws_connections": wsManager.ConnectionCount(),
		})
	})

	v1 := router.Group("/api/v1")

	authHandler.RegisterPublicRoutes(v1)
	authRouterGroup := v1.Group("/auth", authMW)
	authHandler.RegisterRoutes(authRouterGroup)

	userHandler.RegisterRoutes(v1, authMW)
	categoryHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	offeringHandler.RegisterRoutes(v1, authMW, adminRoleMW)
	notificationHandler.RegisterRoutes(v1, authMW)
	tradeHandler.RegisterRoutes(v1, authMW)
	chatHandler.RegisterRoutes(v1, authMW)
	wsHandler.RegisterRoutes(v1)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:            httpServer,
		router:                router,
		cfg:                   cfg,
		logger:                logger,
		AppLogger:             logger,
		ESClient:              esClient,
		userHandler:           userHandler,
		authHandler:           authHandler,
		categoryHandler:       categoryHandler,
		offeringHandler:       offeringHandler,
		notificationHandler:   notificationHandler,
		tradeHandler:          tradeHandler,
		chatHandler:           chatHandler,
		wsHandler:             wsHandler,
		wsManager:             wsManager,
		notificationExpiryJob: notificationExpiryJob,
	}, nil
}

// Start launches background jobs and the HTTP listener. Blocks until the
// server stops.
func (s *Server) Start() error {
	if s.notificationExpiryJob != nil {
		if err := s.notificationExpiryJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start notification expiry job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

// Shutdown stops jobs, drops WebSocket connections, and drains HTTP requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.notificationExpiryJob != nil {
		s.notificationExpiryJob.Stop()
	}
	if s.wsManager != nil {
		s.wsManager.Shutdown()
	}
	return s.httpServer.Shutdown(ctx)
}
