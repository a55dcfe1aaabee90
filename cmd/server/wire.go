// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"swapseva_backend/internal/app"
	"swapseva_backend/internal/auth"
	"swapseva_backend/internal/category"
	"swapseva_backend/internal/chat"
	"swapseva_backend/internal/config"
	"swapseva_backend/internal/jobs"
	"swapseva_backend/internal/notification"
	"swapseva_backend/internal/offering"
	"swapseva_backend/internal/platform/database"
	"swapseva_backend/internal/platform/elasticsearch"
	"swapseva_backend/internal/platform/logger"
	"swapseva_backend/internal/shared"
	"swapseva_backend/internal/trade"
	"swapseva_backend/internal/user"
	"swapseva_backend/internal/ws"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		elasticsearch.NewClient,

		// Auth / tokens
		auth.NewJWTService,
		wire.Bind(new(shared.TokenService), new(*auth.JWTService)),

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),
		user.NewHandler,
		auth.NewHandler,

		// Realtime relay
		ws.NewManager,
		wire.Bind(new(shared.Relay), new(*ws.Manager)),
		ws.NewHandler,

		// Categories
		category.NewGORMRepository,
		category.NewService,
		category.NewHandler,

		// Offerings
		offering.NewGORMRepository,
		offering.NewService,
		offering.NewHandler,

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		notification.NewHandler,

		// Chats
		chat.NewGORMRepository,
		chat.NewService,
		chat.NewHandler,

		// Trade workflow
		trade.NewGORMRepository,
		trade.NewService,
		trade.NewHandler,

		// Jobs
		jobs.NewNotificationExpiryJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
