// File: internal/platform/database/migrate.go
package database

import (
	"fmt"

	"swapseva_backend/internal/category"
	"swapseva_backend/internal/chat"
	"swapseva_backend/internal/notification"
	"swapseva_backend/internal/offering"
	"swapseva_backend/internal/trade"
	"swapseva_backend/internal/user"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for all application models.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&user.User{},
		&category.Category{},
		&offering.Offering{},
		&notification.Notification{},
		&trade.TradeRequest{},
		&chat.Chat{},
		&chat.Message{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}
