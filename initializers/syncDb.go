package initializers

import (
	"fmt"

	"github.com/Kariqs/eden-store-api/models"
	"gorm.io/gorm"
)

// SyncDatabase creates or updates every table, including the
// (user_id, product_id) unique index on reviews.
func SyncDatabase(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Shipment{},
		&models.Review{},
		&models.Cart{},
		&models.CartItem{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}
