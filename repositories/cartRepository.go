package repositories

import (
	"context"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Create(ctx context.Context, cart *models.Cart) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindBySession(ctx context.Context, sessionID string) (*models.Cart, error)
	// Save writes the cart row and replaces its lines with cart.Items.
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteBySession(ctx context.Context, sessionID string) error
	// DeleteExpired removes session carts that expired at or before at and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, at time.Time) (int64, error)
}

type cartRepository struct{ base }

func (r *cartRepository) Create(ctx context.Context, cart *models.Cart) error {
	err := r.conn(ctx).Create(cart).Error
	if isUniqueViolation(err) {
		return models.NewConflictError("CartRepository.Create", "owner", "owner already has a cart")
	}
	return err
}

func (r *cartRepository) find(ctx context.Context, where string, arg interface{}) (*models.Cart, error) {
	var cart models.Cart
	err := r.one(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at").Order("cart_items.id")
		}).
		Where(where, arg).
		First(&cart).Error
	return notFoundAsNil(&cart, err)
}

func (r *cartRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *cartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.find(ctx, "user_id = ?", userID)
}

func (r *cartRepository) FindBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	return r.find(ctx, "session_id = ?", sessionID)
}

func (r *cartRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = models.Now()
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("created_at", clause.Associations).Save(cart).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		for i := range cart.Items {
			cart.Items[i].CartID = cart.ID
		}
		return tx.Omit(clause.Associations).Create(&cart.Items).Error
	})
}

func (r *cartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.deleteWhere(ctx, "id = ?", id)
}

func (r *cartRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.deleteWhere(ctx, "user_id = ?", userID)
}

func (r *cartRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	return r.deleteWhere(ctx, "session_id = ?", sessionID)
}

func (r *cartRepository) DeleteExpired(ctx context.Context, at time.Time) (int64, error) {
	var removed int64
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.Cart{}).Select("id").Where("expires_at IS NOT NULL AND expires_at <= ?", at)
		if err := tx.Where("cart_id IN (?)", expired).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("expires_at IS NOT NULL AND expires_at <= ?", at).Delete(&models.Cart{})
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}

func (r *cartRepository) deleteWhere(ctx context.Context, where string, arg interface{}) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		carts := tx.Model(&models.Cart{}).Select("id").Where(where, arg)
		if err := tx.Where("cart_id IN (?)", carts).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where(where, arg).Delete(&models.Cart{}).Error
	})
}
