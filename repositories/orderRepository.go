package repositories

import (
	"context"
	"strings"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	// FindByID loads the order with items, payment, shipment and user.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, page PageRequest) (Page[models.Order], error)
	FindByGuestEmail(ctx context.Context, email string) ([]models.Order, error)
	FindByGuestPhone(ctx context.Context, phone string) ([]models.Order, error)
	// FindGuestOrders returns guest orders matching either contact. Blank
	// arguments match nothing.
	FindGuestOrders(ctx context.Context, email, phone string) ([]models.Order, error)
	FindByStatus(ctx context.Context, status models.OrderStatus, page PageRequest) (Page[models.Order], error)
	// FindBySeller returns orders containing at least one product of seller.
	FindBySeller(ctx context.Context, sellerID uuid.UUID, page PageRequest) (Page[models.Order], error)
	// HasDeliveredPurchase reports whether user has a delivered order that
	// contains product.
	HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Update(ctx context.Context, order *models.Order) error
	// Delete removes the order with its items, payment and shipment.
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderRepository struct{ base }

var orderSort = sortable{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"status":      "status",
	"totalAmount": "total_amount",
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.created_at").Order("order_items.id")
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if len(order.Items) == 0 {
		return models.NewValidationError("OrderRepository.Create", "items", "order must have at least one item")
	}
	return r.conn(ctx).Omit("User", "Payment", "Shipment").Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.one(ctx).
		Preload("Items", orderedItems).
		Preload("Payment").
		Preload("Shipment").
		Preload("User").
		First(&order, "id = ?", id).Error
	return notFoundAsNil(&order, err)
}

func (r *orderRepository) FindByUser(ctx context.Context, userID uuid.UUID, page PageRequest) (Page[models.Order], error) {
	query := r.conn(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return paginate[models.Order](query, page, orderSort.orderBy(page.Sort, "orders"), "Items")
}

func (r *orderRepository) findGuest(ctx context.Context, where string, args ...interface{}) ([]models.Order, error) {
	var orders []models.Order
	err := r.conn(ctx).
		Preload("Items", orderedItems).
		Where("user_id IS NULL").
		Where(where, args...).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) FindByGuestEmail(ctx context.Context, email string) ([]models.Order, error) {
	return r.findGuest(ctx, "guest_email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *orderRepository) FindByGuestPhone(ctx context.Context, phone string) ([]models.Order, error) {
	return r.findGuest(ctx, "guest_phone = ?", strings.TrimSpace(phone))
}

func (r *orderRepository) FindGuestOrders(ctx context.Context, email, phone string) ([]models.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	switch {
	case email == "" && phone == "":
		return []models.Order{}, nil
	case phone == "":
		return r.FindByGuestEmail(ctx, email)
	case email == "":
		return r.FindByGuestPhone(ctx, phone)
	}
	return r.findGuest(ctx, "(guest_email = ? OR guest_phone = ?)", email, phone)
}

func (r *orderRepository) FindByStatus(ctx context.Context, status models.OrderStatus, page PageRequest) (Page[models.Order], error) {
	query := r.conn(ctx).Model(&models.Order{}).Where("status = ?", status)
	return paginate[models.Order](query, page, orderSort.orderBy(page.Sort, "orders"), "Items")
}

// FindBySeller filters through a subquery rather than a join so an order with
// several of the seller's products is counted and returned once.
func (r *orderRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, page PageRequest) (Page[models.Order], error) {
	sellerOrders := r.conn(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.seller_id = ?", sellerID)

	query := r.conn(ctx).Model(&models.Order{}).Where("orders.id IN (?)", sellerOrders)
	return paginate[models.Order](query, page, orderSort.orderBy(page.Sort, "orders"), "Items")
}

func (r *orderRepository) HasDeliveredPurchase(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&models.Order{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, models.OrderDelivered, productID).
		Count(&count).Error
	return count > 0, err
}

// Update persists the order row only. Items are fixed once the order exists
// and related payment and shipment rows have their own repositories.
func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	order.Touch()
	return r.conn(ctx).Omit("created_at", clause.Associations).Save(order).Error
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.Shipment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, "id = ?", id).Error
	})
}
