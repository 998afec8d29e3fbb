package services

import (
	"context"
	"fmt"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/repositories"
	"github.com/google/uuid"
)

// LineInput asks for quantity units of one product.
type LineInput struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type PlaceOrderInput struct {
	Customer        models.Customer
	ShippingAddress models.Address
	BillingAddress  *models.Address
	Notes           string
	Lines           []LineInput
}

// CheckoutDetails completes a cart into an order. Guest carts need GuestEmail
// or GuestPhone.
type CheckoutDetails struct {
	ShippingAddress models.Address
	BillingAddress  *models.Address
	Notes           string
	GuestEmail      string
	GuestPhone      string
}

type CheckoutService struct {
	store *repositories.Store
	deps
}

func NewCheckoutService(store *repositories.Store, opts ...Option) *CheckoutService {
	return &CheckoutService{store: store, deps: newDeps(opts)}
}

// PlaceOrder reserves stock for every line and records a PENDING order, all
// in one transaction. Any unavailable product or short stock rolls the whole
// order back.
func (s *CheckoutService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	const op = "CheckoutService.PlaceOrder"
	lines, err := mergeLines(op, in.Lines)
	if err != nil {
		return nil, err
	}
	order, err := models.NewOrder(in.Customer, in.ShippingAddress, in.BillingAddress, in.Notes)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := attachCustomer(ctx, tx, op, order); err != nil {
			return err
		}
		return reserveAndCreate(ctx, tx, op, order, lines)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed", map[string]interface{}{
		"order_id": order.ID.String(),
		"items":    len(order.Items),
		"total":    order.TotalAmount.StringFixed(2),
		"guest":    order.IsGuestOrder(),
	})
	s.invalidateCatalog(ctx)
	s.notify(ctx, order, "Order confirmation", "Thank you! We have received your order.")
	return order, nil
}

// CheckoutCart turns the cart's lines into an order and removes the cart in
// the same transaction.
func (s *CheckoutService) CheckoutCart(ctx context.Context, cartID uuid.UUID, details CheckoutDetails) (*models.Order, error) {
	const op = "CheckoutService.CheckoutCart"
	var order *models.Order

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		cart, err := tx.Carts.FindByID(ctx, cartID)
		if err != nil {
			return err
		}
		if cart == nil {
			return models.NewNotFoundError(op, "cart", cartID.String())
		}
		if cart.IsEmpty() {
			return models.NewValidationError(op, "items", "cart is empty")
		}
		if cart.IsExpired(models.Now()) {
			return models.NewValidationError(op, "cart", "cart has expired")
		}

		var customer models.Customer
		if cart.UserID != nil {
			customer = models.RegisteredCustomer{UserID: *cart.UserID}
		} else {
			customer = models.GuestCustomer{Email: details.GuestEmail, Phone: details.GuestPhone}
		}

		lines := make([]LineInput, 0, len(cart.Items))
		for _, item := range cart.Items {
			lines = append(lines, LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		lines, err = mergeLines(op, lines)
		if err != nil {
			return err
		}

		order, err = models.NewOrder(customer, details.ShippingAddress, details.BillingAddress, details.Notes)
		if err != nil {
			return err
		}
		if err := attachCustomer(ctx, tx, op, order); err != nil {
			return err
		}
		if err := reserveAndCreate(ctx, tx, op, order, lines); err != nil {
			return err
		}
		return tx.Carts.Delete(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cart checked out", map[string]interface{}{
		"cart_id":  cartID.String(),
		"order_id": order.ID.String(),
		"total":    order.TotalAmount.StringFixed(2),
	})
	s.invalidateCatalog(ctx)
	s.notify(ctx, order, "Order confirmation", "Thank you! We have received your order.")
	return order, nil
}

// mergeLines validates lines and folds repeated products into one line,
// keeping first-seen order.
func mergeLines(op string, lines []LineInput) ([]LineInput, error) {
	if len(lines) == 0 {
		return nil, models.NewValidationError(op, "lines", "order must have at least one item")
	}
	merged := make([]LineInput, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, models.NewValidationError(op, fmt.Sprintf("lines[%d].productId", i), "product id is required")
		}
		if line.Quantity <= 0 {
			return nil, models.NewValidationError(op, fmt.Sprintf("lines[%d].quantity", i), "quantity must be greater than 0")
		}
		if j, ok := index[line.ProductID]; ok {
			merged[j].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// attachCustomer loads the registered user behind order so notifications can
// reach them. Inactive or missing users cannot order.
func attachCustomer(ctx context.Context, tx *repositories.Store, op string, order *models.Order) error {
	if order.UserID == nil {
		return nil
	}
	user, err := tx.Users.FindByID(ctx, *order.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewNotFoundError(op, "user", order.UserID.String())
	}
	if !user.IsActive {
		return models.NewValidationError(op, "customer", "user account is inactive")
	}
	order.User = user
	return nil
}

func reserveAndCreate(ctx context.Context, tx *repositories.Store, op string, order *models.Order, lines []LineInput) error {
	for _, line := range lines {
		product, err := tx.Products.FindByID(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return models.NewNotFoundError(op, "product", line.ProductID.String())
		}
		if !product.IsActive {
			return models.NewValidationError(op, "productId", fmt.Sprintf("product %s is not available", product.ID))
		}
		if err := tx.Products.DecreaseStock(ctx, product.ID, line.Quantity); err != nil {
			return err
		}
		item, err := models.NewOrderItem(product, line.Quantity)
		if err != nil {
			return err
		}
		order.AddItem(*item)
	}
	return tx.Orders.Create(ctx, order)
}
