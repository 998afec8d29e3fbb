package repositories

import (
	"context"
	"strings"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/google/uuid"
)

type PaymentRepository interface {
	// Create rejects a second payment with the same gateway id, or a second
	// payment for the same order, as a conflict.
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error
}

type paymentRepository struct{ base }

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	const op = "PaymentRepository.Create"
	if payment.GatewayPaymentID != nil {
		existing, err := r.FindByGatewayPaymentID(ctx, *payment.GatewayPaymentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewConflictError(op, "stripePaymentId", "gateway payment id already recorded")
		}
	}
	existing, err := r.FindByOrderID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewConflictError(op, "orderId", "order already has a payment")
	}

	if err := r.conn(ctx).Create(payment).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError(op, "stripePaymentId", "payment already exists")
		}
		return err
	}
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	return notFoundAsNil(&payment, r.one(ctx).First(&payment, "id = ?", id).Error)
}

func (r *paymentRepository) FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.one(ctx).Where("stripe_payment_id = ?", strings.TrimSpace(gatewayPaymentID)).First(&payment).Error
	return notFoundAsNil(&payment, err)
}

func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	return notFoundAsNil(&payment, r.one(ctx).Where("order_id = ?", orderID).First(&payment).Error)
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	payment.Touch()
	err := r.conn(ctx).Omit("created_at").Save(payment).Error
	if isUniqueViolation(err) {
		return models.NewConflictError("PaymentRepository.Update", "stripePaymentId", "gateway payment id already recorded")
	}
	return err
}

func (r *paymentRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	return r.conn(ctx).Where("order_id = ?", orderID).Delete(&models.Payment{}).Error
}
