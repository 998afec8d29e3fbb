package repositories

import (
	"context"
	"strings"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/google/uuid"
)

type ShipmentRepository interface {
	Create(ctx context.Context, shipment *models.Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	Update(ctx context.Context, shipment *models.Shipment) error
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error
}

type shipmentRepository struct{ base }

func (r *shipmentRepository) Create(ctx context.Context, shipment *models.Shipment) error {
	const op = "ShipmentRepository.Create"
	existing, err := r.FindByOrderID(ctx, shipment.OrderID)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewConflictError(op, "orderId", "order already has a shipment")
	}
	if err := r.conn(ctx).Create(shipment).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError(op, "orderId", "order already has a shipment")
		}
		return err
	}
	return nil
}

func (r *shipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	return notFoundAsNil(&shipment, r.one(ctx).First(&shipment, "id = ?", id).Error)
}

func (r *shipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.one(ctx).Where("tracking_number = ?", strings.TrimSpace(trackingNumber)).First(&shipment).Error
	return notFoundAsNil(&shipment, err)
}

func (r *shipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	return notFoundAsNil(&shipment, r.one(ctx).Where("order_id = ?", orderID).First(&shipment).Error)
}

func (r *shipmentRepository) Update(ctx context.Context, shipment *models.Shipment) error {
	shipment.Touch()
	return r.conn(ctx).Omit("created_at").Save(shipment).Error
}

func (r *shipmentRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	return r.conn(ctx).Where("order_id = ?", orderID).Delete(&models.Shipment{}).Error
}
