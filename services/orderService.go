package services

import (
	"context"
	"time"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/repositories"
	"github.com/google/uuid"
)

// PaymentOutcome is the final word from the payment gateway.
type PaymentOutcome struct {
	Status         models.PaymentStatus `json:"status"`
	ReceiptURL     string               `json:"receiptUrl"`
	FailureCode    string               `json:"failureCode"`
	FailureMessage string               `json:"failureMessage"`
}

// ShipmentUpdate is one status report from the carrier.
type ShipmentUpdate struct {
	Status            models.ShipmentStatus `json:"status"`
	Location          string                `json:"location"`
	Description       string                `json:"description"`
	OccurredAt        time.Time             `json:"occurredAt"`
	EstimatedDelivery *time.Time            `json:"estimatedDelivery"`
}

// OrderService owns the order lifecycle. Each operation reads and writes the
// order, payment and shipment inside one transaction, so no caller ever sees
// an order whose status disagrees with its payment or shipment.
type OrderService struct {
	store *repositories.Store
	deps
}

func NewOrderService(store *repositories.Store, opts ...Option) *OrderService {
	return &OrderService{store: store, deps: newDeps(opts)}
}

// Get loads an order with its items, payment and shipment.
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, models.NewNotFoundError("OrderService.Get", "order", orderID.String())
	}
	return order, nil
}

func loadOrder(ctx context.Context, tx *repositories.Store, op string, orderID uuid.UUID) (*models.Order, error) {
	order, err := tx.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, models.NewNotFoundError(op, "order", orderID.String())
	}
	return order, nil
}

// RegisterPayment records a PENDING payment for the full order total.
func (s *OrderService) RegisterPayment(ctx context.Context, orderID uuid.UUID, gatewayPaymentID, method string) (*models.Payment, error) {
	const op = "OrderService.RegisterPayment"
	var payment *models.Payment

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		order, err := loadOrder(ctx, tx, op, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderPending {
			return models.NewValidationError(op, "status", "payments can only be registered for pending orders")
		}
		payment, err = models.NewPayment(order, gatewayPaymentID, method)
		if err != nil {
			return err
		}
		return tx.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment registered", map[string]interface{}{
		"order_id":   orderID.String(),
		"payment_id": payment.ID.String(),
		"amount":     payment.Amount.StringFixed(2),
	})
	return payment, nil
}

// ConfirmPayment applies the gateway's outcome. SUCCESS also moves the order
// from PENDING to PAID. Repeating an outcome already applied changes nothing.
func (s *OrderService) ConfirmPayment(ctx context.Context, gatewayPaymentID string, outcome PaymentOutcome) (*models.Order, error) {
	const op = "OrderService.ConfirmPayment"
	if outcome.Status != models.PaymentSuccess && outcome.Status != models.PaymentFailed {
		return nil, models.NewValidationError(op, "status", "outcome must be SUCCESS or FAILED")
	}

	var (
		order   *models.Order
		changed bool
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		payment, err := tx.Payments.FindByGatewayPaymentID(ctx, gatewayPaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return models.NewNotFoundError(op, "payment", gatewayPaymentID)
		}
		if order, err = loadOrder(ctx, tx, op, payment.OrderID); err != nil {
			return err
		}
		if payment.Status == outcome.Status {
			order.Payment = payment
			return nil
		}

		if err := payment.MoveTo(outcome.Status); err != nil {
			return err
		}
		meta := payment.Meta()
		meta.ReceiptURL = outcome.ReceiptURL
		meta.FailureCode = outcome.FailureCode
		meta.FailureMessage = outcome.FailureMessage
		payment.SetMeta(meta)
		if err := tx.Payments.Update(ctx, payment); err != nil {
			return err
		}

		if outcome.Status == models.PaymentSuccess {
			if err := order.Apply(models.EventPaymentSucceeded); err != nil {
				return err
			}
			if err := tx.Orders.Update(ctx, order); err != nil {
				return err
			}
		}
		order.Payment = payment
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Payment confirmed", map[string]interface{}{
			"order_id": order.ID.String(),
			"status":   outcome.Status.String(),
		})
		if outcome.Status == models.PaymentSuccess {
			s.notify(ctx, order, "Payment received", "Your payment was successful and your order is being prepared.")
		} else {
			s.notify(ctx, order, "Payment failed", "We could not process your payment.")
		}
	}
	return order, nil
}

// SyncPayment asks the gateway for the transaction's status and applies it
// once it is final. A still-pending transaction leaves everything unchanged.
func (s *OrderService) SyncPayment(ctx context.Context, gatewayPaymentID string) (*models.Order, error) {
	const op = "OrderService.SyncPayment"
	if s.gateway == nil {
		return nil, &models.DomainError{Op: op, Kind: models.KindConfig, Message: "no payment gateway configured", Err: models.ErrMissingConfiguration}
	}
	report, err := s.gateway.TransactionStatus(ctx, gatewayPaymentID)
	if err != nil {
		return nil, err
	}
	if !report.Settled() {
		payment, err := s.store.Payments.FindByGatewayPaymentID(ctx, gatewayPaymentID)
		if err != nil {
			return nil, err
		}
		if payment == nil {
			return nil, models.NewNotFoundError(op, "payment", gatewayPaymentID)
		}
		return s.Get(ctx, payment.OrderID)
	}
	outcome := PaymentOutcome{Status: report.Status}
	if report.Status == models.PaymentFailed {
		outcome.FailureMessage = report.Description
	}
	return s.ConfirmPayment(ctx, gatewayPaymentID, outcome)
}

// StartFulfillment moves a PAID order to PROCESSING.
func (s *OrderService) StartFulfillment(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	const op = "OrderService.StartFulfillment"
	var order *models.Order

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		if order, err = loadOrder(ctx, tx, op, orderID); err != nil {
			return err
		}
		if err := order.Apply(models.EventFulfillmentStarted); err != nil {
			return err
		}
		return tx.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, order, "Order in progress", "We are preparing your order for shipment.")
	return order, nil
}

// AttachShipment books a PENDING shipment for an order in PROCESSING.
func (s *OrderService) AttachShipment(ctx context.Context, orderID uuid.UUID, details models.ShipmentDetails) (*models.Shipment, error) {
	const op = "OrderService.AttachShipment"
	var shipment *models.Shipment

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		order, err := loadOrder(ctx, tx, op, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderProcessing {
			return models.NewValidationError(op, "status", "shipments can only be attached to orders in processing")
		}
		if shipment, err = models.NewShipment(order.ID, details); err != nil {
			return err
		}
		return tx.Shipments.Create(ctx, shipment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Shipment attached", map[string]interface{}{
		"order_id":        orderID.String(),
		"tracking_number": details.TrackingNumber,
		"carrier":         details.Carrier,
	})
	return shipment, nil
}

// ApplyShipmentUpdate records a carrier report and moves the order along:
// IN_TRANSIT and OUT_FOR_DELIVERY ship it, DELIVERED delivers it. A report
// repeating the current status is ignored.
func (s *OrderService) ApplyShipmentUpdate(ctx context.Context, trackingNumber string, update ShipmentUpdate) (*models.Order, error) {
	const op = "OrderService.ApplyShipmentUpdate"
	if _, ok := models.ParseShipmentStatus(string(update.Status)); !ok {
		return nil, models.NewValidationError(op, "status", "unknown shipment status "+string(update.Status))
	}

	var (
		order      *models.Order
		fromStatus models.OrderStatus
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		shipment, err := tx.Shipments.FindByTrackingNumber(ctx, trackingNumber)
		if err != nil {
			return err
		}
		if shipment == nil {
			return models.NewNotFoundError(op, "shipment", trackingNumber)
		}
		if order, err = loadOrder(ctx, tx, op, shipment.OrderID); err != nil {
			return err
		}
		fromStatus = order.Status

		if shipment.Status == update.Status {
			order.Shipment = shipment
			return nil
		}
		err = shipment.Record(models.TrackingEvent{
			Status:      update.Status,
			Location:    update.Location,
			Description: update.Description,
			OccurredAt:  update.OccurredAt,
		})
		if err != nil {
			return err
		}
		if update.EstimatedDelivery != nil {
			shipment.EstimatedDelivery = update.EstimatedDelivery
		}
		if err := tx.Shipments.Update(ctx, shipment); err != nil {
			return err
		}

		events := models.OrderEventsForShipment(order.Status, shipment.Status)
		for _, ev := range events {
			if err := order.Apply(ev); err != nil {
				return err
			}
		}
		if len(events) > 0 {
			if err := tx.Orders.Update(ctx, order); err != nil {
				return err
			}
		}
		order.Shipment = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order.Status != fromStatus {
		s.logger.Info("Order status changed by shipment", map[string]interface{}{
			"order_id":        order.ID.String(),
			"tracking_number": trackingNumber,
			"from":            fromStatus.String(),
			"to":              order.Status.String(),
		})
		switch order.Status {
		case models.OrderShipped:
			s.notify(ctx, order, "Order shipped", "Your order is on its way.")
		case models.OrderDelivered:
			s.notify(ctx, order, "Order delivered", "Your order has been delivered.")
		}
	}
	return order, nil
}

// SyncShipment pulls the carrier's latest report for trackingNumber and
// applies it.
func (s *OrderService) SyncShipment(ctx context.Context, trackingNumber string) (*models.Order, error) {
	const op = "OrderService.SyncShipment"
	if s.tracker == nil {
		return nil, &models.DomainError{Op: op, Kind: models.KindConfig, Message: "no carrier tracker configured", Err: models.ErrMissingConfiguration}
	}
	shipment, err := s.store.Shipments.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, models.NewNotFoundError(op, "shipment", trackingNumber)
	}

	report, err := s.tracker.Track(ctx, shipment.Carrier, trackingNumber)
	if err != nil {
		return nil, err
	}
	latest := report.Latest()
	return s.ApplyShipmentUpdate(ctx, trackingNumber, ShipmentUpdate{
		Status:            report.Status,
		Location:          latest.Location,
		Description:       latest.Description,
		OccurredAt:        latest.OccurredAt,
		EstimatedDelivery: report.EstimatedDelivery,
	})
}

// Cancel cancels a PENDING or PAID order and returns its items to stock. A
// captured payment is marked REFUNDED; a pending one is marked FAILED.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	const op = "OrderService.Cancel"
	var order *models.Order

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		if order, err = loadOrder(ctx, tx, op, orderID); err != nil {
			return err
		}
		if !order.CanBeCancelled() {
			return models.NewTransitionError(op, order.ID.String(), order.Status, models.OrderCancelled)
		}

		payment, err := tx.Payments.FindByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		if payment != nil {
			switch payment.Status {
			case models.PaymentSuccess:
				if err := refundPayment(ctx, tx, payment); err != nil {
					return err
				}
			case models.PaymentPending:
				if err := payment.MoveTo(models.PaymentFailed); err != nil {
					return err
				}
				meta := payment.Meta()
				meta.FailureCode = "order_cancelled"
				meta.FailureMessage = "order was cancelled before payment completed"
				payment.SetMeta(meta)
				if err := tx.Payments.Update(ctx, payment); err != nil {
					return err
				}
			}
			order.Payment = payment
		}

		if err := s.restock(ctx, tx, order); err != nil {
			return err
		}
		if err := order.Apply(models.EventCancel); err != nil {
			return err
		}
		return tx.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled", map[string]interface{}{"order_id": order.ID.String()})
	s.invalidateCatalog(ctx)
	s.notify(ctx, order, "Order cancelled", "Your order has been cancelled.")
	return order, nil
}

// Refund refunds a PAID, PROCESSING or SHIPPED order whose payment succeeded
// and returns its items to stock.
func (s *OrderService) Refund(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	const op = "OrderService.Refund"
	var order *models.Order

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		if order, err = loadOrder(ctx, tx, op, orderID); err != nil {
			return err
		}
		if !order.CanBeRefunded() {
			return models.NewTransitionError(op, order.ID.String(), order.Status, models.OrderRefunded)
		}
		payment, err := tx.Payments.FindByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		if payment == nil {
			return models.NewValidationError(op, "payment", "order has no payment to refund")
		}
		if !payment.CanBeRefunded() {
			return models.NewTransitionError(op, payment.ID.String(), payment.Status, models.PaymentRefunded)
		}
		if err := refundPayment(ctx, tx, payment); err != nil {
			return err
		}
		order.Payment = payment

		if err := s.restock(ctx, tx, order); err != nil {
			return err
		}
		if err := order.Apply(models.EventRefund); err != nil {
			return err
		}
		return tx.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order refunded", map[string]interface{}{
		"order_id": order.ID.String(),
		"amount":   order.TotalAmount.StringFixed(2),
	})
	s.invalidateCatalog(ctx)
	s.notify(ctx, order, "Order refunded", "Your payment has been refunded.")
	return order, nil
}

func refundPayment(ctx context.Context, tx *repositories.Store, payment *models.Payment) error {
	if err := payment.MoveTo(models.PaymentRefunded); err != nil {
		return err
	}
	meta := payment.Meta()
	meta.RefundedAt = models.Now()
	payment.SetMeta(meta)
	return tx.Payments.Update(ctx, payment)
}

// restock returns every item's quantity to its product. Items whose product
// has since been deleted are skipped.
func (s *OrderService) restock(ctx context.Context, tx *repositories.Store, order *models.Order) error {
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		err := tx.Products.IncreaseStock(ctx, *item.ProductID, item.Quantity)
		if models.IsNotFound(err) {
			s.logger.Warn("Restock skipped for deleted product", map[string]interface{}{
				"order_id":   order.ID.String(),
				"product_id": item.ProductID.String(),
			})
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
