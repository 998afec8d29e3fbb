package services

import (
	"context"
	"testing"
	"time"

	"github.com/Kariqs/eden-store-api/fulfillment"
	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/payments"
	"github.com/Kariqs/eden-store-api/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	store    *repositories.Store
	notifier *recordingNotifier
	cache    *countingCache
	orders   *OrderService
	product  *models.Product
	order    *models.Order
}

// newOrderFixture places a guest order for two units of a product stocked at 5.
func newOrderFixture(t *testing.T, opts ...Option) *orderFixture {
	t.Helper()
	f := &orderFixture{
		store:    newTestStore(t),
		notifier: &recordingNotifier{},
		cache:    &countingCache{},
	}
	f.product = seedProduct(t, f.store, "Lamp", "20.00", 5)

	checkout := NewCheckoutService(f.store)
	order, err := checkout.PlaceOrder(context.Background(), PlaceOrderInput{
		Customer:        models.GuestCustomer{Email: "guest@example.com"},
		ShippingAddress: testAddress(),
		Lines:           []LineInput{{ProductID: f.product.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	f.order = order

	opts = append([]Option{WithNotifier(f.notifier), WithCatalogCache(f.cache)}, opts...)
	f.orders = NewOrderService(f.store, opts...)
	return f
}

func (f *orderFixture) pay(t *testing.T, gatewayID string) *models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.orders.RegisterPayment(ctx, f.order.ID, gatewayID, "card")
	require.NoError(t, err)
	order, err := f.orders.ConfirmPayment(ctx, gatewayID, PaymentOutcome{Status: models.PaymentSuccess, ReceiptURL: "https://receipts.example.com/" + gatewayID})
	require.NoError(t, err)
	return order
}

func (f *orderFixture) ship(t *testing.T, trackingNumber string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.orders.StartFulfillment(ctx, f.order.ID)
	require.NoError(t, err)
	_, err = f.orders.AttachShipment(ctx, f.order.ID, models.ShipmentDetails{TrackingNumber: trackingNumber, Carrier: "DHL"})
	require.NoError(t, err)
}

func TestOrderServiceGet(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.orders.Get(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, order.ID)

	_, err = f.orders.Get(context.Background(), uuid.New())
	assert.True(t, models.IsNotFound(err))
}

func TestConfirmPayment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	payment, err := f.orders.RegisterPayment(ctx, f.order.ID, "pay_1", "card")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.True(t, payment.Amount.Equal(f.order.TotalAmount))

	_, err = f.orders.RegisterPayment(ctx, f.order.ID, "pay_2", "card")
	assert.True(t, models.IsConflict(err), "one payment per order")

	_, err = f.orders.ConfirmPayment(ctx, "pay_1", PaymentOutcome{Status: models.PaymentRefunded})
	assert.True(t, models.IsValidation(err))

	_, err = f.orders.ConfirmPayment(ctx, "pay_unknown", PaymentOutcome{Status: models.PaymentSuccess})
	assert.True(t, models.IsNotFound(err))

	order, err := f.orders.ConfirmPayment(ctx, "pay_1", PaymentOutcome{Status: models.PaymentSuccess, ReceiptURL: "https://receipts.example.com/1"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)
	require.NotNil(t, order.Payment)
	assert.Equal(t, models.PaymentSuccess, order.Payment.Status)
	assert.Equal(t, "https://receipts.example.com/1", order.Payment.Meta().ReceiptURL)

	again, err := f.orders.ConfirmPayment(ctx, "pay_1", PaymentOutcome{Status: models.PaymentSuccess})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, again.Status)
	assert.Equal(t, []string{"Payment received"}, f.notifier.subjects(), "replayed outcomes do not notify")

	_, err = f.orders.ConfirmPayment(ctx, "pay_1", PaymentOutcome{Status: models.PaymentFailed})
	assert.True(t, models.IsIllegalTransition(err))

	_, err = f.orders.RegisterPayment(ctx, f.order.ID, "pay_3", "card")
	assert.True(t, models.IsValidation(err), "paid orders take no new payment")
}

func TestConfirmPaymentFailureKeepsOrderPending(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.orders.RegisterPayment(ctx, f.order.ID, "pay_1", "card")
	require.NoError(t, err)

	order, err := f.orders.ConfirmPayment(ctx, "pay_1", PaymentOutcome{
		Status:         models.PaymentFailed,
		FailureCode:    "card_declined",
		FailureMessage: "Your card was declined.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "card_declined", order.Payment.Meta().FailureCode)
	assert.Equal(t, []string{"Payment failed"}, f.notifier.subjects())
}

func TestShipmentUpdatesDriveOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	f.pay(t, "pay_1")

	_, err := f.orders.AttachShipment(ctx, f.order.ID, models.ShipmentDetails{TrackingNumber: "TRK1", Carrier: "DHL"})
	assert.True(t, models.IsValidation(err), "only orders in processing can ship")

	f.ship(t, "TRK1")

	order, err := f.orders.ApplyShipmentUpdate(ctx, "TRK1", ShipmentUpdate{Status: models.ShipmentLabelCreated})
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, order.Status)

	order, err = f.orders.ApplyShipmentUpdate(ctx, "TRK1", ShipmentUpdate{Status: models.ShipmentInTransit, Location: "Nairobi"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, order.Status)

	order, err = f.orders.ApplyShipmentUpdate(ctx, "TRK1", ShipmentUpdate{Status: models.ShipmentInTransit})
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, order.Status)
	require.NotNil(t, order.Shipment)
	assert.Len(t, order.Shipment.Events(), 2, "repeated status is ignored")

	_, err = f.orders.ApplyShipmentUpdate(ctx, "TRK1", ShipmentUpdate{Status: models.ShipmentLabelCreated})
	assert.True(t, models.IsIllegalTransition(err))

	_, err = f.orders.ApplyShipmentUpdate(ctx, "TRK1", ShipmentUpdate{Status: "LOST"})
	assert.True(t, models.IsValidation(err))

	_, err = f.orders.ApplyShipmentUpdate(ctx, "NOPE", ShipmentUpdate{Status: models.ShipmentDelivered})
	assert.True(t, models.IsNotFound(err))

	deliveredAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	order, err = f.orders.ApplyShipmentUpdate(ctx, "TRK1", ShipmentUpdate{Status: models.ShipmentDelivered, OccurredAt: deliveredAt})
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, order.Status)
	require.NotNil(t, order.Shipment.ActualDelivery)
	assert.True(t, order.Shipment.ActualDelivery.Equal(deliveredAt))

	assert.Equal(t, []string{
		"Payment received",
		"Order in progress",
		"Order shipped",
		"Order delivered",
	}, f.notifier.subjects())
}

func TestSyncShipment(t *testing.T) {
	tracker := &fakeTracker{}
	f := newOrderFixture(t, WithTracker(tracker))
	ctx := context.Background()
	f.pay(t, "pay_1")
	f.ship(t, "TRK1")

	tracker.report = &fulfillment.TrackingReport{
		TrackingNumber: "TRK1",
		Carrier:        "DHL",
		Status:         models.ShipmentDelivered,
		Events: []models.TrackingEvent{
			{Status: models.ShipmentInTransit, Location: "Hub", OccurredAt: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)},
			{Status: models.ShipmentDelivered, Location: "Front door", OccurredAt: time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)},
		},
	}

	order, err := f.orders.SyncShipment(ctx, "TRK1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, order.Status, "PROCESSING goes through SHIPPED to DELIVERED")
	require.NotNil(t, order.Shipment)
	require.Len(t, order.Shipment.Events(), 1)
	assert.Equal(t, "Front door", order.Shipment.Events()[0].Location)

	_, err = f.orders.SyncShipment(ctx, "UNKNOWN")
	assert.True(t, models.IsNotFound(err))

	untracked := NewOrderService(f.store)
	_, err = untracked.SyncShipment(ctx, "TRK1")
	assert.True(t, models.IsConfigurationError(err))
}

func TestSyncPayment(t *testing.T) {
	gateway := &fakeGateway{report: &payments.PaymentReport{Status: models.PaymentPending}}
	f := newOrderFixture(t, WithPaymentGateway(gateway))
	ctx := context.Background()

	_, err := f.orders.RegisterPayment(ctx, f.order.ID, "track-1", "mpesa")
	require.NoError(t, err)

	order, err := f.orders.SyncPayment(ctx, "track-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Empty(t, f.notifier.subjects())

	gateway.report = &payments.PaymentReport{Status: models.PaymentSuccess, Method: "M-Pesa"}
	order, err = f.orders.SyncPayment(ctx, "track-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, order.Status)

	plain := NewOrderService(f.store)
	_, err = plain.SyncPayment(ctx, "track-1")
	assert.True(t, models.IsConfigurationError(err))
}

func TestCancelPaidOrderRefundsAndRestocks(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	assert.Equal(t, 3, stockOf(t, f.store, f.product.ID))
	f.pay(t, "pay_1")

	order, err := f.orders.Cancel(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	require.NotNil(t, order.Payment)
	assert.Equal(t, models.PaymentRefunded, order.Payment.Status)
	assert.False(t, order.Payment.Meta().RefundedAt.IsZero())
	assert.Equal(t, 5, stockOf(t, f.store, f.product.ID))
	assert.Equal(t, 1, f.cache.invalidated)

	_, err = f.orders.Cancel(ctx, f.order.ID)
	assert.True(t, models.IsIllegalTransition(err))
	assert.Equal(t, 5, stockOf(t, f.store, f.product.ID), "a second cancel restocks nothing")
}

func TestCancelPendingOrderFailsPayment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.orders.RegisterPayment(ctx, f.order.ID, "pay_1", "card")
	require.NoError(t, err)

	order, err := f.orders.Cancel(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Equal(t, models.PaymentFailed, order.Payment.Status)
	assert.Equal(t, "order_cancelled", order.Payment.Meta().FailureCode)
	assert.Equal(t, 5, stockOf(t, f.store, f.product.ID))
}

func TestCancelRejectedOnceProcessing(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	f.pay(t, "pay_1")
	_, err := f.orders.StartFulfillment(ctx, f.order.ID)
	require.NoError(t, err)

	_, err = f.orders.Cancel(ctx, f.order.ID)
	assert.True(t, models.IsIllegalTransition(err))
	assert.Equal(t, 3, stockOf(t, f.store, f.product.ID))
}

func TestRefund(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.orders.Refund(ctx, f.order.ID)
	assert.True(t, models.IsIllegalTransition(err), "pending orders cannot be refunded")

	f.pay(t, "pay_1")
	f.ship(t, "TRK1")
	_, err = f.orders.ApplyShipmentUpdate(ctx, "TRK1", ShipmentUpdate{Status: models.ShipmentInTransit})
	require.NoError(t, err)

	order, err := f.orders.Refund(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, order.Status)
	assert.Equal(t, models.PaymentRefunded, order.Payment.Status)
	assert.Equal(t, 5, stockOf(t, f.store, f.product.ID))

	_, err = f.orders.Refund(ctx, f.order.ID)
	assert.True(t, models.IsIllegalTransition(err))
}

func TestRefundWithoutPayment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.store.Orders.FindByID(ctx, f.order.ID)
	require.NoError(t, err)
	require.NoError(t, order.Apply(models.EventPaymentSucceeded))
	require.NoError(t, f.store.Orders.Update(ctx, order))

	_, err = f.orders.Refund(ctx, f.order.ID)
	assert.True(t, models.IsValidation(err))
}

func TestRestockSkipsDeletedProducts(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Products.Delete(ctx, f.product.ID))

	loaded, err := f.orders.Get(ctx, f.order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Nil(t, loaded.Items[0].ProductID)

	order, err := f.orders.Cancel(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
}
