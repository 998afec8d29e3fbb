package models

// OrderEvent is something that happened to an order and may move its status.
type OrderEvent string

const (
	EventPaymentSucceeded   OrderEvent = "PAYMENT_SUCCEEDED"
	EventFulfillmentStarted OrderEvent = "FULFILLMENT_STARTED"
	EventShipped            OrderEvent = "SHIPPED"
	EventDelivered          OrderEvent = "DELIVERED"
	EventCancel             OrderEvent = "CANCEL"
	EventRefund             OrderEvent = "REFUND"
)

func (e OrderEvent) String() string { return string(e) }

// orderTransitions lists, per event, the statuses it may fire from and the
// status it leads to.
var orderTransitions = map[OrderEvent]struct {
	from []OrderStatus
	to   OrderStatus
}{
	EventPaymentSucceeded:   {from: []OrderStatus{OrderPending}, to: OrderPaid},
	EventFulfillmentStarted: {from: []OrderStatus{OrderPaid}, to: OrderProcessing},
	EventShipped:            {from: []OrderStatus{OrderProcessing}, to: OrderShipped},
	EventDelivered:          {from: []OrderStatus{OrderShipped}, to: OrderDelivered},
	EventCancel:             {from: []OrderStatus{OrderPending, OrderPaid}, to: OrderCancelled},
	EventRefund:             {from: []OrderStatus{OrderPaid, OrderProcessing, OrderShipped}, to: OrderRefunded},
}

// Next returns the status event leads to from s, or ErrIllegalTransition.
func (s OrderStatus) Next(event OrderEvent) (OrderStatus, error) {
	t, ok := orderTransitions[event]
	if !ok {
		return s, &DomainError{
			Op:      "OrderStatus.Next",
			Kind:    KindTransition,
			Message: "unknown order event " + string(event),
			Err:     ErrIllegalTransition,
		}
	}
	for _, from := range t.from {
		if from == s {
			return t.to, nil
		}
	}
	return s, NewTransitionError("OrderStatus.Next", "", s, t.to)
}

// IsTerminal reports whether no further event can move the order.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled || s == OrderRefunded
}

// CanTransitionTo allows PENDING→SUCCESS|FAILED and SUCCESS→REFUNDED.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentSuccess || next == PaymentFailed
	case PaymentSuccess:
		return next == PaymentRefunded
	}
	return false
}

var shipmentRank = map[ShipmentStatus]int{
	ShipmentPending:        0,
	ShipmentLabelCreated:   1,
	ShipmentInTransit:      2,
	ShipmentOutForDelivery: 3,
	ShipmentDelivered:      4,
}

// CanTransitionTo allows forward progress only. Any undelivered shipment may
// fail, and a failed one may resume once the carrier picks it up again.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s == ShipmentDelivered {
		return false
	}
	if next == ShipmentFailed {
		return s != ShipmentFailed
	}
	if s == ShipmentFailed {
		return next == ShipmentInTransit || next == ShipmentOutForDelivery || next == ShipmentDelivered
	}
	cur, ok1 := shipmentRank[s]
	nxt, ok2 := shipmentRank[next]
	return ok1 && ok2 && nxt > cur
}

// OrderEventsForShipment returns the order events a shipment reaching status
// implies, in the order they must be applied to an order in fromStatus.
func OrderEventsForShipment(fromStatus OrderStatus, status ShipmentStatus) []OrderEvent {
	switch status {
	case ShipmentInTransit, ShipmentOutForDelivery:
		if fromStatus == OrderProcessing {
			return []OrderEvent{EventShipped}
		}
	case ShipmentDelivered:
		switch fromStatus {
		case OrderProcessing:
			return []OrderEvent{EventShipped, EventDelivered}
		case OrderShipped:
			return []OrderEvent{EventDelivered}
		}
	}
	return nil
}
