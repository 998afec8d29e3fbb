package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderPaid       OrderStatus = "PAID"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

func (s OrderStatus) String() string { return string(s) }

type Order struct {
	ID              uuid.UUID                        `gorm:"type:char(36);primaryKey" json:"id"`
	UserID          *uuid.UUID                       `gorm:"type:char(36);index" json:"userId,omitempty"`
	User            *User                            `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	GuestEmail      *string                          `gorm:"size:255;index" json:"guestEmail,omitempty"`
	GuestPhone      *string                          `gorm:"size:50;index" json:"guestPhone,omitempty"`
	Status          OrderStatus                      `gorm:"size:50;not null;index" json:"status"`
	TotalAmount     decimal.Decimal                  `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	ShippingAddress datatypes.JSONType[Address]      `gorm:"not null" json:"shippingAddress"`
	BillingAddress  *datatypes.JSONType[Address]     `json:"billingAddress,omitempty"`
	Notes           string                           `gorm:"type:text" json:"notes,omitempty"`
	Items           []OrderItem                      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payment         *Payment                         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payment,omitempty"`
	Shipment        *Shipment                        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"shipment,omitempty"`
	CreatedAt       time.Time                        `gorm:"not null;autoCreateTime:false;index" json:"createdAt"`
	UpdatedAt       time.Time                        `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// NewOrder builds a PENDING order for customer. The shipping address must be
// complete; the billing address is optional but must be complete when given.
func NewOrder(customer Customer, shipping Address, billing *Address, notes string) (*Order, error) {
	const op = "NewOrder"
	if err := validateCustomer(op, customer); err != nil {
		return nil, err
	}
	if !shipping.IsComplete() {
		return nil, NewValidationError(op, "shippingAddress", "shipping address is incomplete")
	}
	if billing != nil && !billing.IsComplete() {
		return nil, NewValidationError(op, "billingAddress", "billing address is incomplete")
	}

	now := Now()
	o := &Order{
		ID:              uuid.New(),
		Status:          OrderPending,
		TotalAmount:     decimal.Zero,
		ShippingAddress: datatypes.NewJSONType(shipping),
		Notes:           notes,
		Items:           []OrderItem{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if billing != nil {
		b := datatypes.NewJSONType(*billing)
		o.BillingAddress = &b
	}

	switch c := customer.(type) {
	case RegisteredCustomer:
		id := c.UserID
		o.UserID = &id
	case GuestCustomer:
		g := normalizeGuest(c)
		if g.Email != "" {
			o.GuestEmail = &g.Email
		}
		if g.Phone != "" {
			o.GuestPhone = &g.Phone
		}
	}
	return o, nil
}

// Customer returns the identity that placed the order.
func (o *Order) Customer() Customer {
	if o.UserID != nil {
		return RegisteredCustomer{UserID: *o.UserID}
	}
	return GuestCustomer{Email: deref(o.GuestEmail), Phone: deref(o.GuestPhone)}
}

func (o *Order) IsGuestOrder() bool {
	return o.UserID == nil
}

// CustomerEmail prefers the linked user's email and falls back to the guest
// email. A registered order whose User was not loaded yields "".
func (o *Order) CustomerEmail() string {
	if o.User != nil {
		return o.User.EmailAddress()
	}
	if o.IsGuestOrder() {
		return deref(o.GuestEmail)
	}
	return ""
}

// CustomerPhone mirrors CustomerEmail for the phone number.
func (o *Order) CustomerPhone() string {
	if o.User != nil {
		return o.User.PhoneNumber()
	}
	if o.IsGuestOrder() {
		return deref(o.GuestPhone)
	}
	return ""
}

func (o *Order) Shipping() Address {
	return o.ShippingAddress.Data()
}

func (o *Order) Billing() *Address {
	if o.BillingAddress == nil {
		return nil
	}
	b := o.BillingAddress.Data()
	return &b
}

// AddItem attaches item to the order and recomputes the total.
func (o *Order) AddItem(item OrderItem) {
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
	o.recalculate()
}

// RemoveItem detaches the item with itemID. It reports whether one was found.
func (o *Order) RemoveItem(itemID uuid.UUID) bool {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.recalculate()
			return true
		}
	}
	return false
}

// CalculateTotal sums item subtotals exactly, starting from zero.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// recalculate keeps TotalAmount derived from the items, rounded half-to-even
// at two decimal places.
func (o *Order) recalculate() {
	o.TotalAmount = o.CalculateTotal().RoundBank(2)
	o.Touch()
}

func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderPending || o.Status == OrderPaid
}

func (o *Order) CanBeRefunded() bool {
	return o.Status == OrderPaid || o.Status == OrderProcessing || o.Status == OrderShipped
}

// Apply moves the order along the lifecycle. Illegal events leave the status
// unchanged and return ErrIllegalTransition.
func (o *Order) Apply(event OrderEvent) error {
	next, err := o.Status.Next(event)
	if err != nil {
		var de *DomainError
		if errors.As(err, &de) {
			de.ID = o.ID.String()
		}
		return err
	}
	o.Status = next
	o.Touch()
	return nil
}

func (o *Order) Touch() {
	o.UpdatedAt = Now()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
