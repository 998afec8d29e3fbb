package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ShipmentStatus string

const (
	ShipmentPending        ShipmentStatus = "PENDING"
	ShipmentLabelCreated   ShipmentStatus = "LABEL_CREATED"
	ShipmentInTransit      ShipmentStatus = "IN_TRANSIT"
	ShipmentOutForDelivery ShipmentStatus = "OUT_FOR_DELIVERY"
	ShipmentDelivered      ShipmentStatus = "DELIVERED"
	ShipmentFailed         ShipmentStatus = "FAILED"
)

func (s ShipmentStatus) String() string { return string(s) }

// ParseShipmentStatus accepts a status name in any case.
func ParseShipmentStatus(s string) (ShipmentStatus, bool) {
	st := ShipmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case ShipmentPending, ShipmentLabelCreated, ShipmentInTransit,
		ShipmentOutForDelivery, ShipmentDelivered, ShipmentFailed:
		return st, true
	}
	return "", false
}

// ShipmentMetadataVersion is bumped whenever ShipmentMetadata changes shape.
const ShipmentMetadataVersion = 1

// TrackingEvent is one carrier scan.
type TrackingEvent struct {
	Status      ShipmentStatus `json:"status"`
	Location    string         `json:"location,omitempty"`
	Description string         `json:"description,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

type ShipmentMetadata struct {
	Version  int             `json:"version"`
	LabelURL string          `json:"labelUrl,omitempty"`
	Events   []TrackingEvent `json:"events,omitempty"`
}

type Shipment struct {
	ID                uuid.UUID                            `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID           uuid.UUID                            `gorm:"type:char(36);not null;uniqueIndex" json:"orderId"`
	TrackingNumber    *string                              `gorm:"size:255;index" json:"trackingNumber,omitempty"`
	Carrier           string                               `gorm:"size:100" json:"carrier,omitempty"`
	Status            ShipmentStatus                       `gorm:"size:50" json:"status"`
	EstimatedDelivery *time.Time                           `gorm:"type:date" json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time                           `json:"actualDelivery,omitempty"`
	ShippingCost      decimal.NullDecimal                  `gorm:"type:decimal(10,2)" json:"shippingCost"`
	Metadata          datatypes.JSONType[ShipmentMetadata] `json:"metadata"`
	CreatedAt         time.Time                            `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt         time.Time                            `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// ShipmentDetails is what the fulfillment side supplies when a parcel is booked.
type ShipmentDetails struct {
	TrackingNumber    string           `json:"trackingNumber" validate:"required,max=255"`
	Carrier           string           `json:"carrier" validate:"required,max=100"`
	ShippingCost      *decimal.Decimal `json:"shippingCost"`
	EstimatedDelivery *time.Time       `json:"estimatedDelivery"`
	LabelURL          string           `json:"labelUrl"`
}

// NewShipment builds a PENDING shipment for order.
func NewShipment(orderID uuid.UUID, d ShipmentDetails) (*Shipment, error) {
	const op = "NewShipment"
	if err := ValidateStruct(op, d); err != nil {
		return nil, err
	}
	if d.ShippingCost != nil && d.ShippingCost.IsNegative() {
		return nil, NewValidationError(op, "shippingCost", "shipping cost must not be negative")
	}

	tn := strings.TrimSpace(d.TrackingNumber)
	now := Now()
	s := &Shipment{
		ID:                uuid.New(),
		OrderID:           orderID,
		TrackingNumber:    &tn,
		Carrier:           d.Carrier,
		Status:            ShipmentPending,
		EstimatedDelivery: d.EstimatedDelivery,
		Metadata: datatypes.NewJSONType(ShipmentMetadata{
			Version:  ShipmentMetadataVersion,
			LabelURL: d.LabelURL,
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.ShippingCost != nil {
		s.ShippingCost = decimal.NewNullDecimal(d.ShippingCost.Round(2))
	}
	return s, nil
}

func (s *Shipment) IsDelivered() bool {
	return s.Status == ShipmentDelivered
}

func (s *Shipment) IsInTransit() bool {
	return s.Status == ShipmentInTransit || s.Status == ShipmentOutForDelivery
}

// Record applies a carrier event. ActualDelivery is set only when the shipment
// becomes DELIVERED.
func (s *Shipment) Record(ev TrackingEvent) error {
	if !s.Status.CanTransitionTo(ev.Status) {
		return NewTransitionError("Shipment.Record", s.ID.String(), s.Status, ev.Status)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = Now()
	}
	s.Status = ev.Status
	if ev.Status == ShipmentDelivered {
		at := ev.OccurredAt
		s.ActualDelivery = &at
	}

	meta := s.Metadata.Data()
	meta.Version = ShipmentMetadataVersion
	meta.Events = append(meta.Events, ev)
	s.Metadata = datatypes.NewJSONType(meta)
	s.Touch()
	return nil
}

func (s *Shipment) Events() []TrackingEvent {
	return s.Metadata.Data().Events
}

func (s *Shipment) Touch() {
	s.UpdatedAt = Now()
}
