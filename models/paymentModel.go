package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) String() string { return string(s) }

// PaymentMetadataVersion is bumped whenever PaymentMetadata changes shape.
const PaymentMetadataVersion = 1

// PaymentMetadata holds the gateway details we keep about a payment.
type PaymentMetadata struct {
	Version        int       `json:"version"`
	ReceiptURL     string    `json:"receiptUrl,omitempty"`
	FailureCode    string    `json:"failureCode,omitempty"`
	FailureMessage string    `json:"failureMessage,omitempty"`
	RefundedAt     time.Time `json:"refundedAt,omitempty"`
}

type Payment struct {
	ID               uuid.UUID                           `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID          uuid.UUID                           `gorm:"type:char(36);not null;uniqueIndex" json:"orderId"`
	GatewayPaymentID *string                             `gorm:"column:stripe_payment_id;size:255;uniqueIndex" json:"stripePaymentId,omitempty"`
	Amount           decimal.Decimal                     `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status           PaymentStatus                       `gorm:"size:50;not null" json:"status"`
	PaymentMethod    string                              `gorm:"size:50" json:"paymentMethod,omitempty"`
	Metadata         datatypes.JSONType[PaymentMetadata] `json:"metadata"`
	CreatedAt        time.Time                           `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt        time.Time                           `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// NewPayment builds a PENDING payment for the full order total.
func NewPayment(order *Order, gatewayPaymentID, method string) (*Payment, error) {
	const op = "NewPayment"
	if order == nil {
		return nil, NewValidationError(op, "order", "order is required")
	}
	gatewayPaymentID = strings.TrimSpace(gatewayPaymentID)
	if gatewayPaymentID == "" {
		return nil, NewValidationError(op, "stripePaymentId", "gateway payment id is required")
	}
	now := Now()
	return &Payment{
		ID:               uuid.New(),
		OrderID:          order.ID,
		GatewayPaymentID: &gatewayPaymentID,
		Amount:           order.TotalAmount,
		Status:           PaymentPending,
		PaymentMethod:    method,
		Metadata:         datatypes.NewJSONType(PaymentMetadata{Version: PaymentMetadataVersion}),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentSuccess
}

func (p *Payment) CanBeRefunded() bool {
	return p.Status == PaymentSuccess
}

// MoveTo changes the status if the payment lifecycle allows it.
func (p *Payment) MoveTo(next PaymentStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return NewTransitionError("Payment.MoveTo", p.ID.String(), p.Status, next)
	}
	p.Status = next
	p.Touch()
	return nil
}

func (p *Payment) Meta() PaymentMetadata {
	return p.Metadata.Data()
}

func (p *Payment) SetMeta(m PaymentMetadata) {
	m.Version = PaymentMetadataVersion
	p.Metadata = datatypes.NewJSONType(m)
	p.Touch()
}

func (p *Payment) Touch() {
	p.UpdatedAt = Now()
}
