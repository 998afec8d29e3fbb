package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductSnapshotVersion is bumped whenever ProductSnapshot gains or loses fields.
const ProductSnapshotVersion = 1

// ProductSnapshot freezes the product's display fields at purchase time so
// later catalog edits never change what the customer bought.
type ProductSnapshot struct {
	Version     int    `json:"version"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type OrderItem struct {
	ID              uuid.UUID                           `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID         uuid.UUID                           `gorm:"type:char(36);not null;index" json:"orderId"`
	ProductID       *uuid.UUID                          `gorm:"type:char(36);index" json:"productId,omitempty"`
	Product         *Product                            `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"-"`
	Quantity        int                                 `gorm:"not null" json:"quantity"`
	Price           decimal.Decimal                     `gorm:"type:decimal(10,2);not null" json:"price"`
	ProductSnapshot datatypes.JSONType[ProductSnapshot] `json:"productSnapshot"`
	CreatedAt       time.Time                           `gorm:"not null;autoCreateTime:false" json:"createdAt"`
}

// NewOrderItem captures product's current price and display fields for
// quantity units.
func NewOrderItem(product *Product, quantity int) (*OrderItem, error) {
	const op = "NewOrderItem"
	if product == nil {
		return nil, NewValidationError(op, "product", "product is required")
	}
	if quantity <= 0 {
		return nil, NewValidationError(op, "quantity", "quantity must be greater than 0")
	}
	pid := product.ID
	return &OrderItem{
		ID:              uuid.New(),
		ProductID:       &pid,
		Quantity:        quantity,
		Price:           product.Price,
		ProductSnapshot: datatypes.NewJSONType(SnapshotOf(product)),
		CreatedAt:       Now(),
	}, nil
}

// SnapshotOf copies the fields shown on receipts and order history.
func SnapshotOf(p *Product) ProductSnapshot {
	return ProductSnapshot{
		Version:     ProductSnapshotVersion,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.CategoryName(),
		ImageURL:    p.MainImageURL(),
	}
}

// Subtotal is price × quantity, exact.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i OrderItem) Snapshot() ProductSnapshot {
	return i.ProductSnapshot.Data()
}
