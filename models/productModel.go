package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	ID          uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	SellerID    *uuid.UUID                  `gorm:"type:char(36);index" json:"sellerId,omitempty"`
	Seller      *User                       `gorm:"foreignKey:SellerID;constraint:OnDelete:SET NULL" json:"-"`
	Title       string                      `gorm:"size:255;not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal             `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int                         `gorm:"not null;default:0" json:"stock"`
	Category    *string                     `gorm:"size:100;index" json:"category,omitempty"`
	ImageURLs   datatypes.JSONSlice[string] `json:"imageUrls"`
	IsActive    bool                        `gorm:"not null;index" json:"isActive"`
	IsFeatured  bool                        `gorm:"not null;default:false" json:"isFeatured"`
	CreatedAt   time.Time                   `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Category    string          `json:"category" validate:"max=100"`
	IsFeatured  bool            `json:"isFeatured"`
}

func (in ProductInput) validate(op string) error {
	if err := ValidateStruct(op, in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return NewValidationError(op, "price", "price must not be negative")
	}
	return nil
}

// NewProduct builds an active product owned by seller.
func NewProduct(sellerID *uuid.UUID, in ProductInput) (*Product, error) {
	if err := in.validate("NewProduct"); err != nil {
		return nil, err
	}
	now := Now()
	p := &Product{
		ID:        uuid.New(),
		SellerID:  sellerID,
		ImageURLs: datatypes.JSONSlice[string]{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.apply(in)
	return p, nil
}

// Update replaces the editable fields.
func (p *Product) Update(in ProductInput) error {
	if err := in.validate("Product.Update"); err != nil {
		return err
	}
	p.apply(in)
	p.Touch()
	return nil
}

func (p *Product) apply(in ProductInput) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.Stock = in.Stock
	p.IsFeatured = in.IsFeatured
	if c := strings.TrimSpace(in.Category); c != "" {
		p.Category = &c
	} else {
		p.Category = nil
	}
}

// IsAvailable is true when the product is active and has stock.
func (p *Product) IsAvailable() bool {
	return p.IsActive && p.Stock > 0
}

func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

// DecreaseStock reserves quantity units. It fails with ErrInsufficientStock and
// leaves stock untouched when not enough units remain.
func (p *Product) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return NewValidationError("Product.DecreaseStock", "quantity", "quantity must be greater than 0")
	}
	if !p.HasStock(quantity) {
		return &DomainError{
			Op:      "Product.DecreaseStock",
			Kind:    KindStock,
			ID:      p.ID.String(),
			Message: "insufficient stock: have " + strconv.Itoa(p.Stock) + ", need " + strconv.Itoa(quantity),
			Err:     ErrInsufficientStock,
		}
	}
	p.Stock -= quantity
	p.Touch()
	return nil
}

// IncreaseStock returns quantity units to stock.
func (p *Product) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return NewValidationError("Product.IncreaseStock", "quantity", "quantity must be greater than 0")
	}
	p.Stock += quantity
	p.Touch()
	return nil
}

// MainImageURL returns the first image or "" when the product has none.
func (p *Product) MainImageURL() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

func (p *Product) AddImageURL(url string) {
	p.ImageURLs = append(p.ImageURLs, url)
	p.Touch()
}

func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return *p.Category
}

func (p *Product) SetActive(active bool) {
	p.IsActive = active
	p.Touch()
}

func (p *Product) Touch() {
	p.UpdatedAt = Now()
}
