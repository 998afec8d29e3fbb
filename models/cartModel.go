package models

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CartID    uuid.UUID `gorm:"type:char(36);not null;index" json:"cartId"`
	ProductID uuid.UUID `gorm:"type:char(36);not null" json:"productId"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// Cart belongs either to a signed-in user or to an anonymous browser session.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:char(36);uniqueIndex" json:"userId,omitempty"`
	SessionID *string    `gorm:"size:255;uniqueIndex" json:"sessionId,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	ExpiresAt *time.Time `gorm:"index" json:"expiresAt,omitempty"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// NewUserCart builds an empty cart for a registered user.
func NewUserCart(userID uuid.UUID) *Cart {
	now := Now()
	return &Cart{ID: uuid.New(), UserID: &userID, Items: []CartItem{}, CreatedAt: now, UpdatedAt: now}
}

// NewSessionCart builds an empty guest cart that expires after ttl.
func NewSessionCart(sessionID string, ttl time.Duration) (*Cart, error) {
	if isBlank(sessionID) {
		return nil, NewValidationError("NewSessionCart", "sessionId", "session id is required")
	}
	now := Now()
	c := &Cart{ID: uuid.New(), SessionID: &sessionID, Items: []CartItem{}, CreatedAt: now, UpdatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		c.ExpiresAt = &exp
	}
	return c, nil
}

// AddItem adds quantity of product, merging with an existing line.
func (c *Cart) AddItem(productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return NewValidationError("Cart.AddItem", "quantity", "quantity must be greater than 0")
	}
	now := Now()
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.Items[i].UpdatedAt = now
			c.UpdatedAt = now
			return nil
		}
	}
	c.Items = append(c.Items, CartItem{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	c.UpdatedAt = now
	return nil
}

// RemoveItem drops the line for product. It reports whether one was found.
func (c *Cart) RemoveItem(productID uuid.UUID) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = Now()
			return true
		}
	}
	return false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) IsExpired(at time.Time) bool {
	return c.ExpiresAt != nil && !at.Before(*c.ExpiresAt)
}
