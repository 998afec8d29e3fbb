package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID                 uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	ProductID          uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_reviews_user_product,priority:2;index" json:"productId"`
	Product            *Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`
	UserID             uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_reviews_user_product,priority:1" json:"userId"`
	User               *User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	OrderID            *uuid.UUID `gorm:"type:char(36)" json:"orderId,omitempty"`
	Rating             int        `gorm:"not null" json:"rating"`
	Comment            string     `gorm:"type:text" json:"comment,omitempty"`
	IsVerifiedPurchase bool       `gorm:"not null;default:false" json:"isVerifiedPurchase"`
	IsApproved         bool       `gorm:"not null;default:false;index" json:"isApproved"`
	CreatedAt          time.Time  `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// ReviewInput is a customer's review submission.
type ReviewInput struct {
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	UserID    uuid.UUID  `json:"userId" validate:"required"`
	OrderID   *uuid.UUID `json:"orderId"`
	Rating    int        `json:"rating" validate:"min=1,max=5"`
	Comment   string     `json:"comment" validate:"max=5000"`
}

// NewReview builds an unapproved review. The rating must be within [1,5].
func NewReview(in ReviewInput) (*Review, error) {
	if err := ValidateStruct("NewReview", in); err != nil {
		return nil, err
	}
	now := Now()
	return &Review{
		ID:        uuid.New(),
		ProductID: in.ProductID,
		UserID:    in.UserID,
		OrderID:   in.OrderID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsValid is true iff the rating is within [1,5].
func (r *Review) IsValid() bool {
	return r.Rating >= MinRating && r.Rating <= MaxRating
}

func (r *Review) Approve() {
	r.IsApproved = true
	r.Touch()
}

func (r *Review) Touch() {
	r.UpdatedAt = Now()
}
