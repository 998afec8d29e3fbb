package models

import (
	"strings"

	"github.com/google/uuid"
)

// Customer identifies who placed an order: either a registered user or a guest
// reachable by email and/or phone. Exactly one variant is ever attached to an
// order.
type Customer interface {
	isCustomer()
}

type RegisteredCustomer struct {
	UserID uuid.UUID
}

type GuestCustomer struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
}

func (RegisteredCustomer) isCustomer() {}
func (GuestCustomer) isCustomer()      {}

func validateCustomer(op string, c Customer) error {
	switch v := c.(type) {
	case RegisteredCustomer:
		if v.UserID == uuid.Nil {
			return NewValidationError(op, "customer", "registered customer needs a user id")
		}
	case GuestCustomer:
		if isBlank(v.Email) && isBlank(v.Phone) {
			return NewValidationError(op, "customer", "guest orders need an email or phone")
		}
		return ValidateStruct(op, v)
	case nil:
		return NewValidationError(op, "customer", "customer is required")
	}
	return nil
}

func normalizeGuest(g GuestCustomer) GuestCustomer {
	return GuestCustomer{
		Email: strings.ToLower(strings.TrimSpace(g.Email)),
		Phone: strings.TrimSpace(g.Phone),
	}
}
