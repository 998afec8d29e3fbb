package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Default cost for bcrypt password hashing
const bcryptCost = 10

type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleSeller   UserRole = "SELLER"
	RoleAdmin    UserRole = "ADMIN"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Email        *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Phone        *string   `gorm:"size:50;uniqueIndex" json:"phone,omitempty"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	FirstName    string    `gorm:"size:100" json:"firstName,omitempty"`
	LastName     string    `gorm:"size:100" json:"lastName,omitempty"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	IsActive     bool      `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// NewUser builds an active user. Either email or phone must be given so the
// user can be identified.
func NewUser(email, phone string, role UserRole) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, NewValidationError("NewUser", "email", "email or phone is required")
	}
	if role == "" {
		role = RoleCustomer
	}
	if !role.Valid() {
		return nil, NewValidationError("NewUser", "role", "unknown role "+string(role))
	}

	now := Now()
	u := &User{
		ID:        uuid.New(),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if email != "" {
		u.Email = &email
	}
	if phone != "" {
		u.Phone = &phone
	}
	return u, nil
}

func (u *User) HasEmail() bool {
	return u.Email != nil && !isBlank(*u.Email)
}

func (u *User) HasPhone() bool {
	return u.Phone != nil && !isBlank(*u.Phone)
}

// EmailAddress returns the email or "" when none is set.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// PhoneNumber returns the phone or "" when none is set.
func (u *User) PhoneNumber() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

// FullName joins first and last name, falling back to email then phone when
// neither is set.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		if u.HasEmail() {
			return *u.Email
		}
		return u.PhoneNumber()
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetPassword stores the bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return NewValidationError("User.SetPassword", "password", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// PasswordMatches compares password against the stored hash.
func (u *User) PasswordMatches(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) Deactivate() {
	u.IsActive = false
	u.Touch()
}

// Touch refreshes UpdatedAt.
func (u *User) Touch() {
	u.UpdatedAt = Now()
}
