package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is. They are usually wrapped in a
// DomainError carrying the operation and entity involved.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrIllegalTransition = errors.New("illegal status transition")

	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")
)

// Error kinds
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindConflict   = "conflict"
	KindStock      = "stock"
	KindTransition = "transition"
	KindConfig     = "config"
)

// DomainError provides structured error information with context
type DomainError struct {
	Op      string // Operation that failed (e.g., "Product.DecreaseStock")
	Kind    string
	ID      string // Optional ID of the entity involved
	Field   string // Offending field for validation errors
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s", e.Op, e.Message)
		}
		return e.Message
	}
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a rejected input on a single field.
func NewValidationError(op, field, message string) *DomainError {
	return &DomainError{
		Op:      op,
		Kind:    KindValidation,
		Field:   field,
		Message: message,
		Err:     ErrValidation,
	}
}

// NewNotFoundError reports a missing entity that an operation required.
func NewNotFoundError(op, entity, id string) *DomainError {
	return &DomainError{
		Op:      op,
		Kind:    KindNotFound,
		ID:      id,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Err:     ErrNotFound,
	}
}

// NewConflictError reports a write rejected by a uniqueness rule.
func NewConflictError(op, field, message string) *DomainError {
	return &DomainError{
		Op:      op,
		Kind:    KindConflict,
		Field:   field,
		Message: message,
		Err:     ErrConflict,
	}
}

// NewTransitionError reports a status change the lifecycle does not allow.
func NewTransitionError(op, id string, from, to fmt.Stringer) *DomainError {
	return &DomainError{
		Op:      op,
		Kind:    KindTransition,
		ID:      id,
		Message: fmt.Sprintf("cannot move from %s to %s", from, to),
		Err:     ErrIllegalTransition,
	}
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

func IsIllegalTransition(err error) bool {
	return errors.Is(err, ErrIllegalTransition)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}
