package models

import "strings"

// Address is a value object embedded in orders as a JSON document.
type Address struct {
	Street         string `json:"street" validate:"required"`
	City           string `json:"city" validate:"required"`
	State          string `json:"state" validate:"required"`
	PostalCode     string `json:"postalCode" validate:"required"`
	Country        string `json:"country" validate:"required"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

// FullAddress renders "street, city, state postal, country", skipping blank
// parts so no separator is ever doubled.
func (a Address) FullAddress() string {
	region := joinNonBlank(" ", a.State, a.PostalCode)
	return joinNonBlank(", ", a.Street, a.City, region, a.Country)
}

// IsComplete is true when street, city, state, postal code and country are all
// non-blank.
func (a Address) IsComplete() bool {
	return !isBlank(a.Street) &&
		!isBlank(a.City) &&
		!isBlank(a.State) &&
		!isBlank(a.PostalCode) &&
		!isBlank(a.Country)
}

func joinNonBlank(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
