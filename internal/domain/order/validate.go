// internal/domain/order/validate.go
package order

import (
	"regexp"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern  = regexp.MustCompile(`^[0-9]{10}$`)
	postalPattern = regexp.MustCompile(`^[0-9]{4,6}$`)
)

// ValidateShippingAddress checks the delivery details captured at checkout.
// Fields are checked in a fixed order and the first failure is returned as
// a FieldError so the client can point at a single field.
func ValidateShippingAddress(addr *ShippingAddress) error {
	if strings.TrimSpace(addr.FullName) == "" {
		return &FieldError{Field: "fullName", Message: "full name is required"}
	}
	if !emailPattern.MatchString(addr.Email) {
		return &FieldError{Field: "email", Message: "a valid email address is required"}
	}
	if !phonePattern.MatchString(addr.Phone) {
		return &FieldError{Field: "phone", Message: "phone must be a 10 digit number"}
	}
	if strings.TrimSpace(addr.Address) == "" {
		return &FieldError{Field: "address", Message: "street address is required"}
	}
	if strings.TrimSpace(addr.City) == "" {
		return &FieldError{Field: "city", Message: "city is required"}
	}
	if !postalPattern.MatchString(addr.PostalCode) {
		return &FieldError{Field: "postalCode", Message: "postal code must be 4 to 6 digits"}
	}
	if strings.TrimSpace(addr.Country) == "" {
		return &FieldError{Field: "country", Message: "country is required"}
	}
	return nil
}
