package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() ShippingAddress {
	return ShippingAddress{
		FullName:   "Priya Sharma",
		Email:      "priya@example.com",
		Phone:      "9876543210",
		Address:    "42 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
	}
}

func TestValidateShippingAddress_Valid(t *testing.T) {
	addr := validAddress()
	assert.NoError(t, ValidateShippingAddress(&addr))

	// State is optional.
	addr.State = ""
	assert.NoError(t, ValidateShippingAddress(&addr))
}

func TestValidateShippingAddress_FirstFailingField(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ShippingAddress)
		wantField string
	}{
		{"missing name", func(a *ShippingAddress) { a.FullName = "  " }, "fullName"},
		{"email without at", func(a *ShippingAddress) { a.Email = "priya.example.com" }, "email"},
		{"email without domain dot", func(a *ShippingAddress) { a.Email = "priya@example" }, "email"},
		{"email with spaces", func(a *ShippingAddress) { a.Email = "pri ya@example.com" }, "email"},
		{"phone too short", func(a *ShippingAddress) { a.Phone = "987654321" }, "phone"},
		{"phone too long", func(a *ShippingAddress) { a.Phone = "98765432100" }, "phone"},
		{"phone with letters", func(a *ShippingAddress) { a.Phone = "98765o3210" }, "phone"},
		{"missing address", func(a *ShippingAddress) { a.Address = "" }, "address"},
		{"missing city", func(a *ShippingAddress) { a.City = "" }, "city"},
		{"postal too short", func(a *ShippingAddress) { a.PostalCode = "123" }, "postalCode"},
		{"postal too long", func(a *ShippingAddress) { a.PostalCode = "1234567" }, "postalCode"},
		{"postal with letters", func(a *ShippingAddress) { a.PostalCode = "56o001" }, "postalCode"},
		{"missing country", func(a *ShippingAddress) { a.Country = "" }, "country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := validAddress()
			tt.mutate(&addr)

			err := ValidateShippingAddress(&addr)
			require.Error(t, err)

			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.wantField, fieldErr.Field)
		})
	}
}

func TestValidateShippingAddress_ReportsFirstFailureOnly(t *testing.T) {
	addr := validAddress()
	addr.Email = "broken"
	addr.Phone = "also-broken"

	err := ValidateShippingAddress(&addr)
	require.Error(t, err)

	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "email", fieldErr.Field)
}
