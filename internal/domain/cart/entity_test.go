// internal/domain/cart/entity_test.go
package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLines_SumsQuantitiesForSameProduct(t *testing.T) {
	userLines := []Line{
		{ProductID: 1, Quantity: 1, Price: 5000},
	}
	guestLines := []Line{
		{ProductID: 1, Quantity: 2, Price: 5000},
	}

	merged := MergeLines(userLines, guestLines)

	assert.Len(t, merged, 1, "same product must never produce two lines")
	assert.Equal(t, uint(1), merged[0].ProductID)
	assert.Equal(t, 3, merged[0].Quantity)
}

func TestMergeLines_AppendsUnknownProducts(t *testing.T) {
	userLines := []Line{
		{ProductID: 1, Quantity: 1, Price: 5000},
	}
	guestLines := []Line{
		{ProductID: 2, Quantity: 4, Price: 2000},
		{ProductID: 1, Quantity: 1, Price: 5000},
	}

	merged := MergeLines(userLines, guestLines)

	assert.Len(t, merged, 2)
	assert.Equal(t, 2, merged[0].Quantity)
	assert.Equal(t, uint(2), merged[1].ProductID)
	assert.Equal(t, 4, merged[1].Quantity)
}

func TestMergeLines_EmptyGuestCartIsNoOp(t *testing.T) {
	userLines := []Line{
		{ProductID: 1, Quantity: 3, Price: 5000},
		{ProductID: 2, Quantity: 1, Price: 2000},
	}

	// A second merge after the guest cart has been cleared must leave the
	// user cart unchanged.
	merged := MergeLines(userLines, nil)

	assert.Equal(t, userLines, merged)
}

func TestMergeLines_GuestCartIntoEmptyUserCart(t *testing.T) {
	guestLines := []Line{
		{ProductID: 7, Quantity: 2, Price: 1500},
	}

	merged := MergeLines(nil, guestLines)

	assert.Equal(t, guestLines, merged)
}

func TestMergeLines_DoesNotMutateInputs(t *testing.T) {
	userLines := []Line{{ProductID: 1, Quantity: 1, Price: 100}}
	guestLines := []Line{{ProductID: 1, Quantity: 5, Price: 100}}

	_ = MergeLines(userLines, guestLines)

	assert.Equal(t, 1, userLines[0].Quantity)
	assert.Equal(t, 5, guestLines[0].Quantity)
}
