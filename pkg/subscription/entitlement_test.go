package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeEntitlement(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		used      int64
		available int64
		canCreate bool
	}{
		{"fresh seller", 10, 0, 10, true},
		{"partially used", 10, 7, 3, true},
		{"exactly at limit", 5, 5, 0, false},
		{"above limit after downgrade", 3, 8, 0, false},
		{"no subscription", 0, 2, 0, false},
		{"negative limit is clamped", -4, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ComputeEntitlement(tt.limit, tt.used)
			assert.Equal(t, tt.available, e.AvailableProducts)
			assert.Equal(t, tt.used, e.UsedProducts)
			assert.Equal(t, tt.canCreate, e.CanCreate())
		})
	}
}

func TestEntitlementDropsByOnePerListing(t *testing.T) {
	before := ComputeEntitlement(10, 4)
	after := ComputeEntitlement(10, 4+ProductCost)

	assert.Equal(t, before.AvailableProducts-1, after.AvailableProducts)
}

func TestProductLimit(t *testing.T) {
	assert.Equal(t, 0, ProductLimit(false, 20, 5))
	assert.Equal(t, 20, ProductLimit(true, 20, 0))
	assert.Equal(t, 25, ProductLimit(true, 20, 5))
	assert.Equal(t, 20, ProductLimit(true, 20, -3))
}
