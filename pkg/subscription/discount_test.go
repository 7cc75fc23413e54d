package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsDiscountActive(t *testing.T) {
	start := date(2024, 1, 1)
	end := date(2024, 12, 31)

	tests := []struct {
		name     string
		discount *float64
		start    *time.Time
		end      *time.Time
		now      time.Time
		want     bool
	}{
		{"inside window", ptr(199.0), &start, &end, date(2024, 6, 1), true},
		{"on start bound", ptr(199.0), &start, &end, start, true},
		{"on end bound", ptr(199.0), &start, &end, end, true},
		{"before window", ptr(199.0), &start, &end, date(2023, 12, 31), false},
		{"after window", ptr(199.0), &start, &end, end.Add(time.Second), false},
		{"no discount price", nil, &start, &end, date(2024, 6, 1), false},
		{"open start", ptr(199.0), nil, &end, date(2024, 6, 1), false},
		{"open end", ptr(199.0), &start, nil, date(2024, 6, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDiscountActive(tt.discount, tt.start, tt.end, tt.now))
		})
	}
}

func TestIsDiscountActiveAcrossZones(t *testing.T) {
	start := date(2024, 1, 1)
	end := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	// 01:00 on Feb 1st in UTC+3 is 22:00 on Jan 31st in UTC.
	now := time.Date(2024, 2, 1, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))

	assert.True(t, IsDiscountActive(ptr(10.0), &start, &end, now))
	assert.False(t, IsDiscountActive(ptr(10.0), &start, &end, now.Add(2*time.Hour)))
}

func TestResolvePackagePricing(t *testing.T) {
	start := date(2024, 1, 1)
	end := date(2024, 12, 31)
	w := DiscountWindow{Price: 249, DiscountPrice: ptr(199.0), StartDate: &start, EndDate: &end}

	p := w.Resolve(date(2024, 6, 1))
	assert.True(t, p.DiscountActive)
	assert.Equal(t, 199.0, p.ActivePrice)
	if assert.NotNil(t, p.OriginalPrice) {
		assert.Equal(t, 249.0, *p.OriginalPrice)
	}

	p = w.Resolve(date(2025, 1, 2))
	assert.False(t, p.DiscountActive)
	assert.Equal(t, 249.0, p.ActivePrice)
	assert.Nil(t, p.OriginalPrice)
}

func TestValidateWindow(t *testing.T) {
	start := date(2024, 1, 1)
	end := date(2024, 2, 1)

	assert.Empty(t, ValidateWindow(DiscountWindow{Price: 100}))
	assert.Empty(t, ValidateWindow(DiscountWindow{Price: 100, DiscountPrice: ptr(80.0), StartDate: &start, EndDate: &end}))
	assert.NotEmpty(t, ValidateWindow(DiscountWindow{Price: 100, DiscountPrice: ptr(80.0)}))
	assert.NotEmpty(t, ValidateWindow(DiscountWindow{Price: 100, DiscountPrice: ptr(120.0), StartDate: &start, EndDate: &end}))
	assert.NotEmpty(t, ValidateWindow(DiscountWindow{Price: 100, DiscountPrice: ptr(0.0), StartDate: &start, EndDate: &end}))
	assert.NotEmpty(t, ValidateWindow(DiscountWindow{Price: 100, DiscountPrice: ptr(80.0), StartDate: &end, EndDate: &start}))
}
