package subscription

import "time"

// DiscountWindow is the promotional price shape shared by packages, slots and products.
type DiscountWindow struct {
	Price         float64
	DiscountPrice *float64
	StartDate     *time.Time
	EndDate       *time.Time
}

// Pricing is what a storefront shows for an item at a given instant.
type Pricing struct {
	ActivePrice    float64  `json:"active_price"`
	OriginalPrice  *float64 `json:"original_price,omitempty"`
	DiscountActive bool     `json:"discount_active"`
}

// IsDiscountActive is true when a discount price and both bounds are set and
// now falls inside [start, end]. Both bounds are inclusive; instants are compared in UTC.
func IsDiscountActive(discountPrice *float64, start, end *time.Time, now time.Time) bool {
	if discountPrice == nil || start == nil || end == nil {
		return false
	}
	n := now.UTC()
	return !n.Before(start.UTC()) && !n.After(end.UTC())
}

func (w DiscountWindow) Active(now time.Time) bool {
	return IsDiscountActive(w.DiscountPrice, w.StartDate, w.EndDate, now)
}

// Resolve returns the price to charge, keeping the list price for strike-through display.
func (w DiscountWindow) Resolve(now time.Time) Pricing {
	if !w.Active(now) {
		return Pricing{ActivePrice: w.Price}
	}
	original := w.Price
	return Pricing{
		ActivePrice:    *w.DiscountPrice,
		OriginalPrice:  &original,
		DiscountActive: true,
	}
}

// ValidateWindow checks an admin-entered discount: all-or-nothing, positive,
// below the list price and with start <= end.
func ValidateWindow(w DiscountWindow) string {
	set := 0
	for _, ok := range []bool{w.DiscountPrice != nil, w.StartDate != nil, w.EndDate != nil} {
		if ok {
			set++
		}
	}
	switch {
	case set == 0:
		return ""
	case set != 3:
		return "discount price, start date and end date must be set together"
	case *w.DiscountPrice <= 0:
		return "discount price must be positive"
	case *w.DiscountPrice >= w.Price:
		return "discount price must be lower than the price"
	case w.EndDate.Before(*w.StartDate):
		return "discount end date must not be before its start date"
	}
	return ""
}
