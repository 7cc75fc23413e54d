package subscription

// Entitlement is a seller's listing quota at a point in time.
type Entitlement struct {
	ProductLimit      int   `json:"product_limit"`
	UsedProducts      int64 `json:"used_products"`
	AvailableProducts int64 `json:"available_products"`
	HasSubscription   bool  `json:"has_subscription"`
}

// ProductCost is how many slots a single listing consumes.
const ProductCost = 1

// ComputeEntitlement derives availability from the limit and the listings already held.
// Availability never goes negative, even when a downgrade leaves the seller above the limit.
func ComputeEntitlement(productLimit int, usedProducts int64) Entitlement {
	if productLimit < 0 {
		productLimit = 0
	}
	available := int64(productLimit) - usedProducts
	if available < 0 {
		available = 0
	}
	return Entitlement{
		ProductLimit:      productLimit,
		UsedProducts:      usedProducts,
		AvailableProducts: available,
	}
}

// CanCreate reports whether one more listing fits.
func (e Entitlement) CanCreate() bool {
	return e.AvailableProducts >= ProductCost
}

// ProductLimit is the package limit plus purchased slot credits. Without an
// active package nothing is granted, slot credits included.
func ProductLimit(hasActivePackage bool, packageLimit, slotCredits int) int {
	if !hasActivePackage {
		return 0
	}
	if slotCredits < 0 {
		slotCredits = 0
	}
	return packageLimit + slotCredits
}
