package model

import (
	"time"

	"bazaar_backend/pkg/subscription"

	"gorm.io/gorm"
)

// SubscriptionPackage is a purchasable plan. At most one package is popular;
// a partial unique index backs that up at the database level.
type SubscriptionPackage struct {
	gorm.Model
	Name              string     `json:"name" gorm:"not null"`
	Description       string     `json:"description" gorm:"type:text"`
	DurationWeeks     int        `json:"duration_weeks" gorm:"not null"`
	ProductLimit      int        `json:"product_limit" gorm:"not null"`
	Price             float64    `json:"price" gorm:"not null"`
	DiscountPrice     *float64   `json:"discount_price"`
	DiscountStartDate *time.Time `json:"discount_start_date"`
	DiscountEndDate   *time.Time `json:"discount_end_date"`
	IsActive          bool       `json:"is_active" gorm:"not null"`
	IsPopular         bool       `json:"is_popular" gorm:"not null"`
}

func (p SubscriptionPackage) Discount() subscription.DiscountWindow {
	return subscription.DiscountWindow{
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		StartDate:     p.DiscountStartDate,
		EndDate:       p.DiscountEndDate,
	}
}

// Duration of one subscription period.
func (p SubscriptionPackage) Duration() time.Duration {
	return time.Duration(p.DurationWeeks) * 7 * 24 * time.Hour
}

// ProductSlot is a one-time add-on that raises the listing quota by SlotCount.
type ProductSlot struct {
	gorm.Model
	Name              string     `json:"name" gorm:"not null"`
	Description       string     `json:"description" gorm:"type:text"`
	SlotCount         int        `json:"slot_count" gorm:"not null"`
	Price             float64    `json:"price" gorm:"not null"`
	DiscountPrice     *float64   `json:"discount_price"`
	DiscountStartDate *time.Time `json:"discount_start_date"`
	DiscountEndDate   *time.Time `json:"discount_end_date"`
	MaxQuantity       *int       `json:"max_quantity"`
	IsActive          bool       `json:"is_active" gorm:"not null"`
}

func (s ProductSlot) Discount() subscription.DiscountWindow {
	return subscription.DiscountWindow{
		Price:         s.Price,
		DiscountPrice: s.DiscountPrice,
		StartDate:     s.DiscountStartDate,
		EndDate:       s.DiscountEndDate,
	}
}
