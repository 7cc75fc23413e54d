package model

import (
	"time"

	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	gorm.Model
	UserID    string             `json:"user_id" gorm:"type:uuid;index;not null"`
	PackageID uint               `json:"package_id" gorm:"index;not null"`
	Status    SubscriptionStatus `json:"status" gorm:"index;not null"`
	StartsAt  time.Time          `json:"starts_at" gorm:"not null"`
	ExpiresAt time.Time          `json:"expires_at" gorm:"index;not null"`
	PricePaid float64            `json:"price_paid" gorm:"not null"`

	User    *Profile             `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Package *SubscriptionPackage `json:"package,omitempty" gorm:"foreignKey:PackageID"`
}

// IsCurrent is the render-time check: active status and not yet expired.
func (s *Subscription) IsCurrent(now time.Time) bool {
	return s.Status == SubscriptionActive && !s.ExpiresAt.Before(now)
}
