package model

import (
	"time"

	"bazaar_backend/pkg/subscription"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductStatusActive ProductStatus = "active"
	ProductStatusSold   ProductStatus = "sold"
	ProductStatusHidden ProductStatus = "hidden"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusSold, ProductStatusHidden:
		return true
	}
	return false
}

// Product is a listing. Images mirrors the ordered URLs of ProductImages and is
// rewritten in the same transaction as the child rows.
type Product struct {
	ID                string         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            string         `json:"user_id" gorm:"type:uuid;index;not null"`
	Title             string         `json:"title" gorm:"size:60;not null"`
	Description       string         `json:"description" gorm:"type:text;not null"`
	Price             float64        `json:"price" gorm:"not null"`
	DiscountPrice     *float64       `json:"discount_price"`
	DiscountStartDate *time.Time     `json:"discount_start_date"`
	DiscountEndDate   *time.Time     `json:"discount_end_date"`
	Images            pq.StringArray `json:"images" gorm:"type:text[]"`
	Tags              pq.StringArray `json:"tags" gorm:"type:text[]"`
	CategoryID        uint           `json:"category_id" gorm:"index;not null"`
	Status            ProductStatus  `json:"status" gorm:"index;not null"`
	ExpiresAt         time.Time      `json:"expires_at" gorm:"index;not null"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	User          *Profile       `json:"-" gorm:"foreignKey:UserID"`
	Category      *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	ProductImages []ProductImage `json:"product_images,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

type ProductImage struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ProductID    string    `json:"product_id" gorm:"type:uuid;index;not null"`
	URL          string    `json:"url" gorm:"not null"`
	StorageKey   string    `json:"-" gorm:"not null"`
	DisplayOrder int       `json:"display_order" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsExpired is advisory; nothing sweeps expired listings.
func (p *Product) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// IsListed reports whether buyers can see and purchase the listing.
func (p *Product) IsListed(now time.Time) bool {
	return p.Status == ProductStatusActive && !p.IsExpired(now)
}

func (p Product) Discount() subscription.DiscountWindow {
	return subscription.DiscountWindow{
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		StartDate:     p.DiscountStartDate,
		EndDate:       p.DiscountEndDate,
	}
}
