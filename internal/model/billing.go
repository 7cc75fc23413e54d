package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionKind string

const (
	TransactionSubscription TransactionKind = "subscription"
	TransactionSlot         TransactionKind = "slot"
	TransactionOrder        TransactionKind = "order"
)

// Transaction records every completed checkout: subscription, slot add-on or listing sale.
type Transaction struct {
	gorm.Model
	Kind      TransactionKind `json:"kind" gorm:"index;not null"`
	BuyerID   string          `json:"buyer_id" gorm:"type:uuid;index;not null"`
	SellerID  *string         `json:"seller_id" gorm:"type:uuid;index"`
	ProductID *string         `json:"product_id" gorm:"type:uuid"`
	PackageID *uint           `json:"package_id"`
	SlotID    *uint           `json:"slot_id"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Amount    float64         `json:"amount" gorm:"not null"`
	Status    string          `json:"status" gorm:"not null"`
	Metadata  datatypes.JSON  `json:"metadata" gorm:"type:jsonb"`
}

const TransactionCompleted = "completed"

type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "pending"
	PayoutPaid     PayoutStatus = "paid"
	PayoutRejected PayoutStatus = "rejected"
)

type Payout struct {
	gorm.Model
	SellerID    string       `json:"seller_id" gorm:"type:uuid;index;not null"`
	Amount      float64      `json:"amount" gorm:"not null"`
	Status      PayoutStatus `json:"status" gorm:"index;not null"`
	Note        string       `json:"note"`
	ProcessedAt *time.Time   `json:"processed_at"`
}

// Message is a buyer/seller conversation line attached to a listing.
type Message struct {
	gorm.Model
	ProductID   string     `json:"product_id" gorm:"type:uuid;index;not null"`
	SenderID    string     `json:"sender_id" gorm:"type:uuid;index;not null"`
	RecipientID string     `json:"recipient_id" gorm:"type:uuid;index;not null"`
	Body        string     `json:"body" gorm:"type:text;not null"`
	ReadAt      *time.Time `json:"read_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}
