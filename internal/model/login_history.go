package model

import "time"

// LoginHistory is one successful sign-in.
type LoginHistory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProfileID string    `json:"profile_id" gorm:"type:uuid;index;not null"`
	Device    string    `json:"device" gorm:"size:100"`
	IP        string    `json:"ip" gorm:"size:50"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
