package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Profile is a marketplace account. BannedUntil caches the latest unfinished
// ban end and is rewritten whenever UserBan rows change.
type Profile struct {
	ID           string     `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	FullName     string     `json:"full_name"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	Credits      int        `json:"credits" gorm:"not null"`
	BannedUntil  *time.Time `json:"banned_until"`
	Role         Role       `json:"role" gorm:"not null"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Products []Product `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Bans     []UserBan `json:"-" gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return nil
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p *Profile) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":           p.ID,
		"email":        p.Email,
		"full_name":    p.FullName,
		"address":      p.Address,
		"phone":        p.Phone,
		"credits":      p.Credits,
		"role":         p.Role,
		"is_admin":     p.IsAdmin(),
		"banned_until": p.BannedUntil,
		"created_at":   p.CreatedAt,
	}
}
