package model

import (
	"time"

	"bazaar_backend/pkg/moderation"
)

type UserBan struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProfileID string    `json:"profile_id" gorm:"type:uuid;index;not null"`
	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"index;not null"`
	Reason    string    `json:"reason" gorm:"type:text"`
	BannedBy  string    `json:"banned_by" gorm:"type:uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b UserBan) Period() moderation.Period {
	return moderation.Period{Start: b.StartDate, End: b.EndDate}
}

func BanPeriods(bans []UserBan) []moderation.Period {
	periods := make([]moderation.Period, 0, len(bans))
	for _, b := range bans {
		periods = append(periods, b.Period())
	}
	return periods
}
