package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/events"
	"bazaar_backend/pkg/moderation"
)

type Moderation struct {
	Deps
}

type BanInput struct {
	Reason    string
	StartDate *time.Time
	EndDate   *time.Time
	Days      int
	BannedBy  string
}

type BanStatus struct {
	Banned      bool           `json:"banned"`
	BannedUntil *time.Time     `json:"banned_until"`
	ActiveBan   *model.UserBan `json:"active_ban,omitempty"`
}

func (in BanInput) window(now time.Time) (time.Time, time.Time, error) {
	start := now
	if in.StartDate != nil {
		start = in.StartDate.UTC()
	}
	var end time.Time
	switch {
	case in.EndDate != nil:
		end = in.EndDate.UTC()
	case in.Days > 0:
		end = start.Add(time.Duration(in.Days) * 24 * time.Hour)
	default:
		return time.Time{}, time.Time{}, invalid("end_date", "end_date or days is required")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, invalid("end_date", "end_date must be after start_date")
	}
	if !end.After(now) {
		return time.Time{}, time.Time{}, invalid("end_date", "end_date must be in the future")
	}
	return start, end, nil
}

// refreshBannedUntil recomputes the cached profiles.banned_until from the ban rows.
func refreshBannedUntil(tx *gorm.DB, profileID string, now time.Time) (*time.Time, error) {
	var bans []model.UserBan
	if err := tx.Where("profile_id = ?", profileID).Find(&bans).Error; err != nil {
		return nil, fmt.Errorf("could not load bans: %w", err)
	}
	until := moderation.BannedUntil(model.BanPeriods(bans), now)
	if err := tx.Model(&model.Profile{}).Where("id = ?", profileID).Update("banned_until", until).Error; err != nil {
		return nil, fmt.Errorf("could not update profile: %w", err)
	}
	return until, nil
}

// Ban records a ban and refreshes the profile cache in one transaction.
func (s *Moderation) Ban(ctx context.Context, userID string, in BanInput) (*model.UserBan, error) {
	if in.BannedBy == userID {
		return nil, invalid("user_id", "you cannot ban yourself")
	}
	now := s.now()
	start, end, err := in.window(now)
	if err != nil {
		return nil, err
	}

	ban := model.UserBan{
		ProfileID: userID,
		StartDate: start,
		EndDate:   end,
		Reason:    strings.TrimSpace(in.Reason),
		BannedBy:  in.BannedBy,
	}
	err = s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProfile(tx, userID); err != nil {
			return err
		}
		if err := tx.Create(&ban).Error; err != nil {
			return fmt.Errorf("could not create ban: %w", err)
		}
		_, err := refreshBannedUntil(tx, userID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.UserBanned, userID, map[string]interface{}{
		"start_date": ban.StartDate,
		"end_date":   ban.EndDate,
		"banned_by":  ban.BannedBy,
	})
	return &ban, nil
}

// Lift ends the running ban now, drops bans scheduled for later and clears the cache.
func (s *Moderation) Lift(ctx context.Context, userID string) error {
	now := s.now()
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProfile(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&model.UserBan{}).
			Where("profile_id = ? AND start_date <= ? AND end_date > ?", userID, now, now).
			Update("end_date", now).Error; err != nil {
			return fmt.Errorf("could not close bans: %w", err)
		}
		if err := tx.Where("profile_id = ? AND start_date > ?", userID, now).
			Delete(&model.UserBan{}).Error; err != nil {
			return fmt.Errorf("could not drop scheduled bans: %w", err)
		}
		if err := tx.Model(&model.Profile{}).Where("id = ?", userID).
			Update("banned_until", nil).Error; err != nil {
			return fmt.Errorf("could not update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, events.UserUnbanned, userID, nil)
	return nil
}

func (s *Moderation) Status(ctx context.Context, userID string) (*BanStatus, error) {
	var profile model.Profile
	if err := s.db(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return s.StatusOf(ctx, &profile)
}

// StatusOf resolves the ban status of an already loaded profile.
func (s *Moderation) StatusOf(ctx context.Context, profile *model.Profile) (*BanStatus, error) {
	var bans []model.UserBan
	if err := s.db(ctx).Where("profile_id = ?", profile.ID).Find(&bans).Error; err != nil {
		return nil, fmt.Errorf("could not load bans: %w", err)
	}

	now := s.now()
	status := &BanStatus{Banned: moderation.IsBanned(profile.BannedUntil, model.BanPeriods(bans), now)}
	if !status.Banned {
		return status, nil
	}
	if len(bans) == 0 {
		status.BannedUntil = profile.BannedUntil
		return status, nil
	}
	status.BannedUntil = moderation.BannedUntil(model.BanPeriods(bans), now)
	for i := range bans {
		if bans[i].Period().Covers(now) {
			status.ActiveBan = &bans[i]
			break
		}
	}
	return status, nil
}

func (s *Moderation) History(ctx context.Context, userID string) ([]model.UserBan, error) {
	var bans []model.UserBan
	if err := s.db(ctx).Where("profile_id = ?", userID).Order("start_date DESC").Find(&bans).Error; err != nil {
		return nil, fmt.Errorf("could not load bans: %w", err)
	}
	return bans, nil
}
