package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bazaar_backend/internal/model"
)

// Subscriptions holds the background bookkeeping for subscription periods.
type Subscriptions struct {
	Deps
}

// ExpireLapsed flips active subscriptions past expires_at to expired. Entitlement
// already ignores them, so this only keeps the status column honest.
func (s *Subscriptions) ExpireLapsed(ctx context.Context) (int64, error) {
	res := s.db(ctx).Model(&model.Subscription{}).
		Where("status = ? AND expires_at < ?", model.SubscriptionActive, s.now()).
		Update("status", model.SubscriptionExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("could not expire subscriptions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ExpiringOn lists active subscriptions whose expiry falls on the UTC day that is
// `days` days from now.
func (s *Subscriptions) ExpiringOn(ctx context.Context, days int) ([]model.Subscription, error) {
	day := s.now().AddDate(0, 0, days).Truncate(24 * time.Hour)
	var subs []model.Subscription
	err := s.db(ctx).
		Preload("User").
		Preload("Package", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("status = ? AND expires_at >= ? AND expires_at < ?", model.SubscriptionActive, day, day.Add(24*time.Hour)).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("could not load expiring subscriptions: %w", err)
	}
	return subs, nil
}
