package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/subscription"
)

// EntitlementReport is the seller's quota plus what it was derived from.
type EntitlementReport struct {
	subscription.Entitlement
	SlotCredits  int                 `json:"slot_credits"`
	Subscription *model.Subscription `json:"subscription,omitempty"`
}

type Entitlements struct {
	Deps
}

func (s *Entitlements) Get(ctx context.Context, userID string) (*EntitlementReport, error) {
	var profile model.Profile
	if err := s.db(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return entitlementFor(s.db(ctx), &profile, s.now())
}

// ActiveSubscription returns the most recent active, unexpired subscription or nil.
func ActiveSubscription(tx *gorm.DB, userID string, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	err := tx.Where("user_id = ? AND status = ? AND expires_at >= ?", userID, model.SubscriptionActive, now).
		Order("starts_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load subscription: %w", err)
	}
	return &sub, nil
}

// entitlementFor runs on whatever handle it is given so that listing creation
// can re-check inside its transaction after locking the profile row.
func entitlementFor(tx *gorm.DB, profile *model.Profile, now time.Time) (*EntitlementReport, error) {
	sub, err := ActiveSubscription(tx, profile.ID, now)
	if err != nil {
		return nil, err
	}

	packageLimit := 0
	if sub != nil {
		var pkg model.SubscriptionPackage
		// Soft-deleted packages still back the subscriptions sold under them.
		if err := tx.Unscoped().First(&pkg, sub.PackageID).Error; err != nil {
			return nil, notFound(err, "subscription package")
		}
		packageLimit = pkg.ProductLimit
		sub.Package = &pkg
	}

	var used int64
	if err := tx.Model(&model.Product{}).Where("user_id = ?", profile.ID).Count(&used).Error; err != nil {
		return nil, fmt.Errorf("could not count products: %w", err)
	}

	limit := subscription.ProductLimit(sub != nil, packageLimit, profile.Credits)
	ent := subscription.ComputeEntitlement(limit, used)
	ent.HasSubscription = sub != nil

	return &EntitlementReport{
		Entitlement:  ent,
		SlotCredits:  profile.Credits,
		Subscription: sub,
	}, nil
}
