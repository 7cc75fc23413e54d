// Package service holds the marketplace bookkeeping: entitlement, listings,
// bans, catalog, checkout and settings. Each multi-row write runs in one transaction.
package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bazaar_backend/pkg/events"
)

type Deps struct {
	DB     *gorm.DB
	Events events.Publisher
	Now    func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) db(ctx context.Context) *gorm.DB {
	return d.DB.WithContext(ctx)
}

func (d Deps) emit(ctx context.Context, typ, key string, data interface{}) {
	events.Emit(ctx, d.Events, events.Event{Type: typ, Key: key, OccurredAt: d.now(), Data: data})
}

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 || p.Size > 100 {
		p.Size = 20
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return q.Offset((p.Number - 1) * p.Size).Limit(p.Size)
}

// simulateCheckout stands in for the payment provider round trip.
func simulateCheckout(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
