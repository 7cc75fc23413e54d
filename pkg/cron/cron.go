package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/email"
)

// Mailer is the part of the email service the jobs use.
type Mailer interface {
	SendSubscriptionExpiryWarning(ctx context.Context, email, name, planName string, expiryDate time.Time, daysLeft int) error
	SendListingExpiryReminder(ctx context.Context, email, name, title string, expiresAt time.Time) error
	SendDailyDigest(ctx context.Context, to []string, data email.DailyDigestData) error
	SendSalesSummary(ctx context.Context, email string, data email.SalesSummaryData) error
}

type Jobs struct {
	Subscriptions *service.Subscriptions
	Listings      *service.Listings
	Stats         *service.Stats
	Settings      *service.Settings
	Mailer        Mailer
	Now           func() time.Time
}

func (j *Jobs) now() time.Time {
	if j.Now != nil {
		return j.Now().UTC()
	}
	return time.Now().UTC()
}

// Start schedules every job in UTC and returns the running scheduler.
func Start(j *Jobs) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	schedule := []struct {
		spec string
		name string
		run  func(context.Context)
	}{
		{"0 9 * * *", "subscription expiry", j.checkExpiringSubscriptions},
		{"30 9 * * *", "listing expiry", j.remindExpiringListings},
		{"0 19 * * *", "daily digest", j.sendDailyDigestOnce},
		{"0 20 * * 0", "weekly sales", func(ctx context.Context) { j.sendSalesSummaries(ctx, "weekly", j.now().AddDate(0, 0, -7)) }},
		{"0 20 1 * *", "monthly sales", func(ctx context.Context) { j.sendSalesSummaries(ctx, "monthly", j.now().AddDate(0, -1, 0)) }},
	}

	for _, s := range schedule {
		s := s
		if _, err := c.AddFunc(s.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			s.run(ctx)
		}); err != nil {
			log.Printf("Could not schedule %s job: %v", s.name, err)
			return nil, err
		}
	}

	c.Start()
	log.Printf("Cron jobs initialized successfully")
	return c, nil
}
