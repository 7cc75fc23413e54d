package cron

import (
	"context"
	"log"
	"sync"
	"time"

	"bazaar_backend/pkg/email"
)

var (
	lastDigest time.Time
	digestMu   sync.Mutex
)

// sendDailyDigestOnce guards against double sends when the scheduler fires twice
// around a restart.
func (j *Jobs) sendDailyDigestOnce(ctx context.Context) {
	digestMu.Lock()
	defer digestMu.Unlock()

	now := j.now()
	if now.Sub(lastDigest) < 23*time.Hour {
		log.Printf("Daily digest already sent today, skipping...")
		return
	}
	if j.sendDailyDigest(ctx, now) {
		lastDigest = now
	}
}

func (j *Jobs) sendDailyDigest(ctx context.Context, now time.Time) bool {
	if j.Mailer == nil {
		return false
	}
	recipients := j.Settings.NotificationEmails(ctx)
	if len(recipients) == 0 {
		log.Printf("No notification emails configured, skipping daily digest")
		return false
	}

	activity, err := j.Stats.ActivitySince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		log.Printf("Error computing daily digest: %v", err)
		return false
	}

	err = j.Mailer.SendDailyDigest(ctx, recipients, email.DailyDigestData{
		Date:                now,
		NewUsers:            activity.NewUsers,
		NewListings:         activity.NewListings,
		Orders:              activity.Orders,
		Revenue:             activity.Revenue,
		ActiveSubscriptions: activity.ActiveSubscriptions,
		PendingPayouts:      activity.PendingPayouts,
	})
	if err != nil {
		log.Printf("Error sending daily digest: %v", err)
		return false
	}
	return true
}
