package cron

import (
	"context"
	"log"
	"time"
)

// The job runs daily, so each listing falls into exactly one one-day window.
const (
	listingReminderLead   = 24 * time.Hour
	listingReminderWindow = 24 * time.Hour
)

// remindExpiringListings only notifies. Expired listings stay in place and are
// hidden from buyers at read time.
func (j *Jobs) remindExpiringListings(ctx context.Context) {
	if j.Mailer == nil {
		return
	}
	from := j.now().Add(listingReminderLead)
	products, err := j.Listings.Expiring(ctx, from, from.Add(listingReminderWindow))
	if err != nil {
		log.Printf("Error fetching expiring listings: %v", err)
		return
	}

	for _, p := range products {
		if p.User == nil {
			continue
		}
		if err := j.Mailer.SendListingExpiryReminder(ctx, p.User.Email, p.User.FullName, p.Title, p.ExpiresAt); err != nil {
			log.Printf("Error sending listing reminder to %s: %v", p.User.Email, err)
		}
	}
}
