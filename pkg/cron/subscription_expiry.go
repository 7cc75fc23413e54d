package cron

import (
	"context"
	"log"
)

var warningDays = []int{7, 3}

func (j *Jobs) checkExpiringSubscriptions(ctx context.Context) {
	log.Println("Checking for expiring subscriptions...")

	expired, err := j.Subscriptions.ExpireLapsed(ctx)
	if err != nil {
		log.Printf("Error expiring subscriptions: %v", err)
	} else if expired > 0 {
		log.Printf("Marked %d subscriptions as expired", expired)
	}

	if j.Mailer == nil {
		return
	}

	for _, days := range warningDays {
		subs, err := j.Subscriptions.ExpiringOn(ctx, days)
		if err != nil {
			log.Printf("Error fetching expiring subscriptions: %v", err)
			continue
		}

		log.Printf("Found %d subscriptions expiring in %d days", len(subs), days)

		for _, sub := range subs {
			if sub.User == nil || sub.Package == nil {
				continue
			}
			err := j.Mailer.SendSubscriptionExpiryWarning(ctx, sub.User.Email, sub.User.FullName, sub.Package.Name, sub.ExpiresAt, days)
			if err != nil {
				log.Printf("Error sending expiry warning to %s: %v", sub.User.Email, err)
			}
		}
	}
}
