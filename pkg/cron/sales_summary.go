package cron

import (
	"context"
	"log"
	"time"

	"bazaar_backend/pkg/email"
)

func (j *Jobs) sendSalesSummaries(ctx context.Context, period string, since time.Time) {
	if j.Mailer == nil {
		return
	}
	summaries, err := j.Stats.SalesSince(ctx, since)
	if err != nil {
		log.Printf("Error fetching %s sales: %v", period, err)
		return
	}

	log.Printf("Sending %s sales summary to %d sellers", period, len(summaries))
	for _, s := range summaries {
		err := j.Mailer.SendSalesSummary(ctx, s.Email, email.SalesSummaryData{
			Name:      s.FullName,
			Period:    period,
			Orders:    s.Orders,
			Amount:    s.Amount,
			StartDate: since,
		})
		if err != nil {
			log.Printf("Error sending %s sales summary to %s: %v", period, s.Email, err)
		}
	}
}
