package email

import (
	"context"
	"log"

	"bazaar_backend/pkg/config"
)

var GlobalEmailService *EmailService

func InitEmailService(cfg config.EmailConfig) error {
	service, err := NewEmailService(cfg)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}

// Go sends in the background when email is configured and only logs failures.
func Go(what string, send func(ctx context.Context, s *EmailService) error) {
	s := GlobalEmailService
	if s == nil {
		return
	}
	go func() {
		if err := send(context.Background(), s); err != nil {
			log.Printf("Failed to send %s email: %v", what, err)
		}
	}()
}
