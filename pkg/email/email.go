package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"bazaar_backend/pkg/config"
)

const resendEndpoint = "https://api.resend.com/emails"

type EmailService struct {
	apiKey    string
	from      string
	endpoint  string
	client    *http.Client
	templates *template.Template
}

type EmailData struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html"`
}

type WelcomeEmailData struct {
	Name string
}

type SubscriptionEmailData struct {
	Name          string
	PlanName      string
	DurationWeeks int
	Price         float64
	ProductLimit  int
	ExpiresAt     time.Time
}

type SubscriptionExpiryWarningData struct {
	Name       string
	PlanName   string
	DaysLeft   int
	ExpiryDate time.Time
}

type ListingExpiryData struct {
	Name      string
	Title     string
	ExpiresAt time.Time
}

type BanNoticeData struct {
	Name   string
	Until  time.Time
	Reason string
}

type OrderConfirmationData struct {
	Name     string
	Title    string
	Amount   float64
	ThankYou string
}

type AdminNotificationData struct {
	Subject string
	Message string
	SentAt  time.Time
}

type DailyDigestData struct {
	Date                time.Time
	NewUsers            int64
	NewListings         int64
	Orders              int64
	Revenue             float64
	ActiveSubscriptions int64
	PendingPayouts      int64
}

type SalesSummaryData struct {
	Name      string
	Period    string
	Orders    int64
	Amount    float64
	StartDate time.Time
}

func NewEmailService(cfg config.EmailConfig) (*EmailService, error) {
	if cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %w", err)
	}

	return &EmailService{
		apiKey:    cfg.ResendAPIKey,
		from:      cfg.From,
		endpoint:  resendEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(ctx context.Context, to []string, subject, templateName string, data interface{}) error {
	if len(to) == 0 {
		return nil
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	jsonData, err := json.Marshal(EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("error marshaling email data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error (%d): %s", resp.StatusCode, string(respBody))
	}

	log.Printf("Sent %q to %d recipient(s)", subject, len(to))
	return nil
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return s.sendTemplateEmail(ctx, []string{email}, "Welcome to Bazaar!", "welcome.html", WelcomeEmailData{Name: name})
}

func (s *EmailService) SendSubscriptionStartedEmail(ctx context.Context, email string, data SubscriptionEmailData) error {
	return s.sendTemplateEmail(ctx, []string{email}, "Your subscription is active", "subscription_started.html", data)
}

func (s *EmailService) SendSubscriptionExpiryWarning(ctx context.Context, email, name, planName string, expiryDate time.Time, daysLeft int) error {
	data := SubscriptionExpiryWarningData{
		Name:       name,
		PlanName:   planName,
		DaysLeft:   daysLeft,
		ExpiryDate: expiryDate,
	}
	return s.sendTemplateEmail(ctx, []string{email},
		fmt.Sprintf("Your subscription expires in %d days", daysLeft),
		"subscription_expiry_warning.html", data)
}

func (s *EmailService) SendListingExpiryReminder(ctx context.Context, email, name, title string, expiresAt time.Time) error {
	data := ListingExpiryData{Name: name, Title: title, ExpiresAt: expiresAt}
	return s.sendTemplateEmail(ctx, []string{email}, fmt.Sprintf("%q is about to expire", title), "listing_expiry.html", data)
}

func (s *EmailService) SendBanNotice(ctx context.Context, email, name string, until time.Time, reason string) error {
	data := BanNoticeData{Name: name, Until: until, Reason: reason}
	return s.sendTemplateEmail(ctx, []string{email}, "Your account has been suspended", "ban_notice.html", data)
}

func (s *EmailService) SendOrderConfirmation(ctx context.Context, email string, data OrderConfirmationData) error {
	return s.sendTemplateEmail(ctx, []string{email}, "Thank you for your order", "order_confirmation.html", data)
}

func (s *EmailService) SendAdminNotification(ctx context.Context, to []string, subject, message string) error {
	data := AdminNotificationData{Subject: subject, Message: message, SentAt: time.Now().UTC()}
	return s.sendTemplateEmail(ctx, to, "[Bazaar] "+subject, "admin_notification.html", data)
}

func (s *EmailService) SendDailyDigest(ctx context.Context, to []string, data DailyDigestData) error {
	return s.sendTemplateEmail(ctx, to, "Bazaar daily digest", "daily_digest.html", data)
}

func (s *EmailService) SendSalesSummary(ctx context.Context, email string, data SalesSummaryData) error {
	return s.sendTemplateEmail(ctx, []string{email}, fmt.Sprintf("Your %s sales summary", data.Period), "sales_summary.html", data)
}
