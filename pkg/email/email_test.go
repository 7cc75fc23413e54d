package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar_backend/pkg/config"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmailService {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewEmailService(config.EmailConfig{ResendAPIKey: "re_test", From: "Bazaar <noreply@bazaar.local>"})
	require.NoError(t, err)
	s.endpoint = srv.URL
	return s
}

func TestNewEmailServiceRequiresKey(t *testing.T) {
	_, err := NewEmailService(config.EmailConfig{})
	assert.Error(t, err)
}

func TestSendListingExpiryReminder(t *testing.T) {
	var got EmailData
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"1"}`))
	})

	expires := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	err := s.SendListingExpiryReminder(context.Background(), "seller@example.com", "Ana", "Brass lamp", expires)
	require.NoError(t, err)

	assert.Equal(t, []string{"seller@example.com"}, got.To)
	assert.Contains(t, got.Subject, "Brass lamp")
	assert.Contains(t, got.Html, "2 May 2024")
}

func TestSendAdminNotificationWithoutRecipientsIsNoop(t *testing.T) {
	called := false
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	require.NoError(t, s.SendAdminNotification(context.Background(), nil, "New order", "x"))
	assert.False(t, called)
}

func TestSendReportsAPIError(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from"}`))
	})

	err := s.SendWelcomeEmail(context.Background(), "a@example.com", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestAllTemplatesRender(t *testing.T) {
	tpl, err := loadTemplates()
	require.NoError(t, err)

	now := time.Now()
	cases := map[string]interface{}{
		"welcome.html":                     WelcomeEmailData{Name: "A"},
		"subscription_started.html":        SubscriptionEmailData{Name: "A", PlanName: "Pro", ExpiresAt: now},
		"subscription_expiry_warning.html": SubscriptionExpiryWarningData{Name: "A", ExpiryDate: now},
		"listing_expiry.html":              ListingExpiryData{ExpiresAt: now},
		"ban_notice.html":                  BanNoticeData{Until: now, Reason: "spam"},
		"order_confirmation.html":          OrderConfirmationData{Amount: 3},
		"admin_notification.html":          AdminNotificationData{SentAt: now},
		"daily_digest.html":                DailyDigestData{Date: now},
		"sales_summary.html":               SalesSummaryData{StartDate: now, Period: "weekly"},
	}
	for name, data := range cases {
		assert.NoError(t, tpl.ExecuteTemplate(io.Discard, name, data), name)
	}
}
