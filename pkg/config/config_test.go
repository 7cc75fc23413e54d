package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LISTING_EXPIRY_DAYS", "")
	t.Setenv("CHECKOUT_DELAY", "")

	cfg := Load()

	assert.Equal(t, "product-images", cfg.Storage.Bucket)
	assert.Equal(t, 14, cfg.Listing.ExpiryDays)
	assert.Equal(t, 5, cfg.Listing.MaxCreateImages)
	assert.Equal(t, 8, cfg.Listing.MaxImages)
	assert.Equal(t, 14*24*time.Hour, cfg.Listing.ListingTTL())
	assert.Equal(t, 1500*time.Millisecond, cfg.Server.CheckoutDelay)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTING_EXPIRY_DAYS", "30")
	t.Setenv("CHECKOUT_DELAY", "0s")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, 30, cfg.Listing.ExpiryDays)
	assert.Equal(t, time.Duration(0), cfg.Server.CheckoutDelay)
	assert.Equal(t, 0, cfg.Redis.DB)
}
