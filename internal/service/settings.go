package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/cache"
)

const (
	SettingGridLayout         = "grid_layout"
	SettingThankYouContent    = "thank_you_content"
	SettingNotificationEmails = "notification_emails"
)

// GridLayout is the number of listing columns per breakpoint.
type GridLayout struct {
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
	Desktop int `json:"desktop"`
}

var DefaultGridLayout = GridLayout{Mobile: 2, Tablet: 3, Desktop: 4}

func (g GridLayout) validate() error {
	v := &ValidationError{}
	for field, n := range map[string]int{"mobile": g.Mobile, "tablet": g.Tablet, "desktop": g.Desktop} {
		if n < 1 || n > 6 {
			v.Add(field, "columns must be between 1 and 6")
		}
	}
	return v.Err()
}

var settingDefaults = map[string]interface{}{
	SettingGridLayout:         DefaultGridLayout,
	SettingThankYouContent:    "Thank you for your purchase! The seller will contact you shortly.",
	SettingNotificationEmails: []string{},
}

// SettingDefaults returns the JSON each known setting falls back to.
func SettingDefaults() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(settingDefaults))
	for key, value := range settingDefaults {
		raw, err := json.Marshal(value)
		if err != nil {
			continue
		}
		out[key] = raw
	}
	return out
}

// Settings serves site_settings through the cache. Cache failures only cost a DB read.
type Settings struct {
	Deps
	Cache *cache.Cache
	TTL   time.Duration
}

func settingCacheKey(key string) string {
	return "settings:" + key
}

// normalizeSetting checks a raw value against its key's schema and returns the
// canonical encoding.
func normalizeSetting(key string, raw json.RawMessage) (json.RawMessage, error) {
	var value interface{}
	switch key {
	case SettingGridLayout:
		var g GridLayout
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, invalid("value", "grid layout must be an object with mobile, tablet and desktop")
		}
		if err := g.validate(); err != nil {
			return nil, err
		}
		value = g
	case SettingThankYouContent:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, invalid("value", "thank you content must be a string")
		}
		value = strings.TrimSpace(text)
	case SettingNotificationEmails:
		var emails []string
		if err := json.Unmarshal(raw, &emails); err != nil {
			return nil, invalid("value", "notification emails must be a list of addresses")
		}
		cleaned := make([]string, 0, len(emails))
		for _, e := range emails {
			addr, err := mail.ParseAddress(strings.TrimSpace(e))
			if err != nil {
				return nil, invalid("value", fmt.Sprintf("%q is not a valid email address", e))
			}
			cleaned = append(cleaned, strings.ToLower(addr.Address))
		}
		value = cleaned
	default:
		return nil, invalid("key", fmt.Sprintf("unknown setting %q", key))
	}
	return json.Marshal(value)
}

func (s *Settings) Get(ctx context.Context, key string) (json.RawMessage, error) {
	def, known := settingDefaults[key]
	if !known {
		return nil, fmt.Errorf("setting %q %w", key, ErrNotFound)
	}

	if raw, ok, err := s.Cache.Get(ctx, settingCacheKey(key)); err != nil {
		log.Printf("Settings cache read failed for %s: %v", key, err)
	} else if ok {
		return raw, nil
	}

	var setting model.SiteSetting
	err := s.db(ctx).First(&setting, "key = ?", key).Error
	var raw json.RawMessage
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if raw, err = json.Marshal(def); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("could not load setting: %w", err)
	default:
		raw = json.RawMessage(setting.Value)
	}

	if err := s.Cache.Set(ctx, settingCacheKey(key), raw, s.TTL); err != nil {
		log.Printf("Settings cache write failed for %s: %v", key, err)
	}
	return raw, nil
}

func (s *Settings) All(ctx context.Context) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(settingDefaults))
	for key := range settingDefaults {
		raw, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	return out, nil
}

// Set validates and upserts a setting, then drops the cached copy.
func (s *Settings) Set(ctx context.Context, key string, raw json.RawMessage, updatedBy string) (json.RawMessage, error) {
	normalized, err := normalizeSetting(key, raw)
	if err != nil {
		return nil, err
	}
	setting := model.SiteSetting{
		Key:       key,
		Value:     datatypes.JSON(normalized),
		UpdatedBy: updatedBy,
		UpdatedAt: s.now(),
	}
	err = s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return nil, fmt.Errorf("could not save setting: %w", err)
	}

	if err := s.Cache.Delete(ctx, settingCacheKey(key)); err != nil {
		log.Printf("Settings cache invalidation failed for %s: %v", key, err)
	}
	return normalized, nil
}

func (s *Settings) GridLayout(ctx context.Context) (GridLayout, error) {
	raw, err := s.Get(ctx, SettingGridLayout)
	if err != nil {
		return DefaultGridLayout, err
	}
	g := DefaultGridLayout
	if err := json.Unmarshal(raw, &g); err != nil {
		return DefaultGridLayout, nil
	}
	return g, nil
}

func (s *Settings) ThankYouContent(ctx context.Context) string {
	raw, err := s.Get(ctx, SettingThankYouContent)
	var text string
	if err != nil || json.Unmarshal(raw, &text) != nil {
		return settingDefaults[SettingThankYouContent].(string)
	}
	return text
}

func (s *Settings) NotificationEmails(ctx context.Context) []string {
	raw, err := s.Get(ctx, SettingNotificationEmails)
	var emails []string
	if err != nil || json.Unmarshal(raw, &emails) != nil {
		return nil
	}
	return emails
}
