package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar_backend/pkg/cache"
)

func newSettings(t *testing.T) (*Settings, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return &Settings{Deps: deps, Cache: cache.NewFromClient(rdb), TTL: time.Minute}, mock, mr
}

func TestGridLayoutDefaultsAndCaches(t *testing.T) {
	svc, mock, mr := newSettings(t)

	mock.ExpectQuery(`SELECT \* FROM "site_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))

	grid, err := svc.GridLayout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultGridLayout, grid)
	assert.True(t, mr.Exists("bazaar:settings:grid_layout"))

	// served from Redis, no second query
	grid, err = svc.GridLayout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultGridLayout, grid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsReadStoredValue(t *testing.T) {
	svc, mock, _ := newSettings(t)

	mock.ExpectQuery(`SELECT \* FROM "site_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("notification_emails", []byte(`["ops@example.com"]`)))

	assert.Equal(t, []string{"ops@example.com"}, svc.NotificationEmails(context.Background()))
}

func TestSetGridLayoutRejectsOutOfRange(t *testing.T) {
	svc, mock, _ := newSettings(t)

	_, err := svc.Set(context.Background(), SettingGridLayout, json.RawMessage(`{"mobile":0,"tablet":3,"desktop":7}`), "admin")

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "mobile")
	assert.Contains(t, ve.Fields, "desktop")
	assert.NotContains(t, ve.Fields, "tablet")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNotificationEmailsNormalizesAndInvalidates(t *testing.T) {
	svc, mock, mr := newSettings(t)
	require.NoError(t, mr.Set("bazaar:settings:notification_emails", `[]`))

	mock.ExpectExec(`INSERT INTO "site_settings" .* ON CONFLICT \("key"\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	raw, err := svc.Set(context.Background(), SettingNotificationEmails,
		json.RawMessage(`[" Ops@Example.com ", "Sales <sales@example.com>"]`), "admin")
	require.NoError(t, err)

	assert.JSONEq(t, `["ops@example.com","sales@example.com"]`, string(raw))
	assert.False(t, mr.Exists("bazaar:settings:notification_emails"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newSettings(t)

	_, err := svc.Set(context.Background(), SettingNotificationEmails, json.RawMessage(`["not-an-email"]`), "admin")
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestUnknownSetting(t *testing.T) {
	svc, _, _ := newSettings(t)

	_, err := svc.Get(context.Background(), "theme")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Set(context.Background(), "theme", json.RawMessage(`"dark"`), "admin")
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSettingsWithoutRedis(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	svc := &Settings{Deps: deps}

	mock.ExpectQuery(`SELECT \* FROM "site_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("thank_you_content", []byte(`"Thanks!"`)))

	assert.Equal(t, "Thanks!", svc.ThankYouContent(context.Background()))
}
