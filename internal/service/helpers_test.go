package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bazaar_backend/pkg/events"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func testDeps(db *gorm.DB) (Deps, *recordingPublisher) {
	pub := &recordingPublisher{}
	return Deps{DB: db, Events: pub, Now: func() time.Time { return fixedNow }}, pub
}

var (
	profileColumns      = []string{"id", "email", "password_hash", "full_name", "credits", "banned_until", "role"}
	subscriptionColumns = []string{"id", "user_id", "package_id", "status", "starts_at", "expires_at", "price_paid"}
	packageColumns      = []string{"id", "name", "duration_weeks", "product_limit", "price", "discount_price", "discount_start_date", "discount_end_date", "is_active", "is_popular"}
)

func profileRow(id string, credits int) *sqlmock.Rows {
	return sqlmock.NewRows(profileColumns).AddRow(id, id+"@example.com", "hash", "Seller", credits, nil, "user")
}

// expectEntitlement queues the queries entitlementFor issues. A zero
// packageLimit means no active subscription.
func expectEntitlement(mock sqlmock.Sqlmock, userID string, packageLimit int, used int64) {
	subs := sqlmock.NewRows(subscriptionColumns)
	if packageLimit > 0 {
		subs.AddRow(7, userID, 3, "active", fixedNow.AddDate(0, 0, -1), fixedNow.AddDate(0, 0, 27), 100.0)
	}
	mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).WillReturnRows(subs)
	if packageLimit > 0 {
		mock.ExpectQuery(`SELECT \* FROM "subscription_packages"`).
			WillReturnRows(sqlmock.NewRows(packageColumns).
				AddRow(3, "Pro", 4, packageLimit, 100.0, nil, nil, nil, true, false))
	}
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(used))
}
