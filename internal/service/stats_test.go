package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRow(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestAdminStats(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	s := &Stats{Deps: deps}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles"`).WillReturnRows(countRow(12))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles" WHERE .*user_bans`).WillReturnRows(countRow(2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).WillReturnRows(countRow(30))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE .*expires_at`).WillReturnRows(countRow(21))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE status`).WillReturnRows(countRow(6))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions"`).WillReturnRows(countRow(4))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "payouts"`).WillReturnRows(countRow(1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(499.5))

	st, err := s.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), st.TotalUsers)
	assert.Equal(t, int64(2), st.BannedUsers)
	assert.Equal(t, int64(21), st.ActiveListings)
	assert.Equal(t, int64(4), st.ActiveSubscriptions)
	assert.Equal(t, 499.5, st.Revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSellerStats(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	s := &Stats{Deps: deps}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).WillReturnRows(countRow(5))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).WillReturnRows(countRow(3))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).WillReturnRows(countRow(1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(80.0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).WillReturnRows(countRow(2))
	mock.ExpectQuery(`SELECT products.category_id, categories.name`).
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "name", "count"}).AddRow(1, "Books", 4).AddRow(2, "Games", 1))
	mock.ExpectQuery(`SELECT TO_CHAR`).
		WillReturnRows(sqlmock.NewRows([]string{"date", "new_listings"}).AddRow("2024-03-09", 2))

	st, err := s.Seller(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), st.TotalListings)
	assert.Equal(t, int64(3), st.ActiveListings)
	assert.Equal(t, int64(1), st.SoldListings)
	assert.Equal(t, 80.0, st.Sales)
	assert.Equal(t, int64(2), st.UnreadMessages)
	require.Len(t, st.Categories, 2)
	assert.Equal(t, "Books", st.Categories[0].Name)
	require.Len(t, st.DailyStats, 1)
	assert.Equal(t, int64(2), st.DailyStats[0].NewListings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSellerStatsWithoutListings(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	s := &Stats{Deps: deps}

	for i := 0; i < 3; i++ {
		mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).WillReturnRows(countRow(0))
	}
	mock.ExpectQuery(`SELECT COALESCE`).WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).WillReturnRows(countRow(0))
	mock.ExpectQuery(`SELECT products.category_id`).WillReturnRows(sqlmock.NewRows([]string{"category_id", "name", "count"}))
	mock.ExpectQuery(`SELECT TO_CHAR`).WillReturnRows(sqlmock.NewRows([]string{"date", "new_listings"}))

	st, err := s.Seller(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.NotNil(t, st.Categories)
	assert.NotNil(t, st.DailyStats)
}

func TestSalesSince(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	s := &Stats{Deps: deps}

	mock.ExpectQuery(`SELECT p.id AS seller_id`).
		WillReturnRows(sqlmock.NewRows([]string{"seller_id", "email", "full_name", "orders", "amount"}).
			AddRow("s1", "s1@example.com", "Sam", 3, 120.0))

	out, err := s.SalesSince(context.Background(), fixedNow.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "s1", out[0].SellerID)
	assert.Equal(t, int64(3), out[0].Orders)
	assert.Equal(t, 120.0, out[0].Amount)
}

func TestExpireLapsedSubscriptions(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	s := &Subscriptions{Deps: deps}

	mock.ExpectExec(`UPDATE "subscriptions" SET "status"`).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.ExpireLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
