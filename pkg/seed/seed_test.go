package seed

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bazaar_backend/pkg/config"
)

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

func TestSeedAdminSkipsWithoutCredentials(t *testing.T) {
	db, mock := newMockDB(t)

	require.NoError(t, SeedAdmin(db, config.SeedConfig{AdminEmail: "admin@example.com"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedAdminCreatesAccount(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "profiles"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO "profiles"`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := SeedAdmin(db, config.SeedConfig{AdminEmail: " Admin@Example.com ", AdminPassword: "changeme"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedAdminPromotesExistingUser(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).AddRow("u1", "admin@example.com", "user"))
	mock.ExpectExec(`UPDATE "profiles" SET "role"`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := SeedAdmin(db, config.SeedConfig{AdminEmail: "admin@example.com", AdminPassword: "changeme"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
