package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/storage"
)

func newAccounts(t *testing.T) (*Accounts, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	return &Accounts{Deps: deps}, mock
}

func TestSignup(t *testing.T) {
	svc, mock := newAccounts(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO "profiles"`).WillReturnResult(sqlmock.NewResult(0, 1))

	profile, err := svc.Signup(context.Background(), SignupInput{
		Email:    " New.Seller@Example.com ",
		Password: "secret1",
		FullName: "New Seller",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "new.seller@example.com", profile.Email)
	assert.Equal(t, model.RoleUser, profile.Role)
	assert.Equal(t, 0, profile.Credits)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte("secret1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newAccounts(t)

	_, err := svc.Signup(context.Background(), SignupInput{Email: "nope", Password: "123"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "password")
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, mock := newAccounts(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.Signup(context.Background(), SignupInput{Email: "taken@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthenticate(t *testing.T) {
	svc, mock := newAccounts(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(profileColumns).AddRow("u1", "a@example.com", string(hash), "A", 0, nil, "user")
	}
	mock.ExpectQuery(`SELECT \* FROM "profiles"`).WillReturnRows(rows())
	mock.ExpectQuery(`SELECT \* FROM "profiles"`).WillReturnRows(rows())
	mock.ExpectQuery(`SELECT \* FROM "profiles"`).WillReturnRows(sqlmock.NewRows(profileColumns))

	profile, err := svc.Authenticate(context.Background(), "A@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.ID)

	_, err = svc.Authenticate(context.Background(), "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "ghost@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSetRole(t *testing.T) {
	svc, mock := newAccounts(t)

	_, err := svc.SetRole(context.Background(), "admin", "admin", model.RoleUser)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))

	_, err = svc.SetRole(context.Background(), "admin", "u1", model.Role("owner"))
	require.True(t, errors.As(err, &ve))

	mock.ExpectQuery(`SELECT \* FROM "profiles"`).WillReturnRows(profileRow("u1", 0))
	mock.ExpectExec(`UPDATE "profiles" SET "role"`).WillReturnResult(sqlmock.NewResult(0, 1))

	profile, err := svc.SetRole(context.Background(), "admin", "u1", model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserRemovesListingsAndPhotos(t *testing.T) {
	svc, mock := newAccounts(t)
	store := storage.NewMemoryStore("https://cdn.example.com")
	svc.Store = store
	_, err := store.Put(context.Background(), "u1/p1/a.webp", []byte("a"), "image/webp")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "profiles" .* FOR UPDATE`).WillReturnRows(profileRow("u1", 0))
	mock.ExpectQuery(`SELECT "storage_key" FROM "product_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow("u1/p1/a.webp"))
	mock.ExpectExec(`DELETE FROM "product_images"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "products"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "user_bans"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "login_histories"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "profiles"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), "admin", "u1"))
	assert.Empty(t, store.Keys())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginTruncatesDevice(t *testing.T) {
	svc, mock := newAccounts(t)

	mock.ExpectQuery(`INSERT INTO "login_histories"`).
		WithArgs("u1", strings.Repeat("a", 100), "10.0.0.1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	svc.RecordLogin(context.Background(), "u1", "10.0.0.1", strings.Repeat("a", 250))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginTruncatesMultiByteDevice(t *testing.T) {
	svc, mock := newAccounts(t)

	mock.ExpectQuery(`INSERT INTO "login_histories"`).
		WithArgs("u1", strings.Repeat("é", 100), "10.0.0.1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	svc.RecordLogin(context.Background(), "u1", "10.0.0.1", strings.Repeat("é", 150))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginFailureIsIgnored(t *testing.T) {
	svc, mock := newAccounts(t)

	mock.ExpectQuery(`INSERT INTO "login_histories"`).WillReturnError(errors.New("relation does not exist"))

	assert.NotPanics(t, func() {
		svc.RecordLogin(context.Background(), "u1", "10.0.0.1", "curl/8.0")
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentLogins(t *testing.T) {
	svc, mock := newAccounts(t)

	mock.ExpectQuery(`SELECT \* FROM "login_histories" WHERE profile_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "device", "ip", "created_at"}).
			AddRow(2, "u1", "firefox", "10.0.0.2", fixedNow).
			AddRow(1, "u1", "curl", "10.0.0.1", fixedNow.Add(-time.Hour)))

	logins, err := svc.RecentLogins(context.Background(), "u1", 20)
	require.NoError(t, err)
	require.Len(t, logins, 2)
	assert.Equal(t, "firefox", logins[0].Device)
	assert.NoError(t, mock.ExpectationsWereMet())
}
