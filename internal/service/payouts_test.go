package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar_backend/internal/model"
)

func expectBalance(mock sqlmock.Sqlmock, sales, paid float64) {
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(sales))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(paid))
}

func TestPayoutBalance(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	svc := &Payouts{Deps: deps}

	expectBalance(mock, 120, 45)

	balance, err := svc.Balance(context.Background(), "seller")
	require.NoError(t, err)
	assert.Equal(t, 75.0, balance)
}

func TestPayoutRequestAboveBalance(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	svc := &Payouts{Deps: deps}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "profiles" .* FOR UPDATE`).WillReturnRows(profileRow("seller", 0))
	expectBalance(mock, 100, 30)
	mock.ExpectRollback()

	_, err := svc.Request(context.Background(), "seller", 80, "")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields["amount"], "70.00")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutRequest(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	svc := &Payouts{Deps: deps}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "profiles" .* FOR UPDATE`).WillReturnRows(profileRow("seller", 0))
	expectBalance(mock, 100, 30)
	mock.ExpectQuery(`INSERT INTO "payouts"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	payout, err := svc.Request(context.Background(), "seller", 70, "monthly")
	require.NoError(t, err)
	assert.Equal(t, model.PayoutPending, payout.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewSettledPayout(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	svc := &Payouts{Deps: deps}

	mock.ExpectQuery(`SELECT \* FROM "payouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "amount", "status"}).AddRow(3, "seller", 70.0, "paid"))

	_, err := svc.Review(context.Background(), 3, model.PayoutRejected, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBuyerMessageGoesToSeller(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	svc := &Messages{Deps: deps}

	mock.ExpectQuery(`SELECT \* FROM "products"`).WillReturnRows(productRow("p1", "seller"))
	mock.ExpectQuery(`INSERT INTO "messages"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	msg, err := svc.Send(context.Background(), "buyer", "p1", "someone-else", " Is it still available? ")
	require.NoError(t, err)
	assert.Equal(t, "seller", msg.RecipientID)
	assert.Equal(t, "Is it still available?", msg.Body)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadOnlyByRecipient(t *testing.T) {
	db, mock := newMockDB(t)
	deps, _ := testDeps(db)
	svc := &Messages{Deps: deps}

	mock.ExpectQuery(`SELECT \* FROM "messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "sender_id", "recipient_id", "body"}).
			AddRow(1, "p1", "buyer", "seller", "hi"))

	assert.ErrorIs(t, svc.MarkRead(context.Background(), "buyer", 1), ErrForbidden)
}
