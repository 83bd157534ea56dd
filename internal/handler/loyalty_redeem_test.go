package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthotel/booking/internal/model"
	"github.com/smarthotel/booking/internal/repository"
)

var paymentColumns = []string{"id", "user_id", "booking_id", "amount_cents", "status", "method", "transaction_ref", "created_at", "updated_at"}

func newLoyaltyHandlerWithMock(t *testing.T) (*LoyaltyHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewLoyaltyHandler(
		repository.NewLoyaltyRepo(db),
		repository.NewRedemptionRepo(db),
		repository.NewBookingRepo(db),
		repository.NewPaymentRepo(db),
	)
	return h, mock
}

func expectLockedBooking(mock sqlmock.Sqlmock, bookingID, userID uint64, paymentID any) {
	now := time.Now()
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM bookings WHERE id=\? FOR UPDATE`).
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow(bookingID, userID, 3, checkIn, checkIn.AddDate(0, 0, 2), model.BookingPending, paymentID, now, now))
}

func serveRedeem(t *testing.T, h *LoyaltyHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/loyalty/redeem", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", model.RoleCustomer)
	require.NoError(t, h.Redeem(c))
	return rec
}

// Redeeming against an unpaid booking still debits the balance and
// records the redemption; there is simply no payment to discount.
func TestRedeemWithoutPaymentStillDebits(t *testing.T) {
	h, mock := newLoyaltyHandlerWithMock(t)

	mock.ExpectBegin()
	expectLockedBooking(mock, 11, 7, nil)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM redemptions`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec(`UPDATE loyalty_accounts`).
		WithArgs(50, 7, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO redemptions`).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectCommit()

	rec := serveRedeem(t, h, `{"booking_id":11,"points":50}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"points_used":50`)
	assert.NotContains(t, rec.Body.String(), "payment_amount_cents")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A booking with a linked payment gets its amount reduced by the
// points' discount value inside the same transaction.
func TestRedeemDiscountsLinkedPayment(t *testing.T) {
	h, mock := newLoyaltyHandlerWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	expectLockedBooking(mock, 11, 7, int64(21))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM redemptions`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec(`UPDATE loyalty_accounts`).
		WithArgs(50, 7, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM payments WHERE id=\? FOR UPDATE`).
		WithArgs(21).
		WillReturnRows(sqlmock.NewRows(paymentColumns).
			AddRow(21, 7, 11, 30000, model.PaymentCompleted, "card", "ref-1", now, now))
	// 50 points buy 500 cents off.
	mock.ExpectExec(`UPDATE payments SET amount_cents=\?`).
		WithArgs(29500, 21).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO redemptions`).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectCommit()

	rec := serveRedeem(t, h, `{"booking_id":11,"points":50}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payment_amount_cents":29500`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The pre-check catches an existing redemption before any write happens.
func TestRedeemSecondAttemptConflicts(t *testing.T) {
	h, mock := newLoyaltyHandlerWithMock(t)

	mock.ExpectBegin()
	expectLockedBooking(mock, 11, 7, nil)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM redemptions`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(true))
	mock.ExpectRollback()

	rec := serveRedeem(t, h, `{"booking_id":11,"points":50}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already redeemed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// When two redemptions race past the pre-check, the UNIQUE(booking_id)
// index rejects the loser's insert and the whole transaction rolls back,
// so the loser's debit never commits.
func TestRedeemDuplicateInsertRollsBack(t *testing.T) {
	h, mock := newLoyaltyHandlerWithMock(t)

	mock.ExpectBegin()
	expectLockedBooking(mock, 11, 7, nil)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM redemptions`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec(`UPDATE loyalty_accounts`).
		WithArgs(50, 7, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO redemptions`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '11' for key 'redemptions.booking_id'"})
	mock.ExpectRollback()

	rec := serveRedeem(t, h, `{"booking_id":11,"points":50}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already redeemed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The guarded debit reports an overdraw as a client error.
func TestRedeemInsufficientBalance(t *testing.T) {
	h, mock := newLoyaltyHandlerWithMock(t)

	mock.ExpectBegin()
	expectLockedBooking(mock, 11, 7, nil)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM redemptions`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec(`UPDATE loyalty_accounts`).
		WithArgs(50, 7, 50).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rec := serveRedeem(t, h, `{"booking_id":11,"points":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient loyalty points")
	assert.NoError(t, mock.ExpectationsWereMet())
}
