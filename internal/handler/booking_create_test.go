package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthotel/booking/internal/model"
	"github.com/smarthotel/booking/internal/repository"
)

var (
	roomColumns    = []string{"id", "hotel_id", "room_type", "price_cents", "availability", "features", "created_at", "updated_at"}
	bookingColumns = []string{"id", "user_id", "room_id", "check_in", "check_out", "status", "payment_id", "created_at", "updated_at"}
)

func newBookingHandlerWithMock(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewBookingHandler(
		repository.NewBookingRepo(db),
		repository.NewRoomRepo(db),
		repository.NewHotelRepo(db),
		repository.NewPaymentRepo(db),
		repository.NewLoyaltyRepo(db),
		nil,
	)
	return h, mock
}

func expectAvailableRoom(mock sqlmock.Sqlmock, roomID, hotelID uint64, priceCents int64, available bool) {
	now := time.Now()
	mock.ExpectQuery(`FROM rooms WHERE id=\? FOR UPDATE`).
		WithArgs(roomID).
		WillReturnRows(sqlmock.NewRows(roomColumns).
			AddRow(roomID, hotelID, "Deluxe", priceCents, available, "wifi", now, now))
}

// A paid two-night stay confirms the booking, completes the payment and
// credits the accrued points, all inside one transaction.
func TestBookingCreateOnceConfirmsAndAccrues(t *testing.T) {
	h, mock := newBookingHandlerWithMock(t)
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)
	now := time.Now()

	mock.ExpectBegin()
	expectAvailableRoom(mock, 3, 9, 15000, true)
	mock.ExpectQuery(`SELECT EXISTS\(`).
		WithArgs(3, checkIn, checkOut).
		WillReturnRows(sqlmock.NewRows([]string{"conflict"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`FROM bookings WHERE id=\?`).
		WillReturnRows(sqlmock.NewRows(bookingColumns).
			AddRow(11, 7, 3, checkIn, checkOut, model.BookingPending, nil, now, now))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec(`UPDATE bookings SET payment_id=\?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments SET status=\?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status=\?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Two nights at 15000 cents accrue 30 points.
	mock.ExpectExec(`INSERT INTO loyalty_accounts`).
		WithArgs(7, 30).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking, payment, hotelID, err := h.createOnce(context.Background(), 7, 3, checkIn, checkOut, "card")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, booking.Status)
	require.NotNil(t, payment)
	assert.Equal(t, int64(30000), payment.AmountCents)
	assert.Equal(t, model.PaymentCompleted, payment.Status)
	assert.Equal(t, uint64(9), hotelID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// When the overlap check inside the transaction finds a blocking booking
// the attempt rolls back with a conflict.  Two concurrent overlapping
// creates serialize on the room row lock, so the loser always observes
// the winner's row here.
func TestBookingCreateOnceLosesOverlapRace(t *testing.T) {
	h, mock := newBookingHandlerWithMock(t)
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	mock.ExpectBegin()
	expectAvailableRoom(mock, 3, 9, 15000, true)
	mock.ExpectQuery(`SELECT EXISTS\(`).
		WithArgs(3, checkIn, checkOut).
		WillReturnRows(sqlmock.NewRows([]string{"conflict"}).AddRow(true))
	mock.ExpectRollback()

	_, _, _, err := h.createOnce(context.Background(), 7, 3, checkIn, checkOut, "card")
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A room whose administrative availability flag is off never reaches the
// overlap check and surfaces its own error.
func TestBookingCreateOnceRoomSwitchedOff(t *testing.T) {
	h, mock := newBookingHandlerWithMock(t)
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 1)

	mock.ExpectBegin()
	expectAvailableRoom(mock, 3, 9, 15000, false)
	mock.ExpectRollback()

	_, _, _, err := h.createOnce(context.Background(), 7, 3, checkIn, checkOut, "")
	assert.ErrorIs(t, err, repository.ErrRoomUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The HTTP surface distinguishes the two rejections: an unavailable room
// is a bad request, a date overlap is a conflict.
func TestBookingCreateStatusCodes(t *testing.T) {
	body := `{"room_id":3,"check_in":"2026-09-10","check_out":"2026-09-12","payment_method":"card"}`
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	t.Run("unavailable room", func(t *testing.T) {
		h, mock := newBookingHandlerWithMock(t)
		mock.ExpectBegin()
		expectAvailableRoom(mock, 3, 9, 15000, false)
		mock.ExpectRollback()

		rec := serveBookingCreate(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "room is not available")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overlapping dates", func(t *testing.T) {
		h, mock := newBookingHandlerWithMock(t)
		mock.ExpectBegin()
		expectAvailableRoom(mock, 3, 9, 15000, true)
		mock.ExpectQuery(`SELECT EXISTS\(`).
			WithArgs(3, checkIn, checkOut).
			WillReturnRows(sqlmock.NewRows([]string{"conflict"}).AddRow(true))
		mock.ExpectRollback()

		rec := serveBookingCreate(t, h, body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "requested dates")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func serveBookingCreate(t *testing.T, h *BookingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", model.RoleCustomer)
	require.NoError(t, h.Create(c))
	return rec
}
