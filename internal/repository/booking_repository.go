package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/smarthotel/booking/internal/model"
)

// ErrBookingNotFound is returned when a booking id does not resolve to a row.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo provides access to the `bookings` table.  The write paths
// that participate in the availability invariant are Tx-scoped: the
// caller opens the transaction, locks the room row and runs the conflict
// query and the insert on the same tx.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning several repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingCols = "id, user_id, room_id, check_in, check_out, status, payment_id, created_at, updated_at"

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var (
		b   model.Booking
		pid sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.UserID, &b.RoomID, &b.CheckIn, &b.CheckOut, &b.Status, &pid, &b.CreatedAt, &b.UpdatedAt)
	if pid.Valid {
		v := uint64(pid.Int64)
		b.PaymentID = &v
	}
	return b, err
}

// HasConflictTx runs the inclusive overlap test against all blocking
// (Pending/Confirmed) bookings of the room, inside the caller's
// transaction.  The caller must already hold the room row lock so that
// two concurrent check-and-insert sequences cannot interleave.
func (r *BookingRepo) HasConflictTx(ctx context.Context, tx *sql.Tx, roomID uint64, checkIn, checkOut time.Time) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM bookings
	             WHERE room_id = ?
	               AND status IN ('Pending','Confirmed')
	               AND ? <= check_out AND ? >= check_in)`
	var conflict bool
	err := tx.QueryRowContext(ctx, q, roomID, checkIn, checkOut).Scan(&conflict)
	return conflict, err
}

// ListBlockingByRoom returns the Pending/Confirmed bookings of a room.
// The read-only availability check evaluates the overlap predicate over
// this set in Go; the transactional create path uses HasConflictTx.
func (r *BookingRepo) ListBlockingByRoom(ctx context.Context, roomID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
	           WHERE room_id = ? AND status IN ('Pending','Confirmed')
	           ORDER BY check_in`
	return r.query(ctx, q, roomID)
}

// CreateTx inserts a booking within the caller's transaction and reads
// the row back to populate generated fields.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (user_id, room_id, check_in, check_out, status) VALUES (?,?,?,?,?)",
		b.UserID, b.RoomID, b.CheckIn, b.CheckOut, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=?", id))
	if err != nil {
		return err
	}
	*b = got
	return nil
}

// GetByID fetches a booking; ErrBookingNotFound when absent.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBookingNotFound
	}
	return b, err
}

// GetForUpdateTx reads a booking inside tx under a row lock.  Used by
// the redemption path so a booking's payment link cannot change between
// validation and the discount write.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBookingNotFound
	}
	return b, err
}

// ListAll returns every booking, newest first.  Reserved to elevated roles.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.query(ctx, "SELECT "+bookingCols+" FROM bookings ORDER BY created_at DESC")
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.query(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE user_id=? ORDER BY created_at DESC", userID)
}

// ListByHotel returns bookings for all rooms of a hotel, newest first.
func (r *BookingRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Booking, error) {
	const q = `SELECT b.id, b.user_id, b.room_id, b.check_in, b.check_out, b.status, b.payment_id, b.created_at, b.updated_at
	           FROM bookings b
	           JOIN rooms r ON r.id = b.room_id
	           WHERE r.hotel_id = ?
	           ORDER BY b.created_at DESC`
	return r.query(ctx, q, hotelID)
}

// UpdateStatus persists a status change.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Zero rows can mean a no-op update of the same status; only
		// report not-found when the row truly does not exist.
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
	}
	return nil
}

// UpdateStatusTx persists a status change within the caller's transaction.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, "UPDATE bookings SET status=? WHERE id=?", status, id)
	return err
}

// SetPaymentTx links a payment to its booking.  The link is set at most
// once, during booking creation.
func (r *BookingRepo) SetPaymentTx(ctx context.Context, tx *sql.Tx, bookingID, paymentID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET payment_id=? WHERE id=? AND payment_id IS NULL",
		paymentID, bookingID)
	return err
}

// HasStayedAtHotel reports whether the user has a Confirmed booking at
// the hotel whose check-out is strictly in the past.  Gates review
// creation.
func (r *BookingRepo) HasStayedAtHotel(ctx context.Context, userID, hotelID uint64, now time.Time) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM bookings b
	             JOIN rooms r ON r.id = b.room_id
	             WHERE b.user_id = ? AND r.hotel_id = ?
	               AND b.status = 'Confirmed' AND b.check_out < ?)`
	var stayed bool
	err := r.db.QueryRowContext(ctx, q, userID, hotelID, now).Scan(&stayed)
	return stayed, err
}

func (r *BookingRepo) query(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
