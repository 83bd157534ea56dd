package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/smarthotel/booking/internal/model"
)

// ErrRoomNotFound is returned when a room id does not resolve to a row.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomUnavailable is returned when a room exists but its
// administrative availability flag is off.
var ErrRoomUnavailable = errors.New("room is not available")

// RoomRepo provides CRUD and availability queries over the `rooms`
// table.  The administrative availability flag lives here; date-based
// occupancy is the booking repository's concern.
type RoomRepo struct{ db *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomCols = "id, hotel_id, room_type, price_cents, availability, features, created_at, updated_at"

func scanRoom(row interface{ Scan(...any) error }) (model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.HotelID, &rm.RoomType, &rm.PriceCents, &rm.Availability, &rm.Features, &rm.CreatedAt, &rm.UpdatedAt)
	return rm, err
}

// Create inserts a room and populates the generated ID.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO rooms (hotel_id, room_type, price_cents, availability, features) VALUES (?,?,?,?,?)",
		rm.HotelID, rm.RoomType, rm.PriceCents, rm.Availability, rm.Features)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	return nil
}

// GetByID fetches a room; ErrRoomNotFound when absent.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx,
		"SELECT "+roomCols+" FROM rooms WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rm, ErrRoomNotFound
	}
	return rm, err
}

// GetForUpdateTx reads a room inside tx while taking a row lock.  The
// lock is held until the transaction ends and serializes concurrent
// booking attempts on the same room, closing the check-then-act window
// between the overlap query and the booking insert.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Room, error) {
	rm, err := scanRoom(tx.QueryRowContext(ctx,
		"SELECT "+roomCols+" FROM rooms WHERE id=? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rm, ErrRoomNotFound
	}
	return rm, err
}

// List returns all rooms, optionally restricted to one hotel (hotelID 0
// means no filter).
func (r *RoomRepo) List(ctx context.Context, hotelID uint64) ([]model.Room, error) {
	q := "SELECT " + roomCols + " FROM rooms"
	args := []any{}
	if hotelID != 0 {
		q += " WHERE hotel_id=?"
		args = append(args, hotelID)
	}
	q += " ORDER BY id"
	return r.query(ctx, q, args...)
}

// ListAvailable returns administratively available rooms with no
// Pending/Confirmed booking overlapping [checkIn, checkOut] under the
// inclusive predicate.  hotelID 0 means all hotels.
func (r *RoomRepo) ListAvailable(ctx context.Context, hotelID uint64, checkIn, checkOut time.Time) ([]model.Room, error) {
	q := `SELECT ` + roomCols + ` FROM rooms r
	      WHERE r.availability = TRUE
	        AND NOT EXISTS (
	            SELECT 1 FROM bookings b
	            WHERE b.room_id = r.id
	              AND b.status IN ('Pending','Confirmed')
	              AND ? <= b.check_out AND ? >= b.check_in
	        )`
	args := []any{checkIn, checkOut}
	if hotelID != 0 {
		q += " AND r.hotel_id = ?"
		args = append(args, hotelID)
	}
	q += " ORDER BY r.id"
	return r.query(ctx, q, args...)
}

// Update rewrites the mutable room fields, including the administrative
// availability flag.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE rooms SET hotel_id=?, room_type=?, price_cents=?, availability=?, features=? WHERE id=?",
		rm.HotelID, rm.RoomType, rm.PriceCents, rm.Availability, rm.Features, rm.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, gerr := r.GetByID(ctx, rm.ID); gerr != nil {
			return gerr
		}
	}
	return nil
}

// Delete removes a room row.  ErrRoomNotFound when nothing matched.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *RoomRepo) query(ctx context.Context, q string, args ...any) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rm)
	}
	return items, rows.Err()
}
