package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/smarthotel/booking/internal/model"
)

// ErrHotelNotFound is returned when a hotel id does not resolve to a row.
var ErrHotelNotFound = errors.New("hotel not found")

// HotelRepo provides CRUD and search over the `hotels` table.
type HotelRepo struct{ db *sql.DB }

func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning several repositories.
func (r *HotelRepo) DB() *sql.DB { return r.db }

const hotelCols = "id, manager_id, name, location, amenities, rating, created_at, updated_at"

func scanHotel(row interface{ Scan(...any) error }) (model.Hotel, error) {
	var h model.Hotel
	err := row.Scan(&h.ID, &h.ManagerID, &h.Name, &h.Location, &h.Amenities, &h.Rating, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

// Create inserts a hotel and populates the generated ID.
func (r *HotelRepo) Create(ctx context.Context, h *model.Hotel) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO hotels (manager_id, name, location, amenities) VALUES (?,?,?,?)",
		h.ManagerID, h.Name, h.Location, h.Amenities)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetByID fetches a hotel; ErrHotelNotFound when absent.
func (r *HotelRepo) GetByID(ctx context.Context, id uint64) (model.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx,
		"SELECT "+hotelCols+" FROM hotels WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrHotelNotFound
	}
	return h, err
}

// List returns all hotels ordered by name.
func (r *HotelRepo) List(ctx context.Context) ([]model.Hotel, error) {
	return r.query(ctx, "SELECT "+hotelCols+" FROM hotels ORDER BY name")
}

// Search filters hotels by location substring and by every amenity in
// the comma-separated amenities argument.  Empty arguments match all.
func (r *HotelRepo) Search(ctx context.Context, location, amenities string) ([]model.Hotel, error) {
	q := "SELECT " + hotelCols + " FROM hotels WHERE 1=1"
	args := []any{}
	if location != "" {
		q += " AND location LIKE ?"
		args = append(args, "%"+location+"%")
	}
	for _, a := range strings.Split(amenities, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		q += " AND amenities LIKE ?"
		args = append(args, "%"+a+"%")
	}
	q += " ORDER BY name"
	return r.query(ctx, q, args...)
}

// Update rewrites the mutable hotel fields.  Rating is excluded: it is
// owned by the review aggregation and only changes through
// ReviewRepo transactions.
func (r *HotelRepo) Update(ctx context.Context, h *model.Hotel) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE hotels SET manager_id=?, name=?, location=?, amenities=? WHERE id=?",
		h.ManagerID, h.Name, h.Location, h.Amenities, h.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		if _, gerr := r.GetByID(ctx, h.ID); gerr != nil {
			return gerr
		}
	}
	return err
}

// Delete removes a hotel row.  ErrHotelNotFound when nothing matched.
func (r *HotelRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM hotels WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHotelNotFound
	}
	return nil
}

// Exists reports whether a hotel row with this id exists.
func (r *HotelRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM hotels WHERE id=?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *HotelRepo) query(ctx context.Context, q string, args ...any) ([]model.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Hotel, 0)
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
