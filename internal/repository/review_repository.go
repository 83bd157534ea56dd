package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/smarthotel/booking/internal/model"
)

// ErrReviewNotFound is returned when a review id does not resolve to a row.
var ErrReviewNotFound = errors.New("review not found")

// ReviewRepo provides access to the `reviews` table and owns the hotel
// rating aggregate: every write recomputes the hotel's mean rating in
// the same transaction, so the stored aggregate can never drift from
// the reviews it summarizes.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *ReviewRepo) DB() *sql.DB { return r.db }

const reviewCols = "id, user_id, hotel_id, rating, comment, created_at, updated_at"

func scanReview(row interface{ Scan(...any) error }) (model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.HotelID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

// GetByID fetches a review; ErrReviewNotFound when absent.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rv, ErrReviewNotFound
	}
	return rv, err
}

// GetByUserAndHotelTx fetches the (user, hotel) review inside tx, or
// sql.ErrNoRows when the user has not reviewed the hotel yet.
func (r *ReviewRepo) GetByUserAndHotelTx(ctx context.Context, tx *sql.Tx, userID, hotelID uint64) (model.Review, error) {
	return scanReview(tx.QueryRowContext(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE user_id=? AND hotel_id=? FOR UPDATE", userID, hotelID))
}

// CreateTx inserts a review within the caller's transaction.
func (r *ReviewRepo) CreateTx(ctx context.Context, tx *sql.Tx, rv *model.Review) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (user_id, hotel_id, rating, comment) VALUES (?,?,?,?)",
		rv.UserID, rv.HotelID, rv.Rating, rv.Comment)
	if err != nil {
		if IsDuplicateEntry(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// UpdateTx overwrites the rating, comment and timestamp of an existing
// review within the caller's transaction.
func (r *ReviewRepo) UpdateTx(ctx context.Context, tx *sql.Tx, id uint64, rating int, comment string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reviews SET rating=?, comment=?, updated_at=? WHERE id=?",
		rating, comment, now, id)
	return err
}

// DeleteTx removes a review row within the caller's transaction.
func (r *ReviewRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// RecomputeHotelRatingTx rewrites the hotel's rating as the arithmetic
// mean of its remaining reviews, 0 when none remain.  Must run in the
// same transaction as the review write it follows.
func (r *ReviewRepo) RecomputeHotelRatingTx(ctx context.Context, tx *sql.Tx, hotelID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE hotels
		 SET rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE hotel_id=?), 0)
		 WHERE id=?`, hotelID, hotelID)
	return err
}

// List returns all reviews, newest first.
func (r *ReviewRepo) List(ctx context.Context) ([]model.Review, error) {
	return r.query(ctx, "SELECT "+reviewCols+" FROM reviews ORDER BY updated_at DESC")
}

// ListByHotel returns a hotel's reviews, newest first.
func (r *ReviewRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Review, error) {
	return r.query(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE hotel_id=? ORDER BY updated_at DESC", hotelID)
}

// ListByUser returns a user's reviews, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	return r.query(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE user_id=? ORDER BY updated_at DESC", userID)
}

func (r *ReviewRepo) query(ctx context.Context, q string, args ...any) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rv)
	}
	return items, rows.Err()
}
