package repository

import (
	"context"
	"database/sql"

	"github.com/smarthotel/booking/internal/model"
)

// RedemptionRepo provides access to the `redemptions` table.  The
// UNIQUE(booking_id) index is what ultimately enforces the at-most-one
// redemption per booking invariant; the Exists pre-check only produces
// a friendlier error in the common case.
type RedemptionRepo struct{ db *sql.DB }

func NewRedemptionRepo(db *sql.DB) *RedemptionRepo { return &RedemptionRepo{db: db} }

const redemptionCols = "id, user_id, booking_id, points_used, discount_cents, redeemed_at"

func scanRedemption(row interface{ Scan(...any) error }) (model.Redemption, error) {
	var rd model.Redemption
	err := row.Scan(&rd.ID, &rd.UserID, &rd.BookingID, &rd.PointsUsed, &rd.DiscountCents, &rd.RedeemedAt)
	return rd, err
}

// ExistsForBookingTx reports whether any redemption exists for the
// booking, inside the caller's transaction.
func (r *RedemptionRepo) ExistsForBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM redemptions WHERE booking_id=?)", bookingID).Scan(&exists)
	return exists, err
}

// CreateTx inserts a redemption within the caller's transaction.  A
// duplicate-key failure means another redemption won the race for this
// booking and is surfaced as ErrAlreadyRedeemed.
func (r *RedemptionRepo) CreateTx(ctx context.Context, tx *sql.Tx, rd *model.Redemption) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO redemptions (user_id, booking_id, points_used, discount_cents, redeemed_at) VALUES (?,?,?,?,?)",
		rd.UserID, rd.BookingID, rd.PointsUsed, rd.DiscountCents, rd.RedeemedAt)
	if err != nil {
		if IsDuplicateEntry(err) {
			return ErrAlreadyRedeemed
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rd.ID = uint64(id)
	return nil
}

// ListByUser returns the user's redemptions, newest first.
func (r *RedemptionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Redemption, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+redemptionCols+" FROM redemptions WHERE user_id=? ORDER BY redeemed_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Redemption, 0)
	for rows.Next() {
		rd, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rd)
	}
	return items, rows.Err()
}
