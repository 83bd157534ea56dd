package model

import "time"

// Redemption mirrors the `redemptions` table.  At most one redemption
// may ever exist per booking; the UNIQUE index on booking_id is the
// final authority when two redemption requests race.
type Redemption struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	BookingID     uint64    `json:"booking_id"`
	PointsUsed    int64     `json:"points_used"`
	DiscountCents int64     `json:"discount_cents"`
	RedeemedAt    time.Time `json:"redeemed_at"`
}
