package model

import "time"

// Points-to-money constants: one point is earned per $10 spent, and one
// point is worth $0.10 of discount at redemption time.
const (
	centsPerPoint   = 1000 // accrual: $10 spent -> 1 point
	pointValueCents = 10   // redemption: 1 point -> $0.10
)

// LoyaltyAccount mirrors the `loyalty_accounts` table.  There is at most
// one account per user (UNIQUE user_id), created lazily on first need.
// PointsBalance never goes negative; debits are guarded at the SQL level.
type LoyaltyAccount struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	PointsBalance int64     `json:"points_balance"`
	LastUpdated   time.Time `json:"last_updated"`
}

// PointsEarned converts a completed payment amount into loyalty points.
// Fractions of $10 earn nothing.
func PointsEarned(amountCents int64) int64 {
	if amountCents <= 0 {
		return 0
	}
	return amountCents / centsPerPoint
}

// DiscountCents converts redeemed points into a discount amount.
func DiscountCents(points int64) int64 {
	if points <= 0 {
		return 0
	}
	return points * pointValueCents
}
