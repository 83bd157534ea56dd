package model

import "time"

// Payment statuses.  The gateway is simulated in-process, so a payment
// created during booking creation is completed synchronously within the
// same transaction.
const (
	PaymentPending   = "Pending"
	PaymentCompleted = "Completed"
)

// Payment mirrors the `payments` table.  Exactly one payment may exist
// per booking (UNIQUE booking_id).  AmountCents is the only field that
// changes after creation: a redemption may reduce it, floored at zero.
// TransactionRef is the opaque reference handed back by the (simulated)
// payment gateway.
type Payment struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	BookingID      uint64    `json:"booking_id"`
	AmountCents    int64     `json:"amount_cents"`
	Status         string    `json:"status"`
	Method         string    `json:"method"`
	TransactionRef string    `json:"transaction_ref"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ApplyDiscount reduces amountCents by discountCents, floored at zero.
// A discount larger than the remaining amount is absorbed up to zero;
// there is no carried-over credit.
func ApplyDiscount(amountCents, discountCents int64) int64 {
	rest := amountCents - discountCents
	if rest < 0 {
		return 0
	}
	return rest
}
