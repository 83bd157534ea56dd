package model

import "time"

// Booking statuses.  A booking is never physically deleted; cancellation
// is a status transition so history is preserved.
const (
	BookingPending   = "Pending"
	BookingConfirmed = "Confirmed"
	BookingCancelled = "Cancelled"
	BookingCompleted = "Completed"
)

// DateLayout is the wire format for check-in/check-out dates.  Stays are
// tracked at day granularity.
const DateLayout = "2006-01-02"

// Booking mirrors the `bookings` table.  PaymentID is nil until a
// payment is created and linked during booking creation; it is set at
// most once.
type Booking struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	RoomID    uint64    `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Status    string    `json:"status"`
	PaymentID *uint64   `json:"payment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is one of the enumerated booking statuses.
func ValidStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// CanTransition validates a booking status change against the state
// machine: Pending -> {Confirmed, Cancelled}, Confirmed -> {Cancelled,
// Completed}.  Cancelled and Completed are terminal.
func CanTransition(from, to string) bool {
	switch from {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCancelled || to == BookingCompleted
	}
	return false
}

// Blocks reports whether a booking in the given status occupies its room
// for availability purposes.  Cancelled (and Completed) bookings never
// block a date range.
func Blocks(status string) bool {
	return status == BookingPending || status == BookingConfirmed
}

// Overlaps is the interval-intersection test used for room availability:
// a candidate range [in, out] conflicts with an existing booking
// [bIn, bOut] iff in <= bOut AND out >= bIn.  The comparison is
// deliberately inclusive on both ends, so back-to-back stays sharing a
// turnover day are treated as conflicting.  The SQL conflict query in
// the booking repository encodes the same predicate; the two must not
// diverge.
func Overlaps(in, out, bIn, bOut time.Time) bool {
	return !in.After(bOut) && !out.Before(bIn)
}

// ValidStayRange requires check-out to be strictly after check-in.
func ValidStayRange(in, out time.Time) bool {
	return out.After(in)
}

// CancellationOpen reports whether a non-admin cancellation is still
// permitted: check-in must be more than 24 hours away from now.
func CancellationOpen(checkIn, now time.Time) bool {
	return checkIn.After(now.Add(24 * time.Hour))
}
