// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when a booking is confirmed with a
// completed payment.  It carries enough for downstream consumers to
// log, notify or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	RoomID      uint64 `json:"room_id"`
	HotelID     uint64 `json:"hotel_id"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	AmountCents int64  `json:"amount_cents"`
	OccurredAt  string `json:"occurred_at"`
}
