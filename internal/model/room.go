package model

import "time"

// Room mirrors the `rooms` table.  PriceCents is the nightly rate in
// cents.  Availability is the administrative on/off switch set by hotel
// management; it is independent of date-based booking occupancy and a
// room with Availability=false can never be booked regardless of dates.
type Room struct {
	ID           uint64    `json:"id"`
	HotelID      uint64    `json:"hotel_id"`
	RoomType     string    `json:"room_type"`
	PriceCents   int64     `json:"price_cents"`
	Availability bool      `json:"availability"`
	Features     string    `json:"features"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
