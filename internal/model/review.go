package model

import "time"

// Review mirrors the `reviews` table.  One review per (user, hotel)
// pair; a second submission overwrites the first's rating, comment and
// timestamp instead of creating a duplicate.
type Review struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	HotelID   uint64    `json:"hotel_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidRating bounds review ratings to the 1..5 scale.
func ValidRating(r int) bool { return r >= 1 && r <= 5 }
