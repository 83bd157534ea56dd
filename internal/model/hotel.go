package model

import "time"

// Hotel mirrors the `hotels` table.  Rating is a derived aggregate: the
// arithmetic mean of all review ratings for the hotel, recomputed inside
// the same transaction as every review create/update/delete.  Amenities
// is a comma-separated list kept as free text, matching how search
// filters it with substring matching.
type Hotel struct {
	ID        uint64    `json:"id"`
	ManagerID uint64    `json:"manager_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Amenities string    `json:"amenities"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
