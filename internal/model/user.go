package model

import "time"

// Roles understood by the authorization layer.  The role string is
// embedded in JWT access tokens and checked by middleware and by
// ownership rules inside handlers.
const (
	RoleCustomer     = "Customer"
	RoleHotelManager = "HotelManager"
	RoleAdmin        = "Admin"
)

// Elevated reports whether a role may act on resources owned by other
// users (listing all bookings, updating someone else's booking status).
func Elevated(role string) bool {
	return role == RoleAdmin || role == RoleHotelManager
}

// User mirrors the `users` table.  PasswordHash is never serialized.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
