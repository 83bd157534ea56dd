// Package repository defines error values shared across repositories.
// These sentinels let handlers translate persistence-level outcomes into
// distinct HTTP responses with errors.Is instead of string matching.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as an overlapping booking on the same room.
// Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrAlreadyRedeemed is returned when a redemption already exists for a
// booking.  At most one redemption per booking, ever.
var ErrAlreadyRedeemed = errors.New("points already redeemed for this booking")

// ErrInsufficientPoints is returned when a loyalty debit would drive the
// balance negative.
var ErrInsufficientPoints = errors.New("insufficient loyalty points")

// ErrEmailExists is returned on registration with a taken email.
var ErrEmailExists = errors.New("email already exists")

// mysqlErrNumber extracts the MySQL server error number, or 0 when err
// is not a server-side error.
func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// IsDuplicateEntry reports a unique-key violation (MySQL 1062).  Used
// where a unique index backs a business invariant, e.g. one redemption
// per booking.
func IsDuplicateEntry(err error) bool { return mysqlErrNumber(err) == 1062 }

// IsRetryable reports whether a transaction failed due to a deadlock
// (1213) or lock wait timeout (1205) and may be retried by the caller.
func IsRetryable(err error) bool {
	n := mysqlErrNumber(err)
	return n == 1213 || n == 1205
}
