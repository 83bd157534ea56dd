// Package handler contains the HTTP handlers.  Handlers orchestrate
// repositories and own the transaction boundaries of the booking and
// loyalty engine; JWT authentication and role validation are performed
// by middleware before any handler runs.
package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/model"
)

// getUserID extracts the authenticated user id placed in context by the
// JWT middleware.  Claims decode numerics as float64, so a type switch
// normalizes all plausible representations.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the caller's role claim, or empty when absent.
func getRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// parseID parses a numeric path parameter, rejecting zero.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseStayRange parses check-in/check-out date strings and enforces
// check-out strictly after check-in.
func parseStayRange(inStr, outStr string) (checkIn, checkOut time.Time, err error) {
	checkIn, err = time.Parse(model.DateLayout, inStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid check_in date, want YYYY-MM-DD")
	}
	checkOut, err = time.Parse(model.DateLayout, outStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid check_out date, want YYYY-MM-DD")
	}
	if !model.ValidStayRange(checkIn, checkOut) {
		return time.Time{}, time.Time{}, errors.New("check_out must be after check_in")
	}
	return checkIn, checkOut, nil
}
