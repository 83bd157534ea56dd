package router

import (
	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/handler"
	"github.com/smarthotel/booking/internal/middleware"
	"github.com/smarthotel/booking/internal/model"
)

// RegisterManager registers hotel and room management endpoints under
// /v1.  All routes require HotelManager or Admin; handlers additionally
// check that a manager only touches hotels they own.
func RegisterManager(e *echo.Echo, hotels *handler.HotelHandler, rooms *handler.RoomHandler, bookings *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleHotelManager, model.RoleAdmin),
	)

	// ---- Hotels ----
	g.POST("/hotels", hotels.Create)
	g.PUT("/hotels/:id", hotels.Update)

	// ---- Rooms ----
	g.POST("/rooms", rooms.Create)
	g.PUT("/rooms/:id", rooms.Update)
	g.DELETE("/rooms/:id", rooms.Delete)

	// ---- Booking oversight ----
	g.GET("/bookings", bookings.ListAll)
	g.GET("/hotels/:id/bookings", bookings.ListByHotel)

	// Deleting a hotel razes its rooms with it; Admin only.
	admin := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.DELETE("/hotels/:id", hotels.Delete)
}
