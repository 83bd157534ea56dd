package router

import (
	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/handler"
	"github.com/smarthotel/booking/internal/middleware"
	"github.com/smarthotel/booking/internal/model"
)

// RegisterCustomer registers the authenticated booking, loyalty and
// review endpoints under /v1.  Any signed-in role may call these;
// ownership rules inside the handlers decide what each caller may touch
// (a customer only their own bookings, Admin anything).
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, l *handler.LoyaltyHandler, rv *handler.ReviewHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleHotelManager, model.RoleAdmin),
	)

	// ---- Bookings ----
	g.POST("/bookings", b.Create)
	g.GET("/my-bookings", b.ListMine)
	g.GET("/bookings/:id", b.Get)
	g.PUT("/bookings/:id/status", b.UpdateStatus)
	g.DELETE("/bookings/:id", b.Cancel)

	// ---- Loyalty ----
	g.GET("/loyalty/account", l.GetAccount)
	g.GET("/loyalty/redemptions", l.ListRedemptions)
	g.POST("/loyalty/redeem", l.Redeem)

	// ---- Reviews ----
	g.GET("/my-reviews", rv.ListMine)
	g.POST("/reviews", rv.Create)
	g.PUT("/reviews/:id", rv.Update)
	g.DELETE("/reviews/:id", rv.Delete)
}
