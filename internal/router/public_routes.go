package router

import (
	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/handler"
)

// RegisterPublic registers unauthenticated browse endpoints: hotel and
// room catalogs, search, availability checks and reviews.  cacheMW, when
// non-nil, serves repeated GETs from Redis.
func RegisterPublic(e *echo.Echo, hotels *handler.HotelHandler, rooms *handler.RoomHandler, reviews *handler.ReviewHandler, cacheMW echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cacheMW != nil {
		mws = append(mws, cacheMW)
	}
	g := e.Group("/v1", mws...)

	g.GET("/hotels", hotels.List)
	g.GET("/hotels/search", hotels.Search)
	g.GET("/hotels/:id", hotels.Get)
	g.GET("/hotels/:id/rooms", rooms.ListByHotel)
	g.GET("/hotels/:id/reviews", reviews.ListByHotel)

	g.GET("/rooms", rooms.List)
	// Availability answers change with every booking, so they bypass
	// the response cache.
	e.GET("/v1/rooms/available", rooms.ListAvailable)
	e.GET("/v1/rooms/:id/availability", rooms.CheckAvailability)
	g.GET("/rooms/:id", rooms.Get)

	g.GET("/reviews", reviews.List)
}
