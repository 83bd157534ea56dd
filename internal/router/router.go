// Package router wires handlers to routes, grouped by audience.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/smarthotel/booking/internal/handler"
	"github.com/smarthotel/booking/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication beyond
// what the handlers themselves enforce.  Currently just the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Healthz)
}

// RegisterAuth registers the authentication endpoints.  Token-issuing
// operations live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout parses its own bearer header so it works with an expired
	// session as long as a refresh token is supplied.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
