// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/handler"
	"github.com/iliyamo/library-seat-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes. Credential endpoints
// (login, register) sit behind the rate limiter; /v1/me requires a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, limiter)
	g.POST("/register", a.Register, limiter)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterSeats registers the seat browsing routes. Both the listing and
// the change stream require a session; an unauthenticated request gets 401
// rather than data.
func RegisterSeats(e *echo.Echo, s *handler.SeatHandler, jwtSecret string) {
	g := e.Group("/v1/seats")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("", s.List)
	g.GET("/stream", s.Stream)
}

// RegisterBookings registers the booking routes, all session-gated.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("", b.List)
	g.POST("", b.Create)
	g.POST("/:id/cancel", b.Cancel)
}

// RegisterAdmin registers seat management, gated on the admin flag.
func RegisterAdmin(e *echo.Echo, a *handler.AdminSeatHandler, jwtSecret string) {
	g := e.Group("/v1/admin/seats")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireAdmin())
	g.POST("", a.Create)
	g.PATCH("/:id", a.Update)
	g.DELETE("/:id", a.Delete)
}
