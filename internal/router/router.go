package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/avros/inventory-reservation/internal/handler"
)

// RegisterRoutes registers routes that need no middleware on the provided
// Echo instance.  Currently it exposes only a health check, used by load
// balancers and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservations registers the reservation engine endpoints under
// /v1.  Every endpoint maps one engine operation; the rate limiter guards
// the mutating routes so a single runaway client cannot hammer the reserve
// path.  Availability and session listing stay uncached on purpose: every
// response must reflect the live store.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(rateLimit)

	// Reservation lifecycle.  Reserve creates the hold; complete, cancel and
	// extend act on it by id.
	g.POST("/reservations", h.Reserve)
	g.POST("/reservations/:id/complete", h.Complete)
	g.POST("/reservations/:id/cancel", h.Cancel)
	g.POST("/reservations/:id/extend", h.Extend)

	// Read side: advisory availability check and per-session hold listing.
	g.GET("/availability", h.CheckAvailability)
	g.GET("/sessions/:id/reservations", h.SessionReservations)

	// Operational: run the expiry sweep on demand.
	g.POST("/admin/sweep", h.Sweep)
}

// RegisterStock registers the stock seeding and inspection endpoints.  The
// listing sits behind the response cache; a short TTL is fine for
// dashboard-style reads and the cached route is never consulted by the
// reservation engine itself.
func RegisterStock(e *echo.Echo, h *handler.StockHandler, rateLimit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/stock")
	g.Use(rateLimit)
	g.GET("", h.List, cache)
	g.PUT("", h.Set)
}
