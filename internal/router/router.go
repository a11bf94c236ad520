package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-reservation/internal/handler"
)

// RegisterRoutes registers the health check at /healthz.  It is kept out
// of /v1 so load balancers never hit the rate limiter or the cache.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAPI registers the reservation API under /v1.  mw is applied to
// the whole group, typically the rate limiter and the response cache.
func RegisterAPI(e *echo.Echo, h *handler.Handler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)

	// Clients and rooms are insert-only.
	g.POST("/clients", h.CreateClient)
	g.GET("/clients", h.ListClients)
	g.GET("/clients/:id", h.GetClient)
	g.POST("/rooms", h.CreateRoom)
	g.GET("/rooms", h.ListRooms)
	g.GET("/rooms/:id", h.GetRoom)

	// Free rooms for one date and shift; never cached.
	g.GET("/availability", h.Availability)

	g.POST("/reservations", h.CreateReservation)
	g.GET("/reservations", h.ListReservations)
	g.GET("/reservations/:folio", h.GetReservation)
	g.PATCH("/reservations/:folio", h.UpdateReservation)
	g.POST("/reservations/:folio/cancel", h.CancelReservation)

	g.GET("/reports/daily", h.DailyReport)
}
