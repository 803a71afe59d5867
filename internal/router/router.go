package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/seatsmith/wedding-seating/internal/config"
	"github.com/seatsmith/wedding-seating/internal/handler"    // import the handlers that implement business logic
	"github.com/seatsmith/wedding-seating/internal/middleware" // import middleware for JWT authentication and rate limiting
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// so load balancers and monitoring can verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterSeating registers the layout, table, assignment, preference
// and collaboration endpoints.  Everything lives under /v1 behind JWT
// authentication; the WebSocket join route runs its own token check
// because browsers cannot set headers on socket upgrades.
func RegisterSeating(e *echo.Echo, h *handler.SeatingHandler, jwtSecret string, rdb *redis.Client, rl config.RateLimitConfig) {
	v1 := e.Group("/v1")
	v1.Use(middleware.NewTokenBucket(rl, rdb))
	v1.Use(middleware.JWTAuth(jwtSecret))

	// Layouts and the read surface.
	v1.POST("/layouts", h.CreateLayout)
	v1.GET("/layouts/:id", h.GetLayout)
	v1.GET("/layouts/:id/violations", h.GetViolations)

	// Tables.  Mutations dispatch through the layout's room so REST and
	// socket traffic share one serialization point.
	v1.POST("/layouts/:id/tables", h.CreateTable)
	v1.PUT("/layouts/:id/tables/:tableId/position", h.MoveTable)
	v1.PATCH("/layouts/:id/tables/:tableId", h.UpdateTable)
	v1.DELETE("/layouts/:id/tables/:tableId", h.DeleteTable)

	// Guest assignments.
	v1.POST("/layouts/:id/assignments", h.AssignGuest)
	v1.DELETE("/layouts/:id/assignments/:guestId", h.UnassignGuest)
	v1.POST("/layouts/:id/assignments/swap", h.SwapGuests)

	// Seating preferences.
	v1.POST("/layouts/:id/preferences", h.CreatePreference)
	v1.GET("/layouts/:id/preferences", h.ListPreferences)
	v1.DELETE("/layouts/:id/preferences/:prefId", h.DeletePreference)

	// Guest Directory hygiene hook, called after a guest is deleted.
	v1.DELETE("/layouts/:id/guests/:guestId/refs", h.PruneGuestRefs)

	// Live collaboration.  Token arrives via ?token=, so this route sits
	// outside the JWT middleware group.
	e.GET("/v1/layouts/:id/ws", h.JoinLayout)
}
