package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/seatsmith/wedding-seating/internal/middleware"
	"github.com/seatsmith/wedding-seating/internal/repository"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Planner clients connect from the web app's origin; origin policy
	// is enforced at the edge proxy, not here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// JoinLayout handles GET /v1/layouts/:id/ws and upgrades the request to
// a WebSocket session on the layout's room.  Browsers cannot attach an
// Authorization header to a socket upgrade, so the token is accepted as
// a ?token= query parameter too.  The call blocks until the connection
// drops; the room sends the full snapshot first, then live events.
func (h *SeatingHandler) JoinLayout(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	raw := c.QueryParam("token")
	if raw == "" {
		raw = strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	}
	userID, err := middleware.VerifyToken(raw, h.JWTSecret)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	if err := h.Hub.Join(c.Request().Context(), layoutID, userID, conn); err != nil {
		_ = conn.Close()
		if errors.Is(err, repository.ErrLayoutNotFound) {
			return nil // connection is gone; nothing useful to write
		}
		log.Printf("ws: join layout %d failed: %v", layoutID, err)
	}
	return nil
}
