package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatsmith/wedding-seating/internal/collab"
)

// AssignGuest handles POST /v1/layouts/:id/assignments and seats a
// guest at a table, optionally at a specific seat index.  A guest
// already seated elsewhere is moved, never double-assigned.  Capacity
// and seat conflicts come back as specific 409s.
func (h *SeatingHandler) AssignGuest(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body collab.GuestAssignPayload
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if body.GuestID == 0 || body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "guest_id and table_id are required"})
	}
	ok, err := h.Guests.Exists(c.Request().Context(), body.GuestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "guest not found"})
	}
	env := collab.NewEnvelope(collab.EvtGuestAssign, body)
	return h.dispatch(c, layoutID, env, http.StatusOK)
}

// UnassignGuest handles DELETE /v1/layouts/:id/assignments/:guestId.
func (h *SeatingHandler) UnassignGuest(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	guestID, err := pathID(c, "guestId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid guest id"})
	}
	env := collab.NewEnvelope(collab.EvtGuestUnassign, collab.GuestUnassignPayload{GuestID: guestID})
	return h.dispatch(c, layoutID, env, http.StatusOK)
}

// SwapGuests handles POST /v1/layouts/:id/assignments/swap and
// atomically exchanges the slots of two assigned guests.
func (h *SeatingHandler) SwapGuests(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body collab.GuestsSwapPayload
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if body.GuestIDA == 0 || body.GuestIDB == 0 || body.GuestIDA == body.GuestIDB {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "two distinct guest ids are required"})
	}
	env := collab.NewEnvelope(collab.EvtGuestsSwap, body)
	return h.dispatch(c, layoutID, env, http.StatusOK)
}
