package handler // handler contains table mutation endpoints for non-realtime tooling

import (
	"net/http" // http defines status code constants

	"github.com/labstack/echo/v4" // echo framework provides context and JSON helpers

	"github.com/seatsmith/wedding-seating/internal/collab" // collab defines the event envelopes
	"github.com/seatsmith/wedding-seating/internal/model"  // model defines table shapes
)

// CreateTable handles POST /v1/layouts/:id/tables.  The mutation goes
// through the layout's room so it is serialized with, and broadcast to,
// any live editing session.
func (h *SeatingHandler) CreateTable(c echo.Context) error { // begin CreateTable handler
	layoutID, err := pathID(c, "id") // parse layout ID from path
	if err != nil {                  // invalid layout ID
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"}) // respond invalid id
	}
	var body collab.TableCreatePayload   // bind directly to the event payload
	if err := c.Bind(&body); err != nil { // bind incoming JSON
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"}) // respond bad request
	}
	if !model.ValidShape(body.Shape) { // shape must be a known value
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid shape"}) // respond invalid shape
	}
	if body.Capacity == 0 { // capacity must be positive
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "capacity must be greater than zero"}) // respond invalid capacity
	}
	env := collab.NewEnvelope(collab.EvtTableCreate, body) // build the mutation event
	return h.dispatch(c, layoutID, env, http.StatusCreated)
}

// MoveTable handles PUT /v1/layouts/:id/tables/:tableId/position.
// Snap-to-grid happens inside the room, like socket moves.
func (h *SeatingHandler) MoveTable(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	tableID, err := pathID(c, "tableId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid table id"})
	}
	var body struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	env := collab.NewEnvelope(collab.EvtTableMove, collab.TableMovePayload{
		TableID: tableID, X: body.X, Y: body.Y,
	})
	return h.dispatch(c, layoutID, env, http.StatusOK)
}

// UpdateTable handles PATCH /v1/layouts/:id/tables/:tableId and patches
// attributes other than position.
func (h *SeatingHandler) UpdateTable(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	tableID, err := pathID(c, "tableId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid table id"})
	}
	var patch model.TablePatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	env := collab.NewEnvelope(collab.EvtTableUpdate, collab.TableUpdatePayload{
		TableID: tableID, Patch: patch,
	})
	return h.dispatch(c, layoutID, env, http.StatusOK)
}

// DeleteTable handles DELETE /v1/layouts/:id/tables/:tableId.  The
// response reports the guests unassigned by the cascade so callers know
// to re-check constraints.
func (h *SeatingHandler) DeleteTable(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	tableID, err := pathID(c, "tableId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid table id"})
	}
	env := collab.NewEnvelope(collab.EvtTableDelete, collab.TableDeletePayload{TableID: tableID})
	return h.dispatch(c, layoutID, env, http.StatusOK)
}
