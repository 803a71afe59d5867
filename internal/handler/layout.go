package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatsmith/wedding-seating/internal/model"
	"github.com/seatsmith/wedding-seating/internal/repository"
	"github.com/seatsmith/wedding-seating/internal/rules"
)

// CreateLayout handles POST /v1/layouts and registers a new seating
// layout for an event.
func (h *SeatingHandler) CreateLayout(c echo.Context) error {
	var body struct {
		EventID uint64 `json:"event_id"`
		Name    string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if body.EventID == 0 || body.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event_id and name are required"})
	}
	l := &model.Layout{EventID: body.EventID, Name: body.Name}
	if err := h.Layouts.CreateLayout(c.Request().Context(), l); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, l)
}

// GetLayout handles GET /v1/layouts/:id and returns the full snapshot:
// the layout, its tables, the assignment index and the preferences.
// Reporting and the other wedding-app subsystems read this; live
// editors get the same snapshot over the socket on join.
func (h *SeatingHandler) GetLayout(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	l, err := h.Layouts.GetLayout(ctx, id)
	if err != nil {
		if err == repository.ErrLayoutNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "layout not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	tables, err := h.Layouts.GetTablesByLayout(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	assignments, err := h.Assignments.GetByLayout(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	prefs, err := h.Preferences.GetByLayout(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"layout":      l,
		"tables":      tables,
		"assignments": assignments,
		"preferences": prefs,
	})
}

// GetViolations handles GET /v1/layouts/:id/violations and runs the
// constraint engine over the current durable state.  Violations are
// derived values and never persisted, so every read is a fresh pass.
func (h *SeatingHandler) GetViolations(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Layouts.GetLayout(ctx, id); err != nil {
		if err == repository.ErrLayoutNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "layout not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	tables, err := h.Layouts.GetTablesByLayout(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	assignments, err := h.Assignments.GetByLayout(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	prefs, err := h.Preferences.GetByLayout(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	known, err := h.Guests.KnownIDs(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	violations := rules.Validate(tables, assignments, prefs, rules.GuestSet(known))
	if violations == nil {
		violations = []model.Violation{}
	}
	return c.JSON(http.StatusOK, map[string]any{"violations": violations})
}
