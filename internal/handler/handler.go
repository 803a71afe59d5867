// Package handler contains the HTTP and WebSocket handlers of the
// seating service.  Mutations are never applied here directly: they are
// dispatched through the collaboration hub so REST traffic and live
// socket traffic share one serialization point per layout.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/seatsmith/wedding-seating/internal/collab"
	"github.com/seatsmith/wedding-seating/internal/repository"
)

// SeatingHandler bundles the repositories and the hub behind the REST
// and WebSocket surface.
type SeatingHandler struct {
	Layouts     *repository.LayoutRepo
	Assignments *repository.AssignmentRepo
	Preferences *repository.PreferenceRepo
	Guests      *repository.GuestRepo
	Hub         *collab.Hub
	JWTSecret   string
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// dispatch routes a mutation envelope through the hub and translates
// the outcome to HTTP.  Success responds with the broadcast payload;
// protocol errors map onto the usual statuses.
func (h *SeatingHandler) dispatch(c echo.Context, layoutID uint64, env collab.Envelope, okStatus int) error {
	out, err := h.Hub.Dispatch(c.Request().Context(), layoutID, env)
	if err != nil {
		if errors.Is(err, repository.ErrLayoutNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "layout not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "dispatch failed"})
	}
	if out.Type == collab.EvtError {
		var p collab.ErrorPayload
		_ = json.Unmarshal(out.Payload, &p)
		return c.JSON(errorStatus(p.Code), map[string]string{"error": p.Message, "code": p.Code})
	}
	return c.JSONBlob(okStatus, out.Payload)
}

// errorStatus maps protocol error codes onto HTTP statuses.  Capacity
// and seat conflicts surface as specific 409s, not generic errors.
func errorStatus(code string) int {
	switch code {
	case collab.CodeNotFound:
		return http.StatusNotFound
	case collab.CodeCapacityExceeded, collab.CodeSeatTaken:
		return http.StatusConflict
	case collab.CodeBadRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
