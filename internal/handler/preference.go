package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatsmith/wedding-seating/internal/collab"
	"github.com/seatsmith/wedding-seating/internal/model"
	"github.com/seatsmith/wedding-seating/internal/queue"
	"github.com/seatsmith/wedding-seating/internal/repository"
	queue_publisher "github.com/seatsmith/wedding-seating/internal/service"
)

// CreatePreference handles POST /v1/layouts/:id/preferences.  The
// preference is persisted and live rooms are told to reload so their
// violation sets reflect the new rule without a reconnect.
func (h *SeatingHandler) CreatePreference(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body struct {
		Type     string   `json:"type"`
		GuestIDs []uint64 `json:"guest_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if _, err := h.Layouts.GetLayout(c.Request().Context(), layoutID); err != nil {
		if errors.Is(err, repository.ErrLayoutNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "layout not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	for _, gid := range body.GuestIDs {
		ok, err := h.Guests.Exists(c.Request().Context(), gid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "guest not found"})
		}
	}
	pref := model.SeatingPreference{
		LayoutID: layoutID,
		Type:     body.Type,
		GuestIDs: body.GuestIDs,
	}
	if err := h.Preferences.Create(c.Request().Context(), &pref); err != nil {
		if errors.Is(err, repository.ErrInvalidPreference) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid preference"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	h.Hub.NotifyPreferencesChanged(layoutID)
	return c.JSON(http.StatusCreated, pref)
}

// ListPreferences handles GET /v1/layouts/:id/preferences.
func (h *SeatingHandler) ListPreferences(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	prefs, err := h.Preferences.GetByLayout(c.Request().Context(), layoutID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if prefs == nil {
		prefs = []model.SeatingPreference{}
	}
	return c.JSON(http.StatusOK, prefs)
}

// DeletePreference handles DELETE /v1/layouts/:id/preferences/:prefId.
func (h *SeatingHandler) DeletePreference(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	prefID, err := pathID(c, "prefId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid preference id"})
	}
	pref, err := h.Preferences.GetByID(c.Request().Context(), prefID)
	if err != nil {
		if errors.Is(err, repository.ErrPreferenceNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "preference not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if pref.LayoutID != layoutID {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "preference not found"})
	}
	if err := h.Preferences.Delete(c.Request().Context(), prefID); err != nil {
		if errors.Is(err, repository.ErrPreferenceNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "preference not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	h.Hub.NotifyPreferencesChanged(layoutID)
	return c.JSON(http.StatusOK, map[string]string{"message": "preference deleted"})
}

// PruneGuestRefs handles DELETE /v1/layouts/:id/guests/:guestId/refs.
// The Guest Directory calls it after deleting a guest: the guest's seat
// is released, preferences drop the membership (or are removed when
// they fall below minimum size), and a hygiene event goes out so
// planners hear about rules that silently lost members.
func (h *SeatingHandler) PruneGuestRefs(c echo.Context) error {
	layoutID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	guestID, err := pathID(c, "guestId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid guest id"})
	}

	// Release the seat through the room so connected planners see the
	// unassignment live.  A guest without a seat is not an error here.
	unassigned := false
	env := collab.NewEnvelope(collab.EvtGuestUnassign, collab.GuestUnassignPayload{GuestID: guestID})
	out, err := h.Hub.Dispatch(c.Request().Context(), layoutID, env)
	if err != nil {
		if errors.Is(err, repository.ErrLayoutNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "layout not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "dispatch failed"})
	}
	if out.Type != collab.EvtError {
		unassigned = true
	} else {
		var p collab.ErrorPayload
		_ = json.Unmarshal(out.Payload, &p)
		if p.Code != collab.CodeNotFound {
			return c.JSON(errorStatus(p.Code), map[string]string{"error": p.Message, "code": p.Code})
		}
	}

	removed, err := h.Preferences.PruneGuest(c.Request().Context(), layoutID, guestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	h.Hub.NotifyPreferencesChanged(layoutID)

	event := queue.PreferencePrunedEvent{
		LayoutID:             layoutID,
		GuestID:              guestID,
		RemovedPreferenceIDs: removed,
		UnassignedSeat:       unassigned,
		OccurredAt:           time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishPreferencePruned(ctx, event) // advisory; errors already logged
	}()

	if removed == nil {
		removed = []uint64{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"unassigned_seat":        unassigned,
		"removed_preference_ids": removed,
	})
}
