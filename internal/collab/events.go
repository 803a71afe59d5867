// Package collab implements the real-time collaboration channel: one
// room per layout, joined over WebSocket by every planner editing that
// layout.  Mutation events are applied against the authoritative chart
// in strict receipt order and re-broadcast to the whole room including
// the sender; failures go back to the requester only.  Cursor events
// are ephemeral relays and presence events announce membership changes.
package collab

import (
	"encoding/json"

	"github.com/seatsmith/wedding-seating/internal/model"
)

// Event types exchanged between clients and the server.  Mutation
// events (table:*, guest:*, guests:swap) travel both ways: the client
// sends an intent, the server re-broadcasts the authoritative result.
const (
	EvtTableCreate   = "table:create"
	EvtTableMove     = "table:move"
	EvtTableUpdate   = "table:update"
	EvtTableDelete   = "table:delete"
	EvtGuestAssign   = "guest:assign"
	EvtGuestUnassign = "guest:unassign"
	EvtGuestsSwap    = "guests:swap"

	// Ephemeral: relayed to everyone except the sender, never
	// persisted, droppable under load.
	EvtCursorMove = "cursor:move"

	// Presence: broadcast when room membership changes.
	EvtUserJoined = "user:joined"
	EvtUserLeft   = "user:left"

	// Server-only responses.
	EvtSnapshot   = "snapshot"
	EvtViolations = "violations:update"
	EvtError      = "error"

	// Client request for a fresh snapshot after a suspected gap; the
	// protocol guarantees neither delivery nor ordering across a
	// disconnect, so resync is always a full snapshot.
	EvtSync = "sync"
)

// Error codes carried in error events.
const (
	CodeNotFound         = "not_found"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeSeatTaken        = "seat_taken"
	CodeBadRequest       = "bad_request"
	CodeInternal         = "internal"
)

// Envelope is the wire frame for every event: a type tag plus a
// type-specific JSON payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an envelope from a marshalable payload.  Payload
// structs are plain data, so a marshal failure is a programming error.
func NewEnvelope(typ string, payload any) Envelope {
	b, err := json.Marshal(payload)
	if err != nil {
		panic("collab: marshal " + typ + ": " + err.Error())
	}
	return Envelope{Type: typ, Payload: b}
}

// TableCreatePayload is the client intent for table:create.  The id is
// assigned by the server; the broadcast carries the full table.
type TableCreatePayload struct {
	Shape    string   `json:"shape"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Rotation float64  `json:"rotation"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Capacity uint32   `json:"capacity"`
	Label    *string  `json:"label,omitempty"`
	ZoneTags []string `json:"zone_tags,omitempty"`
}

// TableMovePayload carries a position change.  The server snaps the
// coordinates to the configured grid before applying.
type TableMovePayload struct {
	TableID uint64  `json:"table_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// TableUpdatePayload patches table attributes other than position.
type TableUpdatePayload struct {
	TableID uint64           `json:"table_id"`
	Patch   model.TablePatch `json:"patch"`
}

// TableDeletePayload is the client intent for table:delete.
type TableDeletePayload struct {
	TableID uint64 `json:"table_id"`
}

// TableDeleteResult is the broadcast for table:delete.  The cascade is
// the one implicit side effect on assignment state in the protocol, so
// the unassigned guests are reported explicitly.
type TableDeleteResult struct {
	TableID            uint64   `json:"table_id"`
	UnassignedGuestIDs []uint64 `json:"unassigned_guest_ids"`
}

// GuestAssignPayload seats a guest, optionally at a specific seat.
type GuestAssignPayload struct {
	GuestID uint64  `json:"guest_id"`
	TableID uint64  `json:"table_id"`
	Seat    *uint32 `json:"seat,omitempty"`
}

// GuestUnassignPayload clears a guest's assignment.
type GuestUnassignPayload struct {
	GuestID uint64 `json:"guest_id"`
}

// GuestsSwapPayload atomically exchanges two guests' slots.
type GuestsSwapPayload struct {
	GuestIDA uint64 `json:"guest_id_a"`
	GuestIDB uint64 `json:"guest_id_b"`
}

// GuestsSwapResult is the broadcast for guests:swap.
type GuestsSwapResult struct {
	A model.Assignment `json:"a"`
	B model.Assignment `json:"b"`
}

// CursorPayload is the ephemeral cursor position of one editor.
type CursorPayload struct {
	UserID string  `json:"user_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// PresencePayload announces a membership change.
type PresencePayload struct {
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorPayload is sent to the requesting client only; repository-level
// failures are never broadcast.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SnapshotPayload is the full authoritative state of a layout.  It is
// sent on join before any further events and on explicit sync requests.
type SnapshotPayload struct {
	LayoutID    uint64                    `json:"layout_id"`
	Tables      []model.Table             `json:"tables"`
	Assignments []model.Assignment        `json:"assignments"`
	Preferences []model.SeatingPreference `json:"preferences"`
	Violations  []model.Violation         `json:"violations"`
}

// ViolationsPayload carries the server-side validation result after a
// mutation.  Clients running the engine locally converge on the same
// list; this broadcast exists so thin clients need not.
type ViolationsPayload struct {
	Violations []model.Violation `json:"violations"`
}
