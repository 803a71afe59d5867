// Package queue defines message payloads exchanged over the message broker.
package queue

// PreferencePrunedEvent is published when a guest's removal from the
// Guest Directory forced preference cleanup on a layout.  Stale
// references are never hard failures, but planners should hear about
// rules that silently lost members, so downstream consumers can log,
// notify, or trigger analytics without querying the primary database.
type PreferencePrunedEvent struct {
	LayoutID             uint64   `json:"layout_id"`
	GuestID              uint64   `json:"guest_id"`
	RemovedPreferenceIDs []uint64 `json:"removed_preference_ids"`
	UnassignedSeat       bool     `json:"unassigned_seat"`
	OccurredAt           string   `json:"occurred_at"`
}
