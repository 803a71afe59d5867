package model

// Assignment binds a guest to a table and optionally to a seat index
// within that table.  A guest appears in at most one assignment per
// layout; a seat index, when used, is unique within its table; the
// number of assignments for a table never exceeds its capacity.  The
// assignment index is the single source of truth for seating – any
// "table's guest list" view is a derived query, never a back-pointer.
//
// Fields:
//  GuestID  – the guest being seated (Guest Directory id).
//  LayoutID – layout the assignment belongs to.
//  TableID  – table the guest sits at.
//  Seat     – optional 0-based seat index within the table.
type Assignment struct {
	GuestID  uint64  `json:"guest_id"`  // assignments.guest_id
	LayoutID uint64  `json:"layout_id"` // assignments.layout_id
	TableID  uint64  `json:"table_id"`  // assignments.table_id
	Seat     *uint32 `json:"seat"`      // assignments.seat (nullable)
}
