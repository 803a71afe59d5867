// Package seating owns the authoritative in-memory state of one layout:
// its tables and the guest assignment index.  Every mutation enforces the
// layout invariants (unique table ids, per-table capacity, one assignment
// per guest, unique seat index per table) and returns sentinel errors
// that higher layers translate into protocol errors or HTTP statuses.
package seating

import "errors"

// ErrTableNotFound is returned when a mutation references a table id
// that does not exist in the layout.
var ErrTableNotFound = errors.New("table not found")

// ErrGuestNotAssigned is returned when an unassign or swap references a
// guest that has no current assignment in the layout.
var ErrGuestNotAssigned = errors.New("guest not assigned")

// ErrCapacityExceeded is returned when an assignment would push a table
// past its capacity.  The attempted assignment is rejected and existing
// state is left untouched.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrSeatTaken is returned when a specific seat index is requested and
// another guest already occupies it.
var ErrSeatTaken = errors.New("seat taken")

// ErrInvalidPosition is returned when a move carries non-finite
// coordinates.  Position has no other domain constraint.
var ErrInvalidPosition = errors.New("invalid position")

// ErrDuplicateTable is returned when a table id is added twice to the
// same layout.  Ids come from the durable store, so hitting this means
// a bookkeeping bug rather than bad user input.
var ErrDuplicateTable = errors.New("duplicate table id")
