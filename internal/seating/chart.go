package seating

import (
	"math"
	"sort"

	"github.com/seatsmith/wedding-seating/internal/model"
)

// Chart is the owned aggregate for one layout: the set of tables plus
// the guest assignment index (guest id -> table/seat).  A Chart is not
// safe for concurrent use; the collaboration room serializes all access
// to it, which is what gives mutation events their strict receipt-order
// semantics.
type Chart struct {
	layoutID uint64
	tables   map[uint64]*model.Table
	seats    map[uint64]model.Assignment // keyed by guest id
}

// NewChart builds a Chart from durable state.  Assignments referencing
// unknown tables are dropped rather than trusted – the store may lag a
// cascade delete that already happened in another process lifetime.
func NewChart(layoutID uint64, tables []model.Table, assignments []model.Assignment) *Chart {
	c := &Chart{
		layoutID: layoutID,
		tables:   make(map[uint64]*model.Table, len(tables)),
		seats:    make(map[uint64]model.Assignment, len(assignments)),
	}
	for i := range tables {
		t := tables[i]
		c.tables[t.ID] = &t
	}
	for _, a := range assignments {
		if _, ok := c.tables[a.TableID]; !ok {
			continue
		}
		c.seats[a.GuestID] = a
	}
	return c
}

// LayoutID returns the id of the layout this chart belongs to.
func (c *Chart) LayoutID() uint64 { return c.layoutID }

// Tables returns all tables ordered by id for stable snapshots.
func (c *Chart) Tables() []model.Table {
	out := make([]model.Table, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Assignments returns the assignment index ordered by guest id.
func (c *Chart) Assignments() []model.Assignment {
	out := make([]model.Assignment, 0, len(c.seats))
	for _, a := range c.seats {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuestID < out[j].GuestID })
	return out
}

// Table returns a copy of the table with the given id.
func (c *Chart) Table(id uint64) (model.Table, bool) {
	t, ok := c.tables[id]
	if !ok {
		return model.Table{}, false
	}
	return *t, true
}

// AssignmentOf returns the current assignment of a guest, if any.
func (c *Chart) AssignmentOf(guestID uint64) (model.Assignment, bool) {
	a, ok := c.seats[guestID]
	return a, ok
}

// Occupants is a derived query listing the guests assigned to a table,
// ordered by guest id.  There is deliberately no guest list stored on
// the table itself; the assignment index is the only source of truth.
func (c *Chart) Occupants(tableID uint64) []uint64 {
	var out []uint64
	for gid, a := range c.seats {
		if a.TableID == tableID {
			out = append(out, gid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddTable inserts a table whose id was already allocated by the
// durable store.
func (c *Chart) AddTable(t model.Table) error {
	if _, ok := c.tables[t.ID]; ok {
		return ErrDuplicateTable
	}
	cp := t
	c.tables[t.ID] = &cp
	return nil
}

// MoveTable updates a table's canvas position.  Coordinates must be
// finite; there is no other domain constraint on position, which is why
// concurrent moves resolve by last-writer-wins.
func (c *Chart) MoveTable(id uint64, x, y float64) (model.Table, error) {
	t, ok := c.tables[id]
	if !ok {
		return model.Table{}, ErrTableNotFound
	}
	if !finite(x) || !finite(y) {
		return model.Table{}, ErrInvalidPosition
	}
	t.X = x
	t.Y = y
	return *t, nil
}

// PatchTable applies a partial update to a table's attributes.  A
// capacity reduction below the table's current occupancy is rejected
// with ErrCapacityExceeded so the capacity invariant can never be
// violated through an edit.
func (c *Chart) PatchTable(id uint64, p model.TablePatch) (model.Table, error) {
	t, ok := c.tables[id]
	if !ok {
		return model.Table{}, ErrTableNotFound
	}
	if p.Capacity != nil && int(*p.Capacity) < len(c.Occupants(id)) {
		return model.Table{}, ErrCapacityExceeded
	}
	if p.Shape != nil {
		t.Shape = *p.Shape
	}
	if p.Rotation != nil {
		t.Rotation = *p.Rotation
	}
	if p.Width != nil {
		t.Width = *p.Width
	}
	if p.Height != nil {
		t.Height = *p.Height
	}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
	if p.Label != nil {
		t.Label = p.Label
	}
	if p.ZoneTags != nil {
		t.ZoneTags = p.ZoneTags
	}
	return *t, nil
}

// RemoveTable deletes a table and cascades: every guest assigned to it
// becomes unassigned.  The unassigned guest ids are returned so the
// caller can report them and trigger re-validation.
func (c *Chart) RemoveTable(id uint64) ([]uint64, error) {
	if _, ok := c.tables[id]; !ok {
		return nil, ErrTableNotFound
	}
	unassigned := c.Occupants(id)
	for _, gid := range unassigned {
		delete(c.seats, gid)
	}
	delete(c.tables, id)
	return unassigned, nil
}

// Assign seats a guest at a table, optionally at a specific seat index.
// A guest already assigned elsewhere is implicitly moved, never
// double-assigned.  Capacity counts exclude the guest when they already
// sit at the target table, so re-seating within a full table works.
func (c *Chart) Assign(guestID, tableID uint64, seat *uint32) (model.Assignment, error) {
	t, ok := c.tables[tableID]
	if !ok {
		return model.Assignment{}, ErrTableNotFound
	}
	occupied := 0
	for gid, a := range c.seats {
		if a.TableID != tableID || gid == guestID {
			continue
		}
		occupied++
		if seat != nil && a.Seat != nil && *a.Seat == *seat {
			return model.Assignment{}, ErrSeatTaken
		}
	}
	if occupied >= int(t.Capacity) {
		return model.Assignment{}, ErrCapacityExceeded
	}
	a := model.Assignment{GuestID: guestID, LayoutID: c.layoutID, TableID: tableID, Seat: seat}
	c.seats[guestID] = a
	return a, nil
}

// Unassign removes a guest's assignment.
func (c *Chart) Unassign(guestID uint64) (model.Assignment, error) {
	a, ok := c.seats[guestID]
	if !ok {
		return model.Assignment{}, ErrGuestNotAssigned
	}
	delete(c.seats, guestID)
	return a, nil
}

// Swap atomically exchanges the (table, seat) slots of two assigned
// guests.  Both slots are freed before re-occupancy is evaluated, so a
// like-for-like swap never fails capacity or seat checks; either both
// guests end up in each other's prior slot or the chart is unchanged.
func (c *Chart) Swap(guestA, guestB uint64) (model.Assignment, model.Assignment, error) {
	a, okA := c.seats[guestA]
	b, okB := c.seats[guestB]
	if !okA || !okB {
		return model.Assignment{}, model.Assignment{}, ErrGuestNotAssigned
	}
	na := model.Assignment{GuestID: guestA, LayoutID: c.layoutID, TableID: b.TableID, Seat: b.Seat}
	nb := model.Assignment{GuestID: guestB, LayoutID: c.layoutID, TableID: a.TableID, Seat: a.Seat}
	c.seats[guestA] = na
	c.seats[guestB] = nb
	return na, nb, nil
}

// Snap rounds a coordinate to the nearest multiple of the grid unit.
// A unit of zero (or less) disables snapping.  Snapping is presentation
// configuration applied before MoveTable, not a chart invariant.
func Snap(v, unit float64) float64 {
	if unit <= 0 {
		return v
	}
	return math.Round(v/unit) * unit
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
