package model

import "time"

// Table shapes supported by the layout canvas.  Width and height are
// interpreted per shape: for ROUND tables width is the diameter and
// height is ignored by clients, for RECTANGULAR and OVAL both apply,
// for SQUARE width is the side length.
const (
	ShapeRound       = "ROUND"
	ShapeRectangular = "RECTANGULAR"
	ShapeSquare      = "SQUARE"
	ShapeOval        = "OVAL"
)

// ValidShape reports whether s is one of the supported table shapes.
func ValidShape(s string) bool {
	switch s {
	case ShapeRound, ShapeRectangular, ShapeSquare, ShapeOval:
		return true
	}
	return false
}

// Table describes a seating unit placed on a layout canvas.  Tables are
// uniquely identified within their layout.  ZoneTags carry the venue's
// proximity zones the table physically sits in (near_entrance, near_bar,
// near_dance_floor, near_restroom, near_speakers, wheelchair_accessible)
// and are supplied by venue setup, not edited here.
//
// Fields:
//  ID        – primary key identifier.
//  LayoutID  – layout to which this table belongs.
//  Shape     – one of ROUND, RECTANGULAR, SQUARE, OVAL.
//  X, Y      – canvas coordinates of the table centre.
//  Rotation  – rotation in degrees.
//  Width     – shape-dependent width (diameter for ROUND).
//  Height    – shape-dependent height.
//  Capacity  – maximum number of guests seated at the table.
//  Label     – optional display name or number (nil if unset).
//  ZoneTags  – proximity zones the table sits in.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Table struct {
	ID        uint64    `json:"id"`         // layout_tables.id
	LayoutID  uint64    `json:"layout_id"`  // layout_tables.layout_id
	Shape     string    `json:"shape"`      // layout_tables.shape
	X         float64   `json:"x"`          // layout_tables.x
	Y         float64   `json:"y"`          // layout_tables.y
	Rotation  float64   `json:"rotation"`   // layout_tables.rotation
	Width     float64   `json:"width"`      // layout_tables.width
	Height    float64   `json:"height"`     // layout_tables.height
	Capacity  uint32    `json:"capacity"`   // layout_tables.capacity
	Label     *string   `json:"label"`      // layout_tables.label (nullable)
	ZoneTags  []string  `json:"zone_tags"`  // layout_tables.zone_tags (CSV column)
	CreatedAt time.Time `json:"created_at"` // layout_tables.created_at
	UpdatedAt time.Time `json:"updated_at"` // layout_tables.updated_at
}

// HasZone reports whether the table carries the given zone tag.
func (t *Table) HasZone(tag string) bool {
	for _, z := range t.ZoneTags {
		if z == tag {
			return true
		}
	}
	return false
}

// TablePatch carries a partial update for a table.  Nil fields are left
// unchanged.  Position is patched through MoveTable, not here, so that
// concurrent moves and attribute edits do not clobber each other.
type TablePatch struct {
	Shape    *string  `json:"shape"`
	Rotation *float64 `json:"rotation"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Capacity *uint32  `json:"capacity"`
	Label    *string  `json:"label"`
	ZoneTags []string `json:"zone_tags"`
}
