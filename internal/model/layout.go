package model

import "time"

// Layout is the complete spatial arrangement of tables for one event.
// The owning event lives in the venue/event subsystem and is referenced
// by id only.  Table ids are unique within a layout.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – owning event reference.
//  Name      – display name of the layout (e.g. "Reception hall A").
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Layout struct {
	ID        uint64    `json:"id"`         // layouts.id
	EventID   uint64    `json:"event_id"`   // layouts.event_id
	Name      string    `json:"name"`       // layouts.name
	CreatedAt time.Time `json:"created_at"` // layouts.created_at
	UpdatedAt time.Time `json:"updated_at"` // layouts.updated_at
}

// Guest is owned by the external Guest Directory and referenced here by
// id only.  This core never creates, renames or deletes guests; the
// Group tag is used for display grouping by the presentation layer.
type Guest struct {
	ID    uint64  `json:"id"`    // guests.id
	Name  string  `json:"name"`  // guests.name
	Group *string `json:"group"` // guests.group_tag (nullable)
}
