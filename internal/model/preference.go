package model

import "time"

// Seating preference types.  The two relational types require at least
// two guests; the proximity types are checked per guest against the
// zone tags of the table the guest is assigned to.
const (
	PrefMustSitTogether      = "must_sit_together"
	PrefCannotSitTogether    = "cannot_sit_together"
	PrefNearEntrance         = "near_entrance"
	PrefNearBar              = "near_bar"
	PrefNearDanceFloor       = "near_dance_floor"
	PrefNearRestroom         = "near_restroom"
	PrefAwayFromSpeakers     = "away_from_speakers"
	PrefWheelchairAccessible = "wheelchair_accessible"
)

// ZoneNearSpeakers is the zone tag that makes away_from_speakers fail;
// the other proximity types match a zone tag of the same name.
const ZoneNearSpeakers = "near_speakers"

// RelationalPreference reports whether the type involves the relative
// placement of two or more guests.
func RelationalPreference(typ string) bool {
	return typ == PrefMustSitTogether || typ == PrefCannotSitTogether
}

// ValidPreferenceType reports whether typ is a known preference type.
func ValidPreferenceType(typ string) bool {
	switch typ {
	case PrefMustSitTogether, PrefCannotSitTogether,
		PrefNearEntrance, PrefNearBar, PrefNearDanceFloor, PrefNearRestroom,
		PrefAwayFromSpeakers, PrefWheelchairAccessible:
		return true
	}
	return false
}

// SeatingPreference is a declarative rule over one or more guests.
// Preferences are long-lived: they persist across edits and are only
// removed explicitly or pruned when a referenced guest is deleted from
// the Guest Directory.
//
// Fields:
//  ID        – primary key identifier; also the creation ordering key.
//  LayoutID  – layout the preference applies to.
//  Type      – one of the Pref* constants above.
//  GuestIDs  – non-empty set of guests the rule covers.
//  CreatedAt – creation timestamp.
type SeatingPreference struct {
	ID        uint64    `json:"id"`         // preferences.id
	LayoutID  uint64    `json:"layout_id"`  // preferences.layout_id
	Type      string    `json:"type"`       // preferences.pref_type
	GuestIDs  []uint64  `json:"guest_ids"`  // preference_guests rows
	CreatedAt time.Time `json:"created_at"` // preferences.created_at
}
