package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatsmith/wedding-seating/internal/model"
)

func zoneTable(id uint64, zones ...string) model.Table {
	return model.Table{ID: id, LayoutID: 1, Shape: model.ShapeRound, Capacity: 8, ZoneTags: zones}
}

func at(guestID, tableID uint64) model.Assignment {
	return model.Assignment{GuestID: guestID, LayoutID: 1, TableID: tableID}
}

func pref(id uint64, typ string, guests ...uint64) model.SeatingPreference {
	return model.SeatingPreference{ID: id, LayoutID: 1, Type: typ, GuestIDs: guests}
}

// TestValidate_MustSitTogether_Split verifies a must_sit_together group
// split across tables produces one error naming the assigned members.
func TestValidate_MustSitTogether_Split(t *testing.T) {
	tables := []model.Table{zoneTable(10), zoneTable(20)}
	assignments := []model.Assignment{at(1, 10), at(2, 20), at(3, 10)}
	prefs := []model.SeatingPreference{pref(100, model.PrefMustSitTogether, 1, 2, 3)}

	out := Validate(tables, assignments, prefs, nil)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(100), out[0].PreferenceID)
	assert.Equal(t, []uint64{1, 2, 3}, out[0].GuestIDs)
	assert.Equal(t, model.SeverityError, out[0].Severity)
}

// TestValidate_MustSitTogether_Satisfied verifies no violation when the
// whole group shares one table, and that unassigned members do not
// count as a split.
func TestValidate_MustSitTogether_Satisfied(t *testing.T) {
	tables := []model.Table{zoneTable(10)}
	prefs := []model.SeatingPreference{pref(100, model.PrefMustSitTogether, 1, 2, 3)}

	// All at one table.
	out := Validate(tables, []model.Assignment{at(1, 10), at(2, 10), at(3, 10)}, prefs, nil)
	assert.Empty(t, out)

	// One member unassigned: still no violation.
	out = Validate(tables, []model.Assignment{at(1, 10), at(2, 10)}, prefs, nil)
	assert.Empty(t, out)
}

// TestValidate_CannotSitTogether verifies each co-seated pair yields its
// own error.
func TestValidate_CannotSitTogether(t *testing.T) {
	tables := []model.Table{zoneTable(10), zoneTable(20)}
	prefs := []model.SeatingPreference{pref(100, model.PrefCannotSitTogether, 4, 5, 6)}

	// 4 and 5 share a table, 6 is elsewhere: exactly one pair.
	out := Validate(tables, []model.Assignment{at(4, 10), at(5, 10), at(6, 20)}, prefs, nil)
	require.Len(t, out, 1)
	assert.Equal(t, []uint64{4, 5}, out[0].GuestIDs)

	// All three together: three pairs.
	out = Validate(tables, []model.Assignment{at(4, 10), at(5, 10), at(6, 10)}, prefs, nil)
	assert.Len(t, out, 3)

	// Separated: clean.
	out = Validate(tables, []model.Assignment{at(4, 10), at(5, 20)}, prefs, nil)
	assert.Empty(t, out)
}

// TestValidate_Proximity verifies zone-tag checks produce warnings, not
// errors, and only for guests at non-matching tables.
func TestValidate_Proximity(t *testing.T) {
	tables := []model.Table{
		zoneTable(10, model.PrefWheelchairAccessible, model.PrefNearEntrance),
		zoneTable(20),
	}
	prefs := []model.SeatingPreference{pref(100, model.PrefWheelchairAccessible, 7)}

	out := Validate(tables, []model.Assignment{at(7, 10)}, prefs, nil)
	assert.Empty(t, out)

	out = Validate(tables, []model.Assignment{at(7, 20)}, prefs, nil)
	require.Len(t, out, 1)
	assert.Equal(t, model.SeverityWarning, out[0].Severity)
	assert.Equal(t, []uint64{7}, out[0].GuestIDs)
}

// TestValidate_AwayFromSpeakers verifies the inverted zone check: the
// preference is violated only when the table carries near_speakers.
func TestValidate_AwayFromSpeakers(t *testing.T) {
	tables := []model.Table{
		zoneTable(10, model.ZoneNearSpeakers),
		zoneTable(20),
	}
	prefs := []model.SeatingPreference{pref(100, model.PrefAwayFromSpeakers, 8)}

	out := Validate(tables, []model.Assignment{at(8, 10)}, prefs, nil)
	require.Len(t, out, 1)
	assert.Equal(t, model.SeverityWarning, out[0].Severity)

	out = Validate(tables, []model.Assignment{at(8, 20)}, prefs, nil)
	assert.Empty(t, out)
}

// TestValidate_UnassignedGuestsSkipped verifies guests without a seat
// never produce proximity or relational violations.
func TestValidate_UnassignedGuestsSkipped(t *testing.T) {
	tables := []model.Table{zoneTable(10, model.ZoneNearSpeakers)}
	prefs := []model.SeatingPreference{
		pref(100, model.PrefNearBar, 1),
		pref(101, model.PrefCannotSitTogether, 2, 3),
	}
	out := Validate(tables, nil, prefs, nil)
	assert.Empty(t, out)
}

// TestValidate_UnknownGuestsSkipped verifies guest ids missing from the
// directory are filtered per guest, leaving the rest of the preference
// in force.
func TestValidate_UnknownGuestsSkipped(t *testing.T) {
	tables := []model.Table{zoneTable(10), zoneTable(20)}
	assignments := []model.Assignment{at(1, 10), at(2, 20), at(3, 20)}
	prefs := []model.SeatingPreference{pref(100, model.PrefMustSitTogether, 1, 2, 3)}
	known := GuestSet{2: {}, 3: {}} // guest 1 was deleted

	out := Validate(tables, assignments, prefs, known)
	assert.Empty(t, out, "remaining members 2 and 3 share table 20")

	known[1] = struct{}{}
	out = Validate(tables, assignments, prefs, known)
	require.Len(t, out, 1, "with guest 1 known again, the group is split")
}

// TestValidate_OrderedByPreference verifies violations come back grouped
// in preference creation order regardless of input order.
func TestValidate_OrderedByPreference(t *testing.T) {
	tables := []model.Table{zoneTable(10), zoneTable(20)}
	assignments := []model.Assignment{at(1, 10), at(2, 20), at(3, 10), at(4, 10)}
	prefs := []model.SeatingPreference{
		pref(102, model.PrefCannotSitTogether, 3, 4),
		pref(101, model.PrefMustSitTogether, 1, 2),
	}

	out := Validate(tables, assignments, prefs, nil)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(101), out[0].PreferenceID)
	assert.Equal(t, uint64(102), out[1].PreferenceID)
}

// TestValidate_Deterministic verifies two runs over identical inputs
// yield identical output, which is what lets every client converge.
func TestValidate_Deterministic(t *testing.T) {
	tables := []model.Table{zoneTable(10), zoneTable(20, model.ZoneNearSpeakers)}
	assignments := []model.Assignment{at(1, 10), at(2, 20), at(3, 20), at(4, 10)}
	prefs := []model.SeatingPreference{
		pref(100, model.PrefMustSitTogether, 1, 2),
		pref(101, model.PrefCannotSitTogether, 2, 3),
		pref(102, model.PrefAwayFromSpeakers, 3),
	}

	first := Validate(tables, assignments, prefs, nil)
	second := Validate(tables, assignments, prefs, nil)
	assert.Equal(t, first, second)
}

// TestValidate_DanglingTableAssignment verifies an assignment whose
// table no longer exists is treated as unassigned.
func TestValidate_DanglingTableAssignment(t *testing.T) {
	tables := []model.Table{zoneTable(10)}
	assignments := []model.Assignment{at(1, 10), at(2, 99)}
	prefs := []model.SeatingPreference{pref(100, model.PrefMustSitTogether, 1, 2)}

	out := Validate(tables, assignments, prefs, nil)
	assert.Empty(t, out)
}

// TestValidate_LabelInMessage verifies messages name tables by display
// label when one is set.
func TestValidate_LabelInMessage(t *testing.T) {
	label := "Head Table"
	tables := []model.Table{
		{ID: 10, LayoutID: 1, Shape: model.ShapeRound, Capacity: 8, Label: &label},
	}
	assignments := []model.Assignment{at(4, 10), at(5, 10)}
	prefs := []model.SeatingPreference{pref(100, model.PrefCannotSitTogether, 4, 5)}

	out := Validate(tables, assignments, prefs, nil)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Message, "Head Table")
}
