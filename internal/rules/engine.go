// Package rules implements the preference constraint engine: a pure
// function from (tables, assignments, preferences) to violation
// reports.  The engine holds no state and is fully deterministic, so
// the server and any number of collaborating clients can run it on the
// same inputs and converge on identical results.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seatsmith/wedding-seating/internal/model"
)

// GuestSet is the set of guest ids currently known to the Guest
// Directory.  A nil GuestSet disables the stale-reference filter and
// treats every referenced guest as known.
type GuestSet map[uint64]struct{}

// Validate checks every preference against the current assignment state
// and returns the violations found.  Results are grouped by preference
// in creation order (preference id order) so UI rendering is stable and
// diffable.  Guests with no assignment produce no violations here, and
// guest ids missing from the directory are silently skipped – stale
// references are a data-hygiene concern of the guest-deletion flow.
func Validate(tables []model.Table, assignments []model.Assignment, prefs []model.SeatingPreference, known GuestSet) []model.Violation {
	byTable := make(map[uint64]*model.Table, len(tables))
	for i := range tables {
		byTable[tables[i].ID] = &tables[i]
	}
	seated := make(map[uint64]model.Assignment, len(assignments))
	for _, a := range assignments {
		if _, ok := byTable[a.TableID]; ok {
			seated[a.GuestID] = a
		}
	}

	ordered := make([]model.SeatingPreference, len(prefs))
	copy(ordered, prefs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var out []model.Violation
	for _, p := range ordered {
		switch p.Type {
		case model.PrefMustSitTogether:
			out = append(out, checkTogether(p, seated, byTable, known)...)
		case model.PrefCannotSitTogether:
			out = append(out, checkApart(p, seated, byTable, known)...)
		default:
			out = append(out, checkProximity(p, seated, byTable, known)...)
		}
	}
	return out
}

// checkTogether emits one violation when the assigned members of a
// must_sit_together preference occupy more than one distinct table.
// Unassigned members are ignored; they are not violations on their own.
func checkTogether(p model.SeatingPreference, seated map[uint64]model.Assignment, byTable map[uint64]*model.Table, known GuestSet) []model.Violation {
	var guests []uint64
	tableSet := make(map[uint64]struct{})
	for _, gid := range liveGuests(p.GuestIDs, known) {
		a, ok := seated[gid]
		if !ok {
			continue
		}
		guests = append(guests, gid)
		tableSet[a.TableID] = struct{}{}
	}
	if len(tableSet) <= 1 {
		return nil
	}
	tids := make([]uint64, 0, len(tableSet))
	for tid := range tableSet {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })
	sort.Slice(guests, func(i, j int) bool { return guests[i] < guests[j] })
	return []model.Violation{{
		PreferenceID: p.ID,
		GuestIDs:     guests,
		Message: fmt.Sprintf("guests %s must sit together but are split across tables %s",
			joinGuests(guests), joinTables(tids, byTable)),
		Severity: model.SeverityError,
	}}
}

// checkApart emits one violation for every pair of cannot_sit_together
// guests who ended up at the same table.
func checkApart(p model.SeatingPreference, seated map[uint64]model.Assignment, byTable map[uint64]*model.Table, known GuestSet) []model.Violation {
	live := liveGuests(p.GuestIDs, known)
	sort.Slice(live, func(i, j int) bool { return live[i] < live[j] })
	var out []model.Violation
	for i := 0; i < len(live); i++ {
		a, okA := seated[live[i]]
		if !okA {
			continue
		}
		for j := i + 1; j < len(live); j++ {
			b, okB := seated[live[j]]
			if !okB || a.TableID != b.TableID {
				continue
			}
			out = append(out, model.Violation{
				PreferenceID: p.ID,
				GuestIDs:     []uint64{live[i], live[j]},
				Message: fmt.Sprintf("guests %d and %d cannot sit together but are both at table %s",
					live[i], live[j], tableName(a.TableID, byTable)),
				Severity: model.SeverityError,
			})
		}
	}
	return out
}

// checkProximity checks each assigned guest independently against the
// zone tags of their table.  away_from_speakers is satisfied when the
// table does NOT carry the near_speakers tag; every other proximity
// type is satisfied when the table carries the matching tag.
func checkProximity(p model.SeatingPreference, seated map[uint64]model.Assignment, byTable map[uint64]*model.Table, known GuestSet) []model.Violation {
	var out []model.Violation
	for _, gid := range liveGuests(p.GuestIDs, known) {
		a, ok := seated[gid]
		if !ok {
			continue
		}
		t := byTable[a.TableID]
		if t == nil {
			continue
		}
		satisfied := false
		var want string
		if p.Type == model.PrefAwayFromSpeakers {
			satisfied = !t.HasZone(model.ZoneNearSpeakers)
			want = "away from the speakers"
		} else {
			satisfied = t.HasZone(p.Type)
			want = strings.ReplaceAll(p.Type, "_", " ")
		}
		if satisfied {
			continue
		}
		out = append(out, model.Violation{
			PreferenceID: p.ID,
			GuestIDs:     []uint64{gid},
			Message: fmt.Sprintf("guest %d needs a table %s but table %s is not",
				gid, want, tableName(a.TableID, byTable)),
			Severity: model.SeverityWarning,
		})
	}
	return out
}

// liveGuests filters a preference's guest ids down to those still known
// to the Guest Directory, preserving order.
func liveGuests(ids []uint64, known GuestSet) []uint64 {
	if known == nil {
		return ids
	}
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func joinGuests(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}

func joinTables(ids []uint64, byTable map[uint64]*model.Table) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = tableName(id, byTable)
	}
	return strings.Join(parts, ", ")
}

// tableName prefers the table's display label and falls back to its id.
func tableName(id uint64, byTable map[uint64]*model.Table) string {
	if t, ok := byTable[id]; ok && t.Label != nil && *t.Label != "" {
		return *t.Label
	}
	return fmt.Sprintf("%d", id)
}
