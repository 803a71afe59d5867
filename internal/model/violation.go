package model

// Violation severities.  Relational violations are errors, proximity
// violations are warnings; nothing blocks a mutation either way – the
// tiering only tells the UI how loudly to surface the problem.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Violation reports that a SeatingPreference is currently unsatisfied
// by the assignment state.  Violations are derived values: a validation
// pass creates them, the next pass discards and replaces them, and they
// are never independently mutated or persisted as authoritative state.
//
// Fields:
//  PreferenceID – the preference that is unsatisfied.
//  GuestIDs     – the guests involved in this particular violation.
//  Message      – human-readable description for planners.
//  Severity     – "error" for relational rules, "warning" for proximity.
type Violation struct {
	PreferenceID uint64   `json:"preference_id"`
	GuestIDs     []uint64 `json:"guest_ids"`
	Message      string   `json:"message"`
	Severity     string   `json:"severity"`
}
