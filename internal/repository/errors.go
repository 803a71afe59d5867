// Package repository defines durable data access for layouts, tables,
// assignments, preferences and the read-only guest directory view.
// Sentinel errors let higher layers such as handlers and the
// collaboration room distinguish failure scenarios without string
// matching: a missing layout becomes 404, an invalid preference 400.
package repository

import "errors"

// ErrLayoutNotFound is returned when a layout lookup yields no rows.
var ErrLayoutNotFound = errors.New("layout not found")

// ErrTableNotFound is returned when a table lookup yields no rows.
var ErrTableNotFound = errors.New("table not found")

// ErrGuestNotFound is returned when a guest id is missing from the
// guest directory view.
var ErrGuestNotFound = errors.New("guest not found")

// ErrPreferenceNotFound is returned when a preference lookup yields no rows.
var ErrPreferenceNotFound = errors.New("preference not found")

// ErrInvalidPreference is returned when a preference carries fewer than
// two guests for a relational type, no guests at all, or an unknown
// preference type.
var ErrInvalidPreference = errors.New("invalid preference")
