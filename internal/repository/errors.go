// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let the engine distinguish between
// failure scenarios without inspecting driver specific errors.  ErrNotFound
// signals a lookup miss, ErrDuplicate a name that collides with an existing
// client or room, and ErrConflict an insert that would give a slot a second
// active reservation.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a client or room name collides with an
// existing one, ignoring case and surrounding whitespace.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when the slot of a new reservation already has
// an active reservation.  It is raised by the unique index on slot_key and
// only surfaces when two writers race past the engine's own check.
var ErrConflict = errors.New("conflict")
