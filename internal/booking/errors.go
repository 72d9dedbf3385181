// Package booking implements the reservation engine: the availability
// check that decides whether a table can be booked for a time interval,
// and the lifecycle service that creates, updates and deletes
// reservations behind that gate.
package booking

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when the referenced table does not exist.
var ErrTableNotFound = errors.New("table not found")

// ErrTableInactive is returned when the table exists but is disabled.
var ErrTableInactive = errors.New("table is inactive")

// ErrReservationNotFound is returned when the referenced reservation
// does not exist.
var ErrReservationNotFound = errors.New("reservation not found")

// ValidationError reports malformed input.  It is raised before any
// store access; invalid input is never silently corrected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports an overlapping active reservation.  It carries
// the conflicting reservation's id and owner so callers can render a
// specific diagnostic.
type ConflictError struct {
	ReservationID uint64
	UserID        uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("table already reserved (conflicts with reservation %d)", e.ReservationID)
}
