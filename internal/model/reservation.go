package model

import "time"

// Reservation statuses.  Pending and confirmed reservations occupy their
// table for the booked interval; cancelled and completed ones are
// historical and never block new bookings.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Reservation records a time-bounded claim on one table by one user, as
// stored in the `reservations` table.  Date and the two clock values are
// kept as strings in the same form the DATE/TIME columns use
// ("2006-01-02" and "15:04:05"); both times fall on the reservation
// date, so a reservation never crosses midnight.  EndTime is mandatory
// (NOT NULL after the backfill migration) and always later than
// StartTime.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who made the reservation (FK -> users.id, cascade).
//  TableID   – table being reserved (FK -> restaurant_tables.id, restrict).
//  Date      – calendar date of the reservation.
//  StartTime – start of the reserved interval.
//  EndTime   – end of the reserved interval (exclusive).
//  Guests    – number of guests, always > 0.
//  Status    – reservation state (pending, confirmed, cancelled, completed).
//  Notes     – optional free-form notes.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uint64    // reservations.user_id
	TableID   uint64    // reservations.table_id
	Date      string    // reservations.reservation_date
	StartTime string    // reservations.start_time
	EndTime   string    // reservations.end_time
	Guests    uint32    // reservations.number_of_guests
	Status    string    // reservations.status
	Notes     *string   // reservations.notes (nullable)
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}

// ValidReservationStatus reports whether s is one of the enumerated values.
func ValidReservationStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ActiveStatus reports whether a reservation in status s participates in
// the overlap check.
func ActiveStatus(s string) bool {
	return s == StatusPending || s == StatusConfirmed
}
