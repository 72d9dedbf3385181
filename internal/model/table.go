package model

import "time"

// Table statuses.  The status column is informational only: whether a
// table can actually be booked is decided by the availability check over
// its reservations, never by this value.
const (
	TableAvailable = "available"
	TableReserved  = "reserved"
	TableOccupied  = "occupied"
)

// Common table types.  The set is open: admins may register tables with
// other type strings, these are just the values the UI knows about.
const (
	TableTypeStandard = "standard"
	TableTypeVIP      = "vip"
	TableTypeWindow   = "window"
	TableTypeOutdoor  = "outdoor"
)

// Table describes a physical restaurant table as stored in the
// `restaurant_tables` table.  Tables are uniquely identified by their
// number.  A table with IsActive=false exists but is never eligible for
// new reservations.
//
// Fields:
//  ID          – primary key identifier.
//  Number      – unique table number shown to guests (e.g. "12", "T-3").
//  Capacity    – number of seats, always > 0.
//  Type        – table type (standard, vip, window, outdoor, ...).
//  Status      – informational status (available, reserved, occupied).
//  Location    – optional placement hint (e.g. main_hall, terrace).
//  Description – optional free-form description.
//  IsActive    – soft availability flag; inactive tables cannot be booked.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Table struct {
	ID          uint64    // restaurant_tables.id
	Number      string    // restaurant_tables.table_number
	Capacity    uint32    // restaurant_tables.capacity
	Type        string    // restaurant_tables.table_type
	Status      string    // restaurant_tables.status
	Location    *string   // restaurant_tables.location (nullable)
	Description *string   // restaurant_tables.description (nullable)
	IsActive    bool      // restaurant_tables.is_active
	CreatedAt   time.Time // restaurant_tables.created_at
	UpdatedAt   time.Time // restaurant_tables.updated_at
}

// ValidTableStatus reports whether s is one of the enumerated status values.
func ValidTableStatus(s string) bool {
	return s == TableAvailable || s == TableReserved || s == TableOccupied
}
