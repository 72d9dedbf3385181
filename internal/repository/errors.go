// Package repository implements data access for users, restaurant
// tables and reservations over database/sql.  This file defines the
// sentinel errors shared across repositories so that higher layers can
// distinguish failure scenarios with errors.Is instead of inspecting
// driver-specific error strings.
package repository

import "errors"

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when an insert or update would violate the
// unique constraint on users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrTableNotFound is returned when a restaurant table lookup yields no rows.
var ErrTableNotFound = errors.New("table not found")

// ErrTableNumberExists is returned when an insert or update would
// violate the unique constraint on restaurant_tables.table_number.
var ErrTableNumberExists = errors.New("table number already exists")

// ErrTableHasReservations is returned when deleting a table is rejected
// by the restrict foreign key because reservations still reference it.
var ErrTableHasReservations = errors.New("table has reservations")

// ErrReservationNotFound is returned when a reservation lookup or a
// delete/update by id affects no rows.
var ErrReservationNotFound = errors.New("reservation not found")
