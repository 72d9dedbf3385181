package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// AvailabilityResult is the structured outcome of an availability check.
// A single boolean is not enough: callers need to distinguish "table
// does not exist" from "table is inactive" from "time taken" to render
// a specific message.
type AvailabilityResult struct {
	Available   bool
	TableExists bool
	TableActive bool
	Conflict    *model.Reservation
}

// Checker decides whether a table is free for a half-open time interval
// on a given date.  It never re-validates interval ordering: callers
// must pass end > start.  On any underlying lookup failure it fails
// closed, reporting the table as unavailable via the returned error.
type Checker struct {
	Tables       *repository.TableRepo
	Reservations *repository.ReservationRepo
}

// NewChecker constructs a Checker over the two repositories it reads.
func NewChecker(tables *repository.TableRepo, reservations *repository.ReservationRepo) *Checker {
	return &Checker{Tables: tables, Reservations: reservations}
}

// Check runs the availability check on a plain connection.  It is the
// read-only variant used for pre-checks and the availability endpoint;
// its verdict can go stale the moment it is returned, so reservation
// writes must use CheckTx inside their own transaction instead.
// excludeID removes one reservation from consideration (0 = none).
func (ch *Checker) Check(ctx context.Context, tableID uint64, date, start, end string, excludeID uint64) (AvailabilityResult, error) {
	table, err := ch.Tables.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return AvailabilityResult{}, nil
		}
		return AvailabilityResult{}, err
	}
	if !table.IsActive {
		return AvailabilityResult{TableExists: true}, nil
	}
	existing, err := ch.Reservations.ActiveByTableAndDate(ctx, tableID, date)
	if err != nil {
		return AvailabilityResult{TableExists: true, TableActive: true}, err
	}
	return resolveConflict(existing, start, end, excludeID)
}

// CheckTx runs the same check inside a caller-owned transaction and
// locks the table row for its duration.  With every reservation write
// funneled through the same lock, two concurrent bookings for one table
// serialize and the second observes the first's row.
func (ch *Checker) CheckTx(ctx context.Context, tx *sql.Tx, tableID uint64, date, start, end string, excludeID uint64) (AvailabilityResult, error) {
	table, err := ch.Tables.GetByIDForUpdateTx(ctx, tx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return AvailabilityResult{}, nil
		}
		return AvailabilityResult{}, err
	}
	if !table.IsActive {
		return AvailabilityResult{TableExists: true}, nil
	}
	existing, err := ch.Reservations.ActiveByTableAndDateTx(ctx, tx, tableID, date)
	if err != nil {
		return AvailabilityResult{TableExists: true, TableActive: true}, err
	}
	return resolveConflict(existing, start, end, excludeID)
}

func resolveConflict(existing []model.Reservation, start, end string, excludeID uint64) (AvailabilityResult, error) {
	res := AvailabilityResult{TableExists: true, TableActive: true}
	candStart, err := ParseClock(start)
	if err != nil {
		return res, err
	}
	candEnd, err := ParseClock(end)
	if err != nil {
		return res, err
	}
	for i := range existing {
		rv := &existing[i]
		if excludeID != 0 && rv.ID == excludeID {
			continue
		}
		exStart, err := ParseClock(rv.StartTime)
		if err != nil {
			return res, fmt.Errorf("reservation %d: %w", rv.ID, err)
		}
		exEnd, err := ParseClock(rv.EndTime)
		if err != nil {
			return res, fmt.Errorf("reservation %d: %w", rv.ID, err)
		}
		if Overlaps(candStart, candEnd, exStart, exEnd) {
			res.Conflict = rv
			return res, nil
		}
	}
	res.Available = true
	return res, nil
}

// Overlaps reports whether the half-open minute intervals [aStart,aEnd)
// and [bStart,bEnd) intersect.  Back-to-back intervals (one ending
// exactly when the other starts) do not overlap, so a table can be
// booked 19:00-21:00 and again 21:00-22:00.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// ParseClock converts an "HH:MM" or "HH:MM:SS" wall-clock string into
// minutes since midnight.  The seconds form is accepted because MySQL
// TIME columns round-trip as "15:04:05"; seconds are truncated.
func ParseClock(s string) (int, error) {
	layout := "15:04"
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("bad clock value %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDate validates a "2006-01-02" calendar date string and returns
// it in canonical form.
func ParseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("bad date value %q: %w", s, err)
	}
	return t.Format("2006-01-02"), nil
}
