package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  The
// reservation_date column is a DATE and the two time columns are TIME;
// the model keeps them as "2006-01-02" and "15:04:05" strings.  Methods
// with a Tx suffix run against a caller-provided transaction so the
// booking service can pair the availability check with the write; the
// caller must commit or roll back.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, table_id, reservation_date, start_time, end_time, number_of_guests, status, notes, created_at, updated_at`

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID on the provided record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rv *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, table_id, reservation_date, start_time, end_time, number_of_guests, status, notes)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rv.UserID, rv.TableID, rv.Date, rv.StartTime, rv.EndTime, rv.Guests, rv.Status, rv.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// GetByID retrieves a reservation by its id.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservationRow(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx retrieves a reservation by id within a transaction.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservationRow(tx.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx retrieves a reservation by id and locks its row
// until the transaction ends, so a concurrent delete or rewrite waits
// behind the caller.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	return scanReservationRow(tx.QueryRowContext(ctx, q, id))
}

// ReservationFilter narrows List results.  Nil fields are ignored;
// Statuses with more than one value renders as an IN predicate.
type ReservationFilter struct {
	UserID   *uint64
	TableID  *uint64
	Date     *string
	Statuses []string
}

func (f ReservationFilter) clauses() (string, []interface{}) {
	var parts []string
	var args []interface{}
	if f.UserID != nil {
		parts = append(parts, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.TableID != nil {
		parts = append(parts, "table_id = ?")
		args = append(args, *f.TableID)
	}
	if f.Date != nil {
		parts = append(parts, "reservation_date = ?")
		args = append(args, *f.Date)
	}
	if len(f.Statuses) == 1 {
		parts = append(parts, "status = ?")
		args = append(args, f.Statuses[0])
	} else if len(f.Statuses) > 1 {
		parts = append(parts, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	return strings.Join(parts, " AND "), args
}

// List returns reservations matching the filter ordered by date then
// start time.  An empty filter returns everything.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	where, args := f.clauses()
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY reservation_date, start_time"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ActiveByTableAndDateTx returns the pending and confirmed reservations
// for a table on a date, within a transaction.  This is the read half
// of the availability gate; combined with the FOR UPDATE lock on the
// table row it observes every committed booking for that table.
func (r *ReservationRepo) ActiveByTableAndDateTx(ctx context.Context, tx *sql.Tx, tableID uint64, date string) ([]model.Reservation, error) {
	rows, err := tx.QueryContext(ctx, activeByTableAndDateQuery, tableID, date, model.StatusPending, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ActiveByTableAndDate is the plain-connection variant used by the
// read-only availability endpoint.
func (r *ReservationRepo) ActiveByTableAndDate(ctx context.Context, tableID uint64, date string) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, activeByTableAndDateQuery, tableID, date, model.StatusPending, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

const activeByTableAndDateQuery = `SELECT ` + reservationColumns + `
	FROM reservations
	WHERE table_id = ? AND reservation_date = ? AND status IN (?, ?)
	ORDER BY start_time`

// UpdateTx rewrites all mutable fields of a reservation within a
// transaction and refreshes updated_at.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, id uint64, rv *model.Reservation) error {
	const q = `UPDATE reservations
	           SET user_id=?, table_id=?, reservation_date=?, start_time=?, end_time=?, number_of_guests=?, status=?, notes=?, updated_at=CURRENT_TIMESTAMP
	           WHERE id=?`
	_, err := tx.ExecContext(ctx, q, rv.UserID, rv.TableID, rv.Date, rv.StartTime, rv.EndTime, rv.Guests, rv.Status, rv.Notes, id)
	return err
}

// UpdateStatusTx sets only the status column within a transaction.  The
// caller locks the row first; affected-row counts cannot distinguish a
// missing row from an unchanged one.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, status, id)
	return err
}

// Delete removes a reservation by id.  Deleting an id that no longer
// exists maps to ErrReservationNotFound, so a second delete of the same
// reservation reports not-found instead of erroring the store.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func scanReservationRow(row *sql.Row) (*model.Reservation, error) {
	rv, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return rv, nil
}

func scanReservation(s rowScanner) (*model.Reservation, error) {
	var rv model.Reservation
	var date time.Time
	var notes sql.NullString
	err := s.Scan(&rv.ID, &rv.UserID, &rv.TableID, &date, &rv.StartTime, &rv.EndTime,
		&rv.Guests, &rv.Status, &notes, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// parseTime=true turns DATE columns into time.Time; TIME columns
	// arrive as plain strings.
	rv.Date = date.Format("2006-01-02")
	if notes.Valid {
		n := notes.String
		rv.Notes = &n
	}
	return &rv, nil
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for rows.Next() {
		rv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rv)
	}
	return out, rows.Err()
}
