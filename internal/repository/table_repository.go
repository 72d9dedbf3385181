package repository // repository defines data access for restaurant tables

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableRepo provides methods to work with restaurant tables in the
// database.  Table rows double as the lock anchor for reservation
// writes: GetByIDForUpdateTx takes a row lock so that concurrent
// bookings against the same table serialize.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

const tableColumns = `id, table_number, capacity, table_type, status, location, description, is_active, created_at, updated_at`

// Create inserts a single table record.  On success the table's ID is
// populated.  A duplicate table number maps to ErrTableNumberExists.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO restaurant_tables (table_number, capacity, table_type, status, location, description, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Number, t.Capacity, t.Type, t.Status, t.Location, t.Description, t.IsActive)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrTableNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID retrieves a table by its id.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = ?`
	return scanTable(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx retrieves a table by id within a transaction,
// locking the row until the transaction ends.  Reservation writes go
// through this lock so an availability check and the subsequent insert
// behave as one atomic unit per table.
func (r *TableRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = ? FOR UPDATE`
	return scanTable(tx.QueryRowContext(ctx, q, id))
}

// TableFilter narrows List results.  Nil fields are ignored; Types with
// more than one value renders as an IN predicate.
type TableFilter struct {
	IsActive    *bool
	Types       []string
	MinCapacity uint32
}

// List returns tables matching the filter ordered by table number.
func (r *TableRepo) List(ctx context.Context, f TableFilter) ([]model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM restaurant_tables`
	var parts []string
	var args []interface{}
	if f.IsActive != nil {
		parts = append(parts, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	if len(f.Types) == 1 {
		parts = append(parts, "table_type = ?")
		args = append(args, f.Types[0])
	} else if len(f.Types) > 1 {
		parts = append(parts, "table_type IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, t)
		}
	}
	if f.MinCapacity > 0 {
		parts = append(parts, "capacity >= ?")
		args = append(args, f.MinCapacity)
	}
	if len(parts) > 0 {
		q += " WHERE " + strings.Join(parts, " AND ")
	}
	q += " ORDER BY table_number"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTableRows(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

// Update rewrites all mutable fields of a table.  Returns
// ErrTableNotFound when the id does not exist and ErrTableNumberExists
// when the new number collides with another table.
func (r *TableRepo) Update(ctx context.Context, id uint64, t *model.Table) error {
	const q = `UPDATE restaurant_tables
	           SET table_number=?, capacity=?, table_type=?, status=?, location=?, description=?, is_active=?, updated_at=CURRENT_TIMESTAMP
	           WHERE id=?`
	res, err := r.db.ExecContext(ctx, q, t.Number, t.Capacity, t.Type, t.Status, t.Location, t.Description, t.IsActive, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrTableNumberExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a table by id.  The reservations foreign key is
// declared ON DELETE RESTRICT, so a table that is still referenced maps
// to ErrTableHasReservations.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE id = ?`, id)
	if err != nil {
		if isRestrictedDelete(err) {
			return ErrTableHasReservations
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTable(row *sql.Row) (*model.Table, error) {
	t, err := scanTableRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTableRows(s rowScanner) (*model.Table, error) {
	var t model.Table
	var location, description sql.NullString
	err := s.Scan(&t.ID, &t.Number, &t.Capacity, &t.Type, &t.Status,
		&location, &description, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if location.Valid {
		l := location.String
		t.Location = &l
	}
	if description.Valid {
		d := description.String
		t.Description = &d
	}
	return &t, nil
}
