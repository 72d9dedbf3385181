package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

// UserRepo provides CRUD access to the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, password_hash, full_name, phone, role, is_active, created_at, updated_at"

// Create hashes the password and inserts a new user, returning its ID.
// The email is normalized to lower case before insertion; a duplicate
// maps to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName string, phone *string, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, phone, role) VALUES (?,?,?,?,?)",
		email, hash, fullName, phone, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UserFilter narrows List results.  Nil fields are ignored; Roles with
// more than one value renders as an IN predicate.
type UserFilter struct {
	Roles    []string
	IsActive *bool
}

// List returns users matching the filter ordered by id.
func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users"
	where, args := f.clauses()
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY id"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		var phone sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &phone,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if phone.Valid {
			p := phone.String
			u.Phone = &p
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update rewrites the mutable fields of a user.  The password hash is
// not touched here; use UpdatePassword for that.  Returns
// ErrUserNotFound when the id does not exist and ErrEmailExists when the
// new email collides with another account.
func (r *UserRepo) Update(ctx context.Context, id uint64, email, fullName string, phone *string, role string, isActive bool) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email=?, full_name=?, phone=?, role=?, is_active=?, updated_at=CURRENT_TIMESTAMP
		 WHERE id=?`,
		email, fullName, phone, role, isActive, id)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "no such row" from "row unchanged".
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user by id.  Reservations owned by the user are
// removed by the cascading foreign key.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	var phone sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &phone,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if phone.Valid {
		p := phone.String
		u.Phone = &p
	}
	return u, nil
}

func (f UserFilter) clauses() (string, []interface{}) {
	var parts []string
	var args []interface{}
	if len(f.Roles) == 1 {
		parts = append(parts, "role = ?")
		args = append(args, f.Roles[0])
	} else if len(f.Roles) > 1 {
		parts = append(parts, "role IN ("+placeholders(len(f.Roles))+")")
		for _, role := range f.Roles {
			args = append(args, role)
		}
	}
	if f.IsActive != nil {
		parts = append(parts, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	return strings.Join(parts, " AND "), args
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isRestrictedDelete reports whether err is a MySQL foreign-key
// restriction error (1451: cannot delete a parent row).
func isRestrictedDelete(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1451")
}
