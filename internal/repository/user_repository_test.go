package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userTestCols = []string{"id", "email", "password_hash", "full_name", "phone", "role", "is_active", "created_at", "updated_at"}

func TestUserRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	t.Run("normalizes email to lower case", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs("anna@example.com", sqlmock.AnyArg(), "Anna", nil, "client").
			WillReturnResult(sqlmock.NewResult(12, 1))

		id, err := repo.Create(context.Background(), "  Anna@Example.COM ", "s3cretpass", "Anna", nil, "client", bcrypt.MinCost)
		require.NoError(t, err)
		assert.Equal(t, uint64(12), id)
	})

	t.Run("duplicate email maps to sentinel", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'anna@example.com'"))

		_, err := repo.Create(context.Background(), "anna@example.com", "s3cretpass", "Anna", nil, "client", bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)
	now := time.Now()

	t.Run("by email lowercases the lookup", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE email").WithArgs("anna@example.com").
			WillReturnRows(sqlmock.NewRows(userTestCols).
				AddRow(12, "anna@example.com", "$2a$10$hash", "Anna", nil, "client", true, now, now))

		u, err := repo.GetByEmail(context.Background(), "Anna@Example.com")
		require.NoError(t, err)
		assert.Equal(t, uint64(12), u.ID)
		assert.Nil(t, u.Phone)
	})

	t.Run("missing id maps to sentinel", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE id").WithArgs(uint64(404)).
			WillReturnRows(sqlmock.NewRows(userTestCols))

		_, err := repo.GetByID(context.Background(), 404)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserFilterList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	active := true
	mock.ExpectQuery(`role IN \(\?,\?\) AND is_active = \?`).
		WithArgs("client", "admin", true).
		WillReturnRows(sqlmock.NewRows(userTestCols))

	out, err := repo.List(context.Background(), UserFilter{Roles: []string{"client", "admin"}, IsActive: &active})
	require.NoError(t, err)
	assert.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}
