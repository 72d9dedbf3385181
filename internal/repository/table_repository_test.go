package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

var tableTestCols = []string{"id", "table_number", "capacity", "table_type", "status", "location", "description", "is_active", "created_at", "updated_at"}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?", placeholders(2))
	assert.Equal(t, "?,?,?,?", placeholders(4))
}

func TestMySQLErrorClassifiers(t *testing.T) {
	dup := errors.New("Error 1062 (23000): Duplicate entry 'T-1' for key 'table_number'")
	fk := errors.New("Error 1451 (23000): Cannot delete or update a parent row: a foreign key constraint fails")
	assert.True(t, isDuplicateKey(dup))
	assert.False(t, isDuplicateKey(fk))
	assert.True(t, isRestrictedDelete(fk))
	assert.False(t, isRestrictedDelete(dup))
	assert.False(t, isDuplicateKey(nil))
}

func TestTableRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTableRepo(db)

	t.Run("populates generated id", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO restaurant_tables").
			WithArgs("T-9", uint32(4), "standard", "available", nil, nil, true).
			WillReturnResult(sqlmock.NewResult(9, 1))

		tbl := &model.Table{Number: "T-9", Capacity: 4, Type: "standard", Status: "available", IsActive: true}
		require.NoError(t, repo.Create(context.Background(), tbl))
		assert.Equal(t, uint64(9), tbl.ID)
	})

	t.Run("duplicate number maps to sentinel", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO restaurant_tables").
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'T-9'"))

		tbl := &model.Table{Number: "T-9", Capacity: 4, Type: "standard", Status: "available", IsActive: true}
		assert.ErrorIs(t, repo.Create(context.Background(), tbl), ErrTableNumberExists)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTableRepo(db)
	now := time.Now()

	t.Run("combined filter renders IN and capacity clauses", func(t *testing.T) {
		active := true
		mock.ExpectQuery(`is_active = \? AND table_type IN \(\?,\?\) AND capacity >= \? ORDER BY table_number`).
			WithArgs(true, "vip", "window", uint32(4)).
			WillReturnRows(sqlmock.NewRows(tableTestCols).
				AddRow(2, "T-2", 6, "vip", "available", "mezzanine", nil, true, now, now))

		out, err := repo.List(context.Background(), TableFilter{IsActive: &active, Types: []string{"vip", "window"}, MinCapacity: 4})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "T-2", out[0].Number)
		require.NotNil(t, out[0].Location)
		assert.Equal(t, "mezzanine", *out[0].Location)
		assert.Nil(t, out[0].Description)
	})

	t.Run("empty filter lists everything", func(t *testing.T) {
		mock.ExpectQuery(`FROM restaurant_tables ORDER BY table_number`).
			WillReturnRows(sqlmock.NewRows(tableTestCols))
		out, err := repo.List(context.Background(), TableFilter{})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTableRepo(db)

	t.Run("referenced table maps to sentinel", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM restaurant_tables").WithArgs(uint64(3)).
			WillReturnError(errors.New("Error 1451 (23000): Cannot delete or update a parent row"))
		assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrTableHasReservations)
	})

	t.Run("missing table maps to sentinel", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM restaurant_tables").WithArgs(uint64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(context.Background(), 404), ErrTableNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
