package booking

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{"disjoint before", 10 * 60, 11 * 60, 12 * 60, 13 * 60, false},
		{"disjoint after", 12 * 60, 13 * 60, 10 * 60, 11 * 60, false},
		{"back to back", 19 * 60, 21 * 60, 21 * 60, 22 * 60, false},
		{"back to back reversed", 21 * 60, 22 * 60, 19 * 60, 21 * 60, false},
		{"identical", 19 * 60, 21 * 60, 19 * 60, 21 * 60, true},
		{"partial overlap", 19 * 60, 21 * 60, 20 * 60, 22 * 60, true},
		{"contained", 19 * 60, 22 * 60, 20 * 60, 21 * 60, true},
		{"containing", 20 * 60, 21 * 60, 19 * 60, 22 * 60, true},
		{"one minute shared", 19*60 + 59, 21 * 60, 19 * 60, 20 * 60, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd)
			assert.Equal(t, tc.want, got)
			// Overlap is symmetric in the two intervals.
			assert.Equal(t, got, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"19:00", 19 * 60, false},
		{"19:00:00", 19 * 60, false},
		{"00:00", 0, false},
		{"23:59", 23*60 + 59, false},
		{"19:30:45", 19*60 + 30, false}, // seconds are dropped
		{"25:00", 0, true},
		{"19:61", 0, true},
		{"7pm", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-15", got)

	for _, bad := range []string{"2026-13-01", "15/09/2026", "tomorrow", ""} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

var (
	tableCols       = []string{"id", "table_number", "capacity", "table_type", "status", "location", "description", "is_active", "created_at", "updated_at"}
	reservationCols = []string{"id", "user_id", "table_id", "reservation_date", "start_time", "end_time", "number_of_guests", "status", "notes", "created_at", "updated_at"}
)

func tableRow(id uint64, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tableCols).
		AddRow(id, "T-1", 4, "standard", "available", nil, nil, active, now, now)
}

func reservationRow(rows *sqlmock.Rows, id, userID, tableID uint64, date time.Time, start, end, status string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, userID, tableID, date, start, end, 2, status, nil, now, now)
}

func newChecker(t *testing.T) (*Checker, *sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	ch := NewChecker(repository.NewTableRepo(db), repository.NewReservationRepo(db))
	return ch, db, mock, func() { db.Close() }
}

const (
	tableByIDPattern     = `SELECT (.+) FROM restaurant_tables WHERE id = \?`
	activeByTablePattern = `SELECT (.+) FROM reservations WHERE table_id = \? AND reservation_date = \? AND status IN \(\?, \?\)`
)

func TestCheckerCheck(t *testing.T) {
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	t.Run("table missing", func(t *testing.T) {
		ch, _, mock, done := newChecker(t)
		defer done()
		mock.ExpectQuery(tableByIDPattern).WithArgs(uint64(9)).
			WillReturnRows(sqlmock.NewRows(tableCols))

		res, err := ch.Check(context.Background(), 9, "2026-09-15", "19:00", "21:00", 0)
		require.NoError(t, err)
		assert.False(t, res.TableExists)
		assert.False(t, res.Available)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("table inactive", func(t *testing.T) {
		ch, _, mock, done := newChecker(t)
		defer done()
		mock.ExpectQuery(tableByIDPattern).WithArgs(uint64(3)).
			WillReturnRows(tableRow(3, false))

		res, err := ch.Check(context.Background(), 3, "2026-09-15", "19:00", "21:00", 0)
		require.NoError(t, err)
		assert.True(t, res.TableExists)
		assert.False(t, res.TableActive)
		assert.False(t, res.Available)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no reservations", func(t *testing.T) {
		ch, _, mock, done := newChecker(t)
		defer done()
		mock.ExpectQuery(tableByIDPattern).WithArgs(uint64(3)).
			WillReturnRows(tableRow(3, true))
		mock.ExpectQuery(activeByTablePattern).
			WithArgs(uint64(3), "2026-09-15", "pending", "confirmed").
			WillReturnRows(sqlmock.NewRows(reservationCols))

		res, err := ch.Check(context.Background(), 3, "2026-09-15", "19:00", "21:00", 0)
		require.NoError(t, err)
		assert.True(t, res.Available)
		assert.Nil(t, res.Conflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overlap reports conflict", func(t *testing.T) {
		ch, _, mock, done := newChecker(t)
		defer done()
		mock.ExpectQuery(tableByIDPattern).WithArgs(uint64(3)).
			WillReturnRows(tableRow(3, true))
		rows := reservationRow(sqlmock.NewRows(reservationCols), 41, 7, 3, date, "18:00:00", "20:00:00", "confirmed")
		mock.ExpectQuery(activeByTablePattern).
			WithArgs(uint64(3), "2026-09-15", "pending", "confirmed").
			WillReturnRows(rows)

		res, err := ch.Check(context.Background(), 3, "2026-09-15", "19:00", "21:00", 0)
		require.NoError(t, err)
		assert.False(t, res.Available)
		require.NotNil(t, res.Conflict)
		assert.Equal(t, uint64(41), res.Conflict.ID)
		assert.Equal(t, uint64(7), res.Conflict.UserID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("back to back is free", func(t *testing.T) {
		ch, _, mock, done := newChecker(t)
		defer done()
		mock.ExpectQuery(tableByIDPattern).WithArgs(uint64(3)).
			WillReturnRows(tableRow(3, true))
		rows := reservationRow(sqlmock.NewRows(reservationCols), 41, 7, 3, date, "17:00:00", "19:00:00", "pending")
		mock.ExpectQuery(activeByTablePattern).
			WithArgs(uint64(3), "2026-09-15", "pending", "confirmed").
			WillReturnRows(rows)

		res, err := ch.Check(context.Background(), 3, "2026-09-15", "19:00", "21:00", 0)
		require.NoError(t, err)
		assert.True(t, res.Available)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("excluded reservation does not conflict with itself", func(t *testing.T) {
		ch, _, mock, done := newChecker(t)
		defer done()
		mock.ExpectQuery(tableByIDPattern).WithArgs(uint64(3)).
			WillReturnRows(tableRow(3, true))
		rows := reservationRow(sqlmock.NewRows(reservationCols), 41, 7, 3, date, "19:00:00", "21:00:00", "confirmed")
		mock.ExpectQuery(activeByTablePattern).
			WithArgs(uint64(3), "2026-09-15", "pending", "confirmed").
			WillReturnRows(rows)

		res, err := ch.Check(context.Background(), 3, "2026-09-15", "19:30", "21:00", 41)
		require.NoError(t, err)
		assert.True(t, res.Available)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCheckerCheckTxLocksTableRow(t *testing.T) {
	ch, db, mock, done := newChecker(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(3)).
		WillReturnRows(tableRow(3, true))
	mock.ExpectQuery(activeByTablePattern).
		WithArgs(uint64(3), "2026-09-15", "pending", "confirmed").
		WillReturnRows(sqlmock.NewRows(reservationCols))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	res, err := ch.CheckTx(context.Background(), tx, 3, "2026-09-15", "19:00", "21:00", 0)
	require.NoError(t, err)
	assert.True(t, res.Available)
	require.NoError(t, mock.ExpectationsWereMet())
}
