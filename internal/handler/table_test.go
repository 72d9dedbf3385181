package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

var (
	tableTestCols       = []string{"id", "table_number", "capacity", "table_type", "status", "location", "description", "is_active", "created_at", "updated_at"}
	reservationTestCols = []string{"id", "user_id", "table_id", "reservation_date", "start_time", "end_time", "number_of_guests", "status", "notes", "created_at", "updated_at"}
)

func newTableHandler(t *testing.T) (*TableHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	tables := repository.NewTableRepo(db)
	reservations := repository.NewReservationRepo(db)
	return NewTableHandler(tables, booking.NewChecker(tables, reservations)), mock, func() { db.Close() }
}

func availabilityRequest(target string, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/tables/:id/availability")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestTableAvailability(t *testing.T) {
	t.Run("free window", func(t *testing.T) {
		h, mock, done := newTableHandler(t)
		defer done()
		now := time.Now()
		mock.ExpectQuery("FROM restaurant_tables WHERE id").WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(tableTestCols).
				AddRow(3, "T-3", 4, "standard", "available", nil, nil, true, now, now))
		mock.ExpectQuery("FROM reservations WHERE table_id").
			WithArgs(uint64(3), "2026-09-15", "pending", "confirmed").
			WillReturnRows(sqlmock.NewRows(reservationTestCols))

		c, rec := availabilityRequest("/?date=2026-09-15&start=19:00&end=21:00", "3")
		require.NoError(t, h.Availability(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["available"])
		assert.Equal(t, true, body["table_exists"])
		assert.Equal(t, true, body["table_active"])
		assert.NotContains(t, body, "conflict")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflicting window includes the blocker", func(t *testing.T) {
		h, mock, done := newTableHandler(t)
		defer done()
		now := time.Now()
		date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery("FROM restaurant_tables WHERE id").WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(tableTestCols).
				AddRow(3, "T-3", 4, "standard", "available", nil, nil, true, now, now))
		mock.ExpectQuery("FROM reservations WHERE table_id").
			WithArgs(uint64(3), "2026-09-15", "pending", "confirmed").
			WillReturnRows(sqlmock.NewRows(reservationTestCols).
				AddRow(41, 7, 3, date, "18:00:00", "20:00:00", 2, "confirmed", nil, now, now))

		c, rec := availabilityRequest("/?date=2026-09-15&start=19:00&end=21:00", "3")
		require.NoError(t, h.Availability(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["available"])
		conflict, ok := body["conflict"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(41), conflict["reservation_id"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects reversed interval before touching the store", func(t *testing.T) {
		h, mock, done := newTableHandler(t)
		defer done()

		c, rec := availabilityRequest("/?date=2026-09-15&start=21:00&end=19:00", "3")
		require.NoError(t, h.Availability(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		h, mock, done := newTableHandler(t)
		defer done()

		c, rec := availabilityRequest("/?date=tomorrow&start=19:00&end=21:00", "3")
		require.NoError(t, h.Availability(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing table still answers 200", func(t *testing.T) {
		h, mock, done := newTableHandler(t)
		defer done()
		mock.ExpectQuery("FROM restaurant_tables WHERE id").WithArgs(uint64(9)).
			WillReturnRows(sqlmock.NewRows(tableTestCols))

		c, rec := availabilityRequest("/?date=2026-09-15&start=19:00&end=21:00", "9")
		require.NoError(t, h.Availability(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, false, body["table_exists"])
		assert.Equal(t, false, body["available"])
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
