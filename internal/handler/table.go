package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// TableHandler serves public table browsing, the availability endpoint
// and the admin table management endpoints.
type TableHandler struct {
	Tables  *repository.TableRepo
	Checker *booking.Checker
}

func NewTableHandler(tables *repository.TableRepo, checker *booking.Checker) *TableHandler {
	if tables == nil || checker == nil {
		panic("nil dependency passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables, Checker: checker}
}

type tableReq struct {
	Number      string  `json:"table_number"`
	Capacity    uint32  `json:"capacity"`
	Type        string  `json:"table_type"`
	Status      string  `json:"status"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type tableResp struct {
	ID          uint64  `json:"id"`
	Number      string  `json:"table_number"`
	Capacity    uint32  `json:"capacity"`
	Type        string  `json:"table_type"`
	Status      string  `json:"status"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
}

func toTableResp(t *model.Table) tableResp {
	return tableResp{
		ID: t.ID, Number: t.Number, Capacity: t.Capacity, Type: t.Type,
		Status: t.Status, Location: t.Location, Description: t.Description,
		IsActive: t.IsActive,
	}
}

// List handles GET /v1/tables.  Guests see only active tables; admins
// may pass ?active=false to inspect disabled ones.  Optional filters:
// ?type=vip,window and ?min_capacity=4.
func (h *TableHandler) List(c echo.Context) error {
	var f repository.TableFilter
	active := true
	if v := c.QueryParam("active"); v != "" && isAdmin(c) {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid active"})
		}
		active = b
	}
	f.IsActive = &active
	if v := c.QueryParam("type"); v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, t)
			}
		}
	}
	if v := c.QueryParam("min_capacity"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_capacity"})
		}
		f.MinCapacity = uint32(n)
	}

	tables, err := h.Tables.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]tableResp, 0, len(tables))
	for i := range tables {
		out = append(out, toTableResp(&tables[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTableResp(t))
}

// Availability handles GET /v1/tables/:id/availability?date=&start=&end=.
// It exposes the structured checker result so a UI can tell apart
// "table missing", "table inactive" and "time taken".  The optional
// exclude parameter removes one reservation from consideration, for
// re-checking a booking being edited.
func (h *TableHandler) Availability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	date, err := booking.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	start := c.QueryParam("start")
	end := c.QueryParam("end")
	startMin, err := booking.ParseClock(start)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be HH:MM"})
	}
	endMin, err := booking.ParseClock(end)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be HH:MM"})
	}
	// The checker requires end > start; ordering is validated here.
	if endMin <= startMin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be after start"})
	}
	var excludeID uint64
	if v := c.QueryParam("exclude"); v != "" {
		excludeID, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exclude"})
		}
	}

	res, err := h.Checker.Check(c.Request().Context(), id, date, start, end, excludeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
	}
	body := echo.Map{
		"available":    res.Available,
		"table_exists": res.TableExists,
		"table_active": res.TableActive,
	}
	if res.Conflict != nil {
		body["conflict"] = echo.Map{
			"reservation_id": res.Conflict.ID,
			"user_id":        res.Conflict.UserID,
			"start_time":     res.Conflict.StartTime,
			"end_time":       res.Conflict.EndTime,
		}
	}
	return c.JSON(http.StatusOK, body)
}

// Create handles POST /v1/admin/tables.
func (h *TableHandler) Create(c echo.Context) error {
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Number = strings.TrimSpace(req.Number)
	if req.Number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number required"})
	}
	if req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	t := model.Table{
		Number:      req.Number,
		Capacity:    req.Capacity,
		Type:        model.TableTypeStandard,
		Status:      model.TableAvailable,
		Location:    req.Location,
		Description: req.Description,
		IsActive:    true,
	}
	if req.Type != "" {
		t.Type = req.Type
	}
	if req.Status != "" {
		if !model.ValidTableStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		t.Status = req.Status
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := h.Tables.Create(c.Request().Context(), &t); err != nil {
		if errors.Is(err, repository.ErrTableNumberExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create table failed"})
	}
	return c.JSON(http.StatusCreated, toTableResp(&t))
}

// Update handles PUT /v1/admin/tables/:id.
func (h *TableHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Number = strings.TrimSpace(req.Number)
	if req.Number == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number and positive capacity required"})
	}
	if req.Status != "" && !model.ValidTableStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx := c.Request().Context()
	current, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	t := *current
	t.Number = req.Number
	t.Capacity = req.Capacity
	if req.Type != "" {
		t.Type = req.Type
	}
	if req.Status != "" {
		t.Status = req.Status
	}
	t.Location = req.Location
	t.Description = req.Description
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := h.Tables.Update(ctx, id, &t); err != nil {
		switch {
		case errors.Is(err, repository.ErrTableNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		case errors.Is(err, repository.ErrTableNumberExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update table failed"})
	}
	t.ID = id
	return c.JSON(http.StatusOK, toTableResp(&t))
}

// Delete handles DELETE /v1/admin/tables/:id.  Deletion is rejected
// while reservations still reference the table.
func (h *TableHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Tables.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrTableNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		case errors.Is(err, repository.ErrTableHasReservations):
			return c.JSON(http.StatusConflict, echo.Map{"error": "table has reservations"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete table failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
