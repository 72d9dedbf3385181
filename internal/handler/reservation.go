package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.  All
// booking decisions live in the service; the handler's job is binding,
// ownership checks and translating the service error taxonomy into
// status codes a UI can act on.
type ReservationHandler struct {
	Svc          *booking.Service
	Reservations *repository.ReservationRepo
	Tables       *repository.TableRepo

	// publish delivers a confirmation event to the broker.  Tests swap
	// it for a capture function.
	publish func(context.Context, queue.ReservationConfirmedEvent) error
}

func NewReservationHandler(svc *booking.Service, reservations *repository.ReservationRepo, tables *repository.TableRepo) *ReservationHandler {
	if svc == nil || reservations == nil || tables == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Svc:          svc,
		Reservations: reservations,
		Tables:       tables,
		publish:      queue_publisher.PublishReservationConfirmed,
	}
}

type reservationReq struct {
	TableID   uint64  `json:"table_id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Guests    uint32  `json:"number_of_guests"`
	Status    string  `json:"status"`
	Notes     *string `json:"notes"`
}

type reservationResp struct {
	ID        uint64  `json:"id"`
	UserID    uint64  `json:"user_id"`
	TableID   uint64  `json:"table_id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Guests    uint32  `json:"number_of_guests"`
	Status    string  `json:"status"`
	Notes     *string `json:"notes,omitempty"`
}

func toReservationResp(rv *model.Reservation) reservationResp {
	return reservationResp{
		ID: rv.ID, UserID: rv.UserID, TableID: rv.TableID, Date: rv.Date,
		StartTime: rv.StartTime, EndTime: rv.EndTime, Guests: rv.Guests,
		Status: rv.Status, Notes: rv.Notes,
	}
}

// rejectionResponse maps a booking service error to an HTTP response
// with a machine-distinguishable reason.
func rejectionResponse(c echo.Context, err error) error {
	var vErr *booking.ValidationError
	var cErr *booking.ConflictError
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "field": vErr.Field, "message": vErr.Reason})
	case errors.Is(err, booking.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table_not_found"})
	case errors.Is(err, booking.ErrTableInactive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table_inactive"})
	case errors.As(err, &cErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                        "time_conflict",
			"conflicting_reservation_id":   cErr.ReservationID,
			"conflicting_reservation_user": cErr.UserID,
		})
	case errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation_not_found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// Create handles POST /v1/reservations.  New reservations always start
// as pending regardless of any status supplied by the client.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	id, err := h.Svc.Create(c.Request().Context(), booking.Draft{
		UserID:    uid,
		TableID:   req.TableID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Guests:    req.Guests,
		Status:    model.StatusPending,
		Notes:     req.Notes,
	})
	if err != nil {
		return rejectionResponse(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "status": model.StatusPending})
}

// List handles GET /v1/reservations.  Clients see their own
// reservations; admins see everything and may filter by ?user_id=,
// ?table_id=, ?date= and ?status= (comma-separated list).
func (h *ReservationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var f repository.ReservationFilter
	if isAdmin(c) {
		if v := c.QueryParam("user_id"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
			}
			f.UserID = &n
		}
	} else {
		f.UserID = &uid
	}
	if v := c.QueryParam("table_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table_id"})
		}
		f.TableID = &n
	}
	if v := c.QueryParam("date"); v != "" {
		d, err := booking.ParseDate(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		f.Date = &d
	}
	if v := c.QueryParams()["status"]; len(v) > 0 {
		for _, s := range v {
			if !model.ValidReservationStatus(s) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
			}
			f.Statuses = append(f.Statuses, s)
		}
	}

	list, err := h.Reservations.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]reservationResp, 0, len(list))
	for i := range list {
		out = append(out, toReservationResp(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/reservations/:id.  Clients may only read their
// own reservations.
func (h *ReservationHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	rv, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return rejectionResponse(c, err)
	}
	if rv.UserID != uid && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toReservationResp(rv))
}

// Update handles PUT /v1/reservations/:id.  The reservation is
// re-checked against the availability gate with itself excluded, so
// shrinking or shifting a booking within its own old window succeeds.
// Clients may only update their own reservations and cannot change the
// owner; admins may update any and set any status.
func (h *ReservationHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	current, err := h.Svc.Get(ctx, id)
	if err != nil {
		return rejectionResponse(c, err)
	}
	admin := isAdmin(c)
	if current.UserID != uid && !admin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	status := current.Status
	if req.Status != "" {
		if !admin && req.Status != model.StatusCancelled {
			// Clients may cancel; other transitions are for staff.
			return c.JSON(http.StatusForbidden, echo.Map{"error": "status change not allowed"})
		}
		status = req.Status
	}

	draft := booking.Draft{
		UserID:    current.UserID,
		TableID:   req.TableID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Guests:    req.Guests,
		Status:    status,
		Notes:     req.Notes,
	}
	if err := h.Svc.Update(ctx, id, draft); err != nil {
		return rejectionResponse(c, err)
	}
	if status == model.StatusConfirmed && current.Status != model.StatusConfirmed {
		h.publishConfirmed(ctx, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

// SetStatus handles PATCH /v1/admin/reservations/:id/status.  A
// status-only edit deliberately bypasses the availability gate; see the
// service documentation.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
	}

	ctx := c.Request().Context()
	current, err := h.Svc.Get(ctx, id)
	if err != nil {
		return rejectionResponse(c, err)
	}
	if err := h.Svc.UpdateStatus(ctx, id, req.Status); err != nil {
		return rejectionResponse(c, err)
	}
	if req.Status == model.StatusConfirmed && current.Status != model.StatusConfirmed {
		h.publishConfirmed(ctx, id)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status})
}

// Delete handles DELETE /v1/reservations/:id.  Clients may delete only
// their own reservations; admins may delete any.  Deleting an already
// deleted reservation reports 404 without erroring the store.
func (h *ReservationHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	if !isAdmin(c) {
		rv, err := h.Svc.Get(ctx, id)
		if err != nil {
			return rejectionResponse(c, err)
		}
		if rv.UserID != uid {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return rejectionResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// publishConfirmed emits a reservation.confirmed event.  Eventing is
// best-effort and never blocks the booking flow: the event is loaded
// on the request, then handed to the broker from a goroutine on its
// own deadline, detached from the request context so a client
// disconnect cannot cancel the delivery.
func (h *ReservationHandler) publishConfirmed(ctx context.Context, id uint64) {
	rv, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return
	}
	tableNumber := ""
	if t, err := h.Tables.GetByID(ctx, rv.TableID); err == nil {
		tableNumber = t.Number
	}
	event := queue.ReservationConfirmedEvent{
		ReservationID: rv.ID,
		UserID:        rv.UserID,
		TableID:       rv.TableID,
		TableNumber:   tableNumber,
		Date:          rv.Date,
		StartTime:     rv.StartTime,
		EndTime:       rv.EndTime,
		Guests:        rv.Guests,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.publish(pubCtx, event)
	}()
}
