package booking

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// Draft carries the caller-supplied fields of a reservation about to be
// created or updated.  Validation happens in the service; a Draft that
// fails validation never reaches the store.
type Draft struct {
	UserID    uint64
	TableID   uint64
	Date      string // "2006-01-02"
	StartTime string // "15:04" or "15:04:05"
	EndTime   string
	Guests    uint32
	Status    string // empty defaults to pending
	Notes     *string
}

// Service orchestrates the reservation lifecycle.  Create and Update
// run the availability check and the write inside a single transaction,
// so either both happen or the store is left unchanged.
type Service struct {
	DB           *sql.DB
	Reservations *repository.ReservationRepo
	Checker      *Checker
}

// NewService constructs a Service.  All dependencies must be non-nil.
func NewService(db *sql.DB, reservations *repository.ReservationRepo, checker *Checker) *Service {
	if db == nil || reservations == nil || checker == nil {
		panic("nil dependency passed to NewService")
	}
	return &Service{DB: db, Reservations: reservations, Checker: checker}
}

// Create validates the draft, checks availability and inserts the
// reservation, all inside one transaction.  It returns the generated id
// or one of ValidationError, ErrTableNotFound, ErrTableInactive,
// ConflictError.
func (s *Service) Create(ctx context.Context, d Draft) (uint64, error) {
	rv, err := s.validate(d)
	if err != nil {
		return 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.gateTx(ctx, tx, rv, 0); err != nil {
		return 0, err
	}
	if err := s.Reservations.CreateTx(ctx, tx, rv); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return rv.ID, nil
}

// Update validates the draft and rewrites reservation id behind the
// same availability gate as Create, excluding the reservation's own
// prior row from the conflict scan so it never collides with itself.
func (s *Service) Update(ctx context.Context, id uint64, d Draft) error {
	rv, err := s.validate(d)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.Reservations.GetByIDTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	if err := s.gateTx(ctx, tx, rv, id); err != nil {
		return err
	}
	if err := s.Reservations.UpdateTx(ctx, tx, id, rv); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateStatus sets only the status of a reservation.  Status-only
// edits deliberately skip the availability gate: flipping a row to
// cancelled or completed frees its slot, and re-activating one is an
// admin override the original system allowed without a re-check.
// The existence check and the write share one transaction with the row
// locked in between, so a delete racing this call either wins (and the
// caller sees ErrReservationNotFound) or waits until the commit.
func (s *Service) UpdateStatus(ctx context.Context, id uint64, status string) error {
	if !model.ValidReservationStatus(status) {
		return &ValidationError{Field: "status", Reason: "must be one of pending, confirmed, cancelled, completed"}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.Reservations.GetByIDForUpdateTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	if err := s.Reservations.UpdateStatusTx(ctx, tx, id, status); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes a reservation unconditionally; freeing a slot never
// needs gating.  A second delete of the same id reports
// ErrReservationNotFound.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	err := s.Reservations.Delete(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return ErrReservationNotFound
	}
	return err
}

// Get loads a single reservation.
func (s *Service) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	rv, err := s.Reservations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return nil, ErrReservationNotFound
	}
	return rv, err
}

// gateTx runs the transactional availability check and translates its
// structured result into the service error taxonomy.
func (s *Service) gateTx(ctx context.Context, tx *sql.Tx, rv *model.Reservation, excludeID uint64) error {
	res, err := s.Checker.CheckTx(ctx, tx, rv.TableID, rv.Date, rv.StartTime, rv.EndTime, excludeID)
	if err != nil {
		return err
	}
	switch {
	case !res.TableExists:
		return ErrTableNotFound
	case !res.TableActive:
		return ErrTableInactive
	case res.Conflict != nil:
		return &ConflictError{ReservationID: res.Conflict.ID, UserID: res.Conflict.UserID}
	}
	return nil
}

// validate rejects malformed drafts before any store access and
// normalizes the accepted ones into a model row.
func (s *Service) validate(d Draft) (*model.Reservation, error) {
	if d.UserID == 0 {
		return nil, &ValidationError{Field: "user_id", Reason: "required"}
	}
	if d.TableID == 0 {
		return nil, &ValidationError{Field: "table_id", Reason: "required"}
	}
	date, err := ParseDate(strings.TrimSpace(d.Date))
	if err != nil {
		return nil, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	start, err := ParseClock(strings.TrimSpace(d.StartTime))
	if err != nil {
		return nil, &ValidationError{Field: "start_time", Reason: "must be HH:MM"}
	}
	if strings.TrimSpace(d.EndTime) == "" {
		return nil, &ValidationError{Field: "end_time", Reason: "required"}
	}
	end, err := ParseClock(strings.TrimSpace(d.EndTime))
	if err != nil {
		return nil, &ValidationError{Field: "end_time", Reason: "must be HH:MM"}
	}
	if end <= start {
		return nil, &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	if d.Guests == 0 {
		return nil, &ValidationError{Field: "number_of_guests", Reason: "must be positive"}
	}
	status := d.Status
	if status == "" {
		status = model.StatusPending
	}
	if !model.ValidReservationStatus(status) {
		return nil, &ValidationError{Field: "status", Reason: "must be one of pending, confirmed, cancelled, completed"}
	}
	return &model.Reservation{
		UserID:    d.UserID,
		TableID:   d.TableID,
		Date:      date,
		StartTime: strings.TrimSpace(d.StartTime),
		EndTime:   strings.TrimSpace(d.EndTime),
		Guests:    d.Guests,
		Status:    status,
		Notes:     d.Notes,
	}, nil
}
