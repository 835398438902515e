package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicops/scheduling/internal/directory"
	"github.com/clinicops/scheduling/internal/notify"
	redisclient "github.com/clinicops/scheduling/internal/redis"
	"github.com/clinicops/scheduling/internal/schedule"
)

// CalendarSource yields practitioner calendars. The booking flow only ever
// reads them.
type CalendarSource interface {
	GetCalendar(ctx context.Context, practitionerID uuid.UUID) (*schedule.Calendar, error)
}

// Directory resolves the people referenced by a booking.
type Directory interface {
	GetPractitioner(ctx context.Context, id uuid.UUID) (*directory.Practitioner, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
}

// Service is the booking orchestrator. Every mutation re-validates against
// the authoritative state inside the schedule lock before persisting;
// whatever the availability query returned earlier is advisory only.
type Service struct {
	repo       Repository
	calendars  CalendarSource
	dir        Directory
	locker     redisclient.Locker
	dispatcher notify.Dispatcher
	logger     *zap.Logger

	now func() time.Time
}

func NewService(repo Repository, calendars CalendarSource, dir Directory, locker redisclient.Locker, dispatcher notify.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		calendars:  calendars,
		dir:        dir,
		locker:     locker,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Book validates and atomically creates a pending booking.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Booking, error) {
	candidate := schedule.TimeRange{Start: req.Start, End: req.End}
	if err := s.validateRange(candidate); err != nil {
		return nil, err
	}

	today := schedule.DateOf(s.now())
	if req.Date.Before(today) {
		return nil, policyErrorf(PolicyPastDate, "cannot book on %s, before today (%s)", req.Date, today)
	}

	practitioner, err := s.dir.GetPractitioner(ctx, req.PractitionerID)
	if err != nil {
		if errors.Is(err, directory.ErrPractitionerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load practitioner: %w", err)
	}

	if _, err := s.dir.GetPatient(ctx, req.PatientID); err != nil {
		if errors.Is(err, directory.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	cal, err := s.calendars.GetCalendar(ctx, req.PractitionerID)
	if err != nil {
		if errors.Is(err, schedule.ErrCalendarNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	if err := validateAgainstCalendar(cal, req.Date, candidate); err != nil {
		return nil, err
	}

	var created *Booking

	err = s.locker.WithScheduleLock(ctx, req.PractitionerID, req.Date, func(lockCtx context.Context) error {
		// The insert itself re-checks for overlapping live bookings; this is
		// the authoritative conflict check.
		b, err := s.repo.CreateIfFree(lockCtx, &Booking{
			PractitionerID: req.PractitionerID,
			PatientID:      req.PatientID,
			ClinicID:       practitioner.ClinicID,
			Date:           req.Date,
			Start:          req.Start,
			End:            req.End,
			Reason:         req.Reason,
			Telehealth:     req.Telehealth,
		})
		if err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	s.logEvent(ctx, created.ID, notify.EventBookingCreated, map[string]any{
		"practitioner_id": created.PractitionerID.String(),
		"patient_id":      created.PatientID.String(),
		"date":            created.Date.String(),
		"start":           created.Start.String(),
		"end":             created.End.String(),
	})
	s.dispatch(ctx, notify.EventBookingCreated, created, "")

	return created, nil
}

// Reschedule moves a live booking to new coordinates, re-running the full
// booking validation. The booking's own occupied range is excluded from the
// conflict check by id, so a booking never blocks its own move.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req RescheduleRequest) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ActorID != current.PatientID && req.ActorID != current.PractitionerID {
		return nil, ErrNotAllowed
	}

	if !current.Status.Live() {
		return nil, policyErrorf(PolicyNotReschedulable, "booking is %s", current.Status)
	}

	practitionerID := current.PractitionerID
	if req.PractitionerID != nil {
		practitionerID = *req.PractitionerID
	}
	date := current.Date
	if req.Date != nil {
		date = *req.Date
	}
	start := current.Start
	if req.Start != nil {
		start = *req.Start
	}
	end := current.End
	if req.End != nil {
		end = *req.End
	}

	candidate := schedule.TimeRange{Start: start, End: end}
	if err := s.validateRange(candidate); err != nil {
		return nil, err
	}

	today := schedule.DateOf(s.now())
	if date.Before(today) {
		return nil, policyErrorf(PolicyPastDate, "cannot move booking to %s, before today (%s)", date, today)
	}

	practitioner, err := s.dir.GetPractitioner(ctx, practitionerID)
	if err != nil {
		if errors.Is(err, directory.ErrPractitionerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load practitioner: %w", err)
	}

	cal, err := s.calendars.GetCalendar(ctx, practitionerID)
	if err != nil {
		if errors.Is(err, schedule.ErrCalendarNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	if err := validateAgainstCalendar(cal, date, candidate); err != nil {
		return nil, err
	}

	var moved *Booking

	err = s.locker.WithScheduleLock(ctx, practitionerID, date, func(lockCtx context.Context) error {
		b, err := s.repo.RescheduleIfFree(lockCtx, id, practitionerID, practitioner.ClinicID, date, start, end)
		if err != nil {
			return err
		}
		moved = b
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	s.logEvent(ctx, moved.ID, notify.EventBookingRescheduled, map[string]any{
		"practitioner_id": moved.PractitionerID.String(),
		"date":            moved.Date.String(),
		"start":           moved.Start.String(),
		"end":             moved.End.String(),
	})
	s.dispatch(ctx, notify.EventBookingRescheduled, moved, "")

	return moved, nil
}

// UpdateStatus applies one edge of the status machine. Disallowed edges fail
// terminally; they are never retried.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, actor Actor) (*Booking, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("unknown status %q", to)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case RoleAdmin:
	case RolePractitioner:
		if actor.ID != current.PractitionerID {
			return nil, ErrNotAllowed
		}
	default:
		// Patients cancel through Cancel, nothing else.
		return nil, ErrNotAllowed
	}

	return s.transition(ctx, current, to)
}

// Cancel is the patient- and practitioner-facing status exit. Terminal
// bookings cannot be cancelled again.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := actor.Role == RoleAdmin ||
		(actor.Role == RolePatient && actor.ID == current.PatientID) ||
		(actor.Role == RolePractitioner && actor.ID == current.PractitionerID)
	if !allowed {
		return nil, ErrNotAllowed
	}

	return s.transition(ctx, current, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, current *Booking, to Status) (*Booking, error) {
	if !current.Status.CanTransitionTo(to) {
		return nil, &TransitionError{From: current.Status, To: to}
	}

	updated, err := s.repo.UpdateStatus(ctx, current.ID, current.Status, to)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// CAS miss: the status moved underneath us.
			return nil, ErrScheduleBusy
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logEvent(ctx, updated.ID, notify.EventStatusChanged, map[string]any{
		"from": string(current.Status),
		"to":   string(to),
	})
	s.dispatch(ctx, notify.EventStatusChanged, updated, string(to))

	return updated, nil
}

// GetBooking retrieves a booking by id.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByPatient retrieves a patient's bookings, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// UpcomingBookings returns live bookings dated within the lead window,
// starting today. The reminder worker owns the timer; this is just the query.
func (s *Service) UpcomingBookings(ctx context.Context, lead time.Duration) ([]Booking, error) {
	if lead <= 0 {
		lead = 24 * time.Hour
	}
	days := int((lead + 23*time.Hour) / (24 * time.Hour))

	today := schedule.DateOf(s.now())
	return s.repo.ListUpcoming(ctx, today, today.AddDays(days))
}

// DispatchReminder emits a reminder event for one upcoming booking.
func (s *Service) DispatchReminder(ctx context.Context, b *Booking) {
	s.dispatch(ctx, notify.EventBookingReminder, b, "")
}

func (s *Service) validateRange(r schedule.TimeRange) error {
	if !r.Start.Valid() || !r.End.Valid() || r.Start >= r.End {
		return policyErrorf(PolicyInvalidRange, "range %s is empty or inverted", r)
	}
	return nil
}

// validateAgainstCalendar applies the schedule-level policy checks: vacation,
// working weekday, working window, recurring breaks. Existing bookings are
// checked later, inside the guarded write.
func validateAgainstCalendar(cal *schedule.Calendar, date schedule.Date, candidate schedule.TimeRange) error {
	if cal.OnVacation(date) {
		return policyErrorf(PolicyOnVacation, "practitioner is on vacation on %s", date)
	}

	window, working := cal.WorkingWindowFor(date)
	if !working {
		return policyErrorf(PolicyNonWorkingDay, "practitioner does not work on %ss", date.Weekday())
	}

	if !window.Contains(candidate) {
		return policyErrorf(PolicyOutsideHours, "range %s is outside working hours %s", candidate, window)
	}

	for _, br := range cal.BreaksFor(date) {
		if candidate.Overlaps(br) {
			return &ConflictError{Source: ConflictBreak, Range: br}
		}
	}

	return nil
}

func (s *Service) dispatch(ctx context.Context, eventType string, b *Booking, newStatus string) {
	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:           eventType,
		BookingID:      b.ID,
		PractitionerID: b.PractitionerID,
		PatientID:      b.PatientID,
		Date:           b.Date,
		Start:          b.Start,
		End:            b.End,
		NewStatus:      newStatus,
	})
}

func (s *Service) logEvent(ctx context.Context, bookingID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal event payload", zap.String("type", eventType), zap.Error(err))
		data = nil
	}

	id := bookingID
	ev := EventLog{
		EventType: eventType,
		BookingID: &id,
		Payload:   data,
		CreatedAt: s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("insert event log",
			zap.String("type", eventType),
			zap.String("booking_id", bookingID.String()),
			zap.Error(err))
	}
}
