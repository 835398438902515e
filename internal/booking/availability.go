package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicops/scheduling/internal/schedule"
)

// AvailabilityService is the read-only availability facade. Its answers are
// advisory: the orchestrator re-validates inside the atomic commit, so a slot
// reported free here can still lose the race to a concurrent booking.
type AvailabilityService struct {
	calendars CalendarSource
	repo      Repository
	logger    *zap.Logger
}

func NewAvailabilityService(calendars CalendarSource, repo Repository, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		calendars: calendars,
		repo:      repo,
		logger:    logger,
	}
}

// AvailableSlots returns the bookable slots for the practitioner on the given
// date. No calendar, a non-working weekday and a vacation day all yield an
// empty result rather than an error.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, practitionerID uuid.UUID, date schedule.Date) ([]schedule.TimeRange, error) {
	cal, err := s.calendars.GetCalendar(ctx, practitionerID)
	if err != nil {
		if errors.Is(err, schedule.ErrCalendarNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	if cal.OnVacation(date) {
		return nil, nil
	}

	window, working := cal.WorkingWindowFor(date)
	if !working {
		return nil, nil
	}

	blocked := cal.BreaksFor(date)

	live, err := s.repo.ListForDay(ctx, practitionerID, date, true)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	for _, b := range live {
		blocked = append(blocked, b.Range())
	}

	slots := schedule.GenerateSlots(window, cal.SlotDuration)
	free := schedule.FilterSlots(slots, blocked)

	s.logger.Debug("availability computed",
		zap.String("practitioner_id", practitionerID.String()),
		zap.String("date", date.String()),
		zap.Int("slots", len(slots)),
		zap.Int("free", len(free)))

	return free, nil
}

// IsAvailableAt checks whether a slot of the calendar's appointment duration
// starting at the given time could be booked, and if not, why.
func (s *AvailabilityService) IsAvailableAt(ctx context.Context, practitionerID uuid.UUID, date schedule.Date, at schedule.TimeOfDay) (Availability, error) {
	cal, err := s.calendars.GetCalendar(ctx, practitionerID)
	if err != nil {
		if errors.Is(err, schedule.ErrCalendarNotFound) {
			return Availability{Reason: "no_calendar"}, nil
		}
		return Availability{}, fmt.Errorf("load calendar: %w", err)
	}

	if cal.OnVacation(date) {
		return Availability{Reason: PolicyOnVacation}, nil
	}

	window, working := cal.WorkingWindowFor(date)
	if !working {
		return Availability{Reason: PolicyNonWorkingDay}, nil
	}

	candidate := schedule.TimeRange{Start: at, End: at.Add(cal.SlotDuration)}
	if !window.Contains(candidate) {
		return Availability{Reason: PolicyOutsideHours}, nil
	}

	for _, br := range cal.BreaksFor(date) {
		if candidate.Overlaps(br) {
			return Availability{Reason: ConflictBreak}, nil
		}
	}

	live, err := s.repo.ListForDay(ctx, practitionerID, date, true)
	if err != nil {
		return Availability{}, fmt.Errorf("list bookings: %w", err)
	}
	for _, b := range live {
		if candidate.Overlaps(b.Range()) {
			return Availability{Reason: "booked"}, nil
		}
	}

	return Availability{Available: true}, nil
}
