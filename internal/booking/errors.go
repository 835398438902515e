package booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicops/scheduling/internal/schedule"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotAllowed      = errors.New("actor is not allowed to modify this booking")
	ErrScheduleBusy    = errors.New("schedule is being modified, please retry")
)

// Policy rejection codes.
const (
	PolicyPastDate         = "past_date"
	PolicyNonWorkingDay    = "non_working_day"
	PolicyOutsideHours     = "outside_working_hours"
	PolicyOnVacation       = "on_vacation"
	PolicyInvalidRange     = "invalid_time_range"
	PolicyNotReschedulable = "not_reschedulable"
)

// PolicyError rejects a request that is well-formed but disallowed by the
// practitioner's schedule or by booking policy. The code lets callers explain
// the rejection; retrying without changed input will fail the same way.
type PolicyError struct {
	Code   string
	Detail string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("out of policy (%s): %s", e.Code, e.Detail)
}

func policyErrorf(code, format string, args ...any) error {
	return &PolicyError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Conflict sources.
const (
	ConflictBooking = "booking"
	ConflictBreak   = "break"
)

// ConflictError rejects a range that overlaps an existing commitment. It
// carries the blocking range (and booking id, when the blocker is a booking)
// so the caller can pick a different slot.
type ConflictError struct {
	Source    string
	Range     schedule.TimeRange
	BookingID uuid.UUID
}

func (e *ConflictError) Error() string {
	if e.Source == ConflictBooking {
		return fmt.Sprintf("conflicts with booking %s at %s", e.BookingID, e.Range)
	}
	return fmt.Sprintf("conflicts with %s at %s", e.Source, e.Range)
}

// TransitionError rejects a disallowed status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}
