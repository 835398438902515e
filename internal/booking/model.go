package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/scheduling/internal/schedule"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// transitions is the full status machine. completed, cancelled and no_show
// are terminal; nothing leaves them.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Live reports whether the booking still occupies its slot. Only live
// bookings participate in conflict checks.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Role string

const (
	RolePatient      Role = "patient"
	RolePractitioner Role = "practitioner"
	RoleAdmin        Role = "admin"
)

// Actor identifies who is performing a mutation, for authorization.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Booking is a single appointment. Bookings are never deleted: cancellation
// and no-show are status transitions, keeping the audit trail intact.
type Booking struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	PatientID      uuid.UUID
	ClinicID       uuid.UUID
	Date           schedule.Date
	Start          schedule.TimeOfDay
	End            schedule.TimeOfDay
	Status         Status
	Reason         *string
	Telehealth     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (b *Booking) Range() schedule.TimeRange {
	return schedule.TimeRange{Start: b.Start, End: b.End}
}

// BookRequest carries everything needed to create a booking.
type BookRequest struct {
	PractitionerID uuid.UUID
	PatientID      uuid.UUID
	Date           schedule.Date
	Start          schedule.TimeOfDay
	End            schedule.TimeOfDay
	Reason         *string
	Telehealth     bool
}

// RescheduleRequest moves an existing booking. Nil fields keep the booking's
// current value. ActorID identifies the caller and must match the booking's
// patient or practitioner.
type RescheduleRequest struct {
	PractitionerID *uuid.UUID
	Date           *schedule.Date
	Start          *schedule.TimeOfDay
	End            *schedule.TimeOfDay
	ActorID        uuid.UUID
}

// Availability is the result of a point-in-time check.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
