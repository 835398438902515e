package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/scheduling/internal/schedule"
)

// Repository contains all booking persistence needed by the service.
//
// CreateIfFree and RescheduleIfFree fold the overlap check into the write
// itself: the statement only takes effect when no live booking occupies an
// overlapping range, so the store cannot admit a double booking even if two
// writers race past the schedule lock.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// CreateIfFree inserts a pending booking unless a live booking for the
	// same practitioner and date overlaps [b.Start, b.End). On overlap it
	// returns a *ConflictError naming the blocker.
	CreateIfFree(ctx context.Context, b *Booking) (*Booking, error)

	// RescheduleIfFree moves the booking to the given coordinates, excluding
	// the booking's own row (by id) from the overlap check.
	RescheduleIfFree(ctx context.Context, id uuid.UUID, practitionerID, clinicID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay) (*Booking, error)

	// UpdateStatus is a compare-and-swap: it only applies when the booking is
	// still in the from status, returning ErrBookingNotFound otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Booking, error)

	// ListForDay returns the practitioner's bookings for one date, ordered by
	// start time. liveOnly restricts to pending and confirmed.
	ListForDay(ctx context.Context, practitionerID uuid.UUID, date schedule.Date, liveOnly bool) ([]Booking, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error)

	// ListUpcoming returns live bookings dated within [from, to], for the
	// reminder scan.
	ListUpcoming(ctx context.Context, from, to schedule.Date) ([]Booking, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

// EventLog is the audit record appended for every committed mutation.
type EventLog struct {
	ID        int64
	EventType string
	BookingID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
