package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/scheduling/internal/booking"
	"github.com/clinicops/scheduling/internal/schedule"
)

type CreateBookingRequest struct {
	PractitionerID string             `json:"practitioner_id"`
	PatientID      string             `json:"patient_id"`
	Date           schedule.Date      `json:"date"`
	StartTime      schedule.TimeOfDay `json:"start_time"`
	EndTime        schedule.TimeOfDay `json:"end_time"`
	Reason         *string            `json:"reason,omitempty"`
	Telehealth     bool               `json:"telehealth,omitempty"`
}

type RescheduleBookingRequest struct {
	PractitionerID *string             `json:"practitioner_id,omitempty"`
	Date           *schedule.Date      `json:"date,omitempty"`
	StartTime      *schedule.TimeOfDay `json:"start_time,omitempty"`
	EndTime        *schedule.TimeOfDay `json:"end_time,omitempty"`
	ActorID        string              `json:"actor_id"`
}

type UpdateStatusRequest struct {
	Status    string `json:"status"`
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
}

type CancelBookingRequest struct {
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
}

type BookingResponse struct {
	ID             uuid.UUID          `json:"id"`
	PractitionerID uuid.UUID          `json:"practitioner_id"`
	PatientID      uuid.UUID          `json:"patient_id"`
	ClinicID       uuid.UUID          `json:"clinic_id"`
	Date           schedule.Date      `json:"date"`
	StartTime      schedule.TimeOfDay `json:"start_time"`
	EndTime        schedule.TimeOfDay `json:"end_time"`
	Status         string             `json:"status"`
	Reason         *string            `json:"reason,omitempty"`
	Telehealth     bool               `json:"telehealth"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		PractitionerID: b.PractitionerID,
		PatientID:      b.PatientID,
		ClinicID:       b.ClinicID,
		Date:           b.Date,
		StartTime:      b.Start,
		EndTime:        b.End,
		Status:         string(b.Status),
		Reason:         b.Reason,
		Telehealth:     b.Telehealth,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

type AvailabilityResponse struct {
	PractitionerID uuid.UUID            `json:"practitioner_id"`
	Date           schedule.Date        `json:"date"`
	Slots          []schedule.TimeRange `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
