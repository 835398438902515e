package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicops/scheduling/internal/booking"
	"github.com/clinicops/scheduling/internal/schedule"
)

// BookingService is the orchestrator surface the handlers depend on.
type BookingService interface {
	Book(ctx context.Context, req booking.BookRequest) (*booking.Booking, error)
	Reschedule(ctx context.Context, id uuid.UUID, req booking.RescheduleRequest) (*booking.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to booking.Status, actor booking.Actor) (*booking.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, actor booking.Actor) (*booking.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]booking.Booking, error)
	UpcomingBookings(ctx context.Context, lead time.Duration) ([]booking.Booking, error)
}

// AvailabilityService is the read-only availability surface.
type AvailabilityService interface {
	AvailableSlots(ctx context.Context, practitionerID uuid.UUID, date schedule.Date) ([]schedule.TimeRange, error)
	IsAvailableAt(ctx context.Context, practitionerID uuid.UUID, date schedule.Date, at schedule.TimeOfDay) (booking.Availability, error)
}

// CalendarStore reads and wholesale-replaces practitioner calendars.
type CalendarStore interface {
	PutCalendar(ctx context.Context, cal *schedule.Calendar) error
	GetCalendar(ctx context.Context, practitionerID uuid.UUID) (*schedule.Calendar, error)
}

type RouterConfig struct {
	Bookings     BookingService
	Availability AvailabilityService
	Calendars    CalendarStore
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       *zap.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Calendar and availability endpoints
	r.Put("/practitioners/{id}/calendar", putCalendarHandler(cfg.Calendars))
	r.Get("/practitioners/{id}/calendar", getCalendarHandler(cfg.Calendars))
	r.Get("/practitioners/{id}/availability", availabilityHandler(cfg.Availability))
	r.Get("/practitioners/{id}/availability/check", availabilityCheckHandler(cfg.Availability))

	// Booking endpoints
	r.Post("/bookings", createBookingHandler(cfg.Bookings))
	r.Get("/bookings", listBookingsHandler(cfg.Bookings))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Bookings))
	r.Post("/bookings/{id}/reschedule", rescheduleBookingHandler(cfg.Bookings))
	r.Post("/bookings/{id}/status", updateStatusHandler(cfg.Bookings))
	r.Post("/bookings/{id}/cancel", cancelBookingHandler(cfg.Bookings))

	return r
}
