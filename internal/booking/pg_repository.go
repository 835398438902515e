package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/scheduling/internal/schedule"
)

const bookingColumns = `id, practitioner_id, patient_id, clinic_id, date, start_minute, end_minute, status, reason, telehealth, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b      Booking
		date   time.Time
		start  int
		end    int
		reason *string
	)

	err := row.Scan(
		&b.ID,
		&b.PractitionerID,
		&b.PatientID,
		&b.ClinicID,
		&date,
		&start,
		&end,
		&b.Status,
		&reason,
		&b.Telehealth,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.Date = schedule.DateOf(date)
	b.Start = schedule.TimeOfDay(start)
	b.End = schedule.TimeOfDay(end)
	b.Reason = reason
	return &b, nil
}

func scanBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// isOverlapViolation reports whether the bookings_no_overlap exclusion
// constraint rejected a write that raced past the NOT EXISTS guard.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// findBlocker fetches the earliest live booking overlapping the range, for
// attaching to a ConflictError. excludeID may be uuid.Nil.
func (r *PgRepository) findBlocker(ctx context.Context, practitionerID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay, excludeID uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE practitioner_id = $1
		  AND date = $2
		  AND id <> $3
		  AND status IN ('pending', 'confirmed')
		  AND start_minute < $5 AND $4 < end_minute
		ORDER BY start_minute
		LIMIT 1
	`, practitionerID, date.Time(), excludeID, int(start), int(end))
	return scanBooking(row)
}

func (r *PgRepository) conflictFor(ctx context.Context, practitionerID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay, excludeID uuid.UUID) error {
	blocker, err := r.findBlocker(ctx, practitionerID, date, start, end, excludeID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			// The blocker vanished between the guarded write and this read;
			// the caller should simply retry.
			return ErrScheduleBusy
		}
		return fmt.Errorf("find conflicting booking: %w", err)
	}
	return &ConflictError{
		Source:    ConflictBooking,
		Range:     blocker.Range(),
		BookingID: blocker.ID,
	}
}

// Interface methods

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) CreateIfFree(ctx context.Context, b *Booking) (*Booking, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, practitioner_id, patient_id, clinic_id, date, start_minute, end_minute, status, reason, telehealth, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, 'pending', $8, $9, now(), now()
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE practitioner_id = $2
			  AND date = $5
			  AND status IN ('pending', 'confirmed')
			  AND start_minute < $7 AND $6 < end_minute
		)
		RETURNING `+bookingColumns+`
	`, id, b.PractitionerID, b.PatientID, b.ClinicID, b.Date.Time(), int(b.Start), int(b.End), b.Reason, b.Telehealth)

	created, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || isOverlapViolation(err) {
			return nil, r.conflictFor(ctx, b.PractitionerID, b.Date, b.Start, b.End, uuid.Nil)
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) RescheduleIfFree(ctx context.Context, id uuid.UUID, practitionerID, clinicID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET practitioner_id = $2,
		    clinic_id = $3,
		    date = $4,
		    start_minute = $5,
		    end_minute = $6,
		    updated_at = now()
		WHERE id = $1
		  AND status IN ('pending', 'confirmed')
		  AND NOT EXISTS (
			SELECT 1 FROM bookings other
			WHERE other.practitioner_id = $2
			  AND other.date = $4
			  AND other.id <> $1
			  AND other.status IN ('pending', 'confirmed')
			  AND other.start_minute < $6 AND $5 < other.end_minute
		  )
		RETURNING `+bookingColumns+`
	`, id, practitionerID, clinicID, date.Time(), int(start), int(end))

	moved, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || isOverlapViolation(err) {
			return nil, r.conflictFor(ctx, practitionerID, date, start, end, id)
		}
		return nil, err
	}
	return moved, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+bookingColumns+`
	`, id, to, from)

	return scanBooking(row)
}

func (r *PgRepository) ListForDay(ctx context.Context, practitionerID uuid.UUID, date schedule.Date, liveOnly bool) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE practitioner_id = $1
		  AND date = $2
	`
	if liveOnly {
		query += ` AND status IN ('pending', 'confirmed')`
	}
	query += ` ORDER BY start_minute`

	rows, err := r.pool.Query(ctx, query, practitionerID, date.Time())
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE patient_id = $1
		ORDER BY date DESC, start_minute DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *PgRepository) ListUpcoming(ctx context.Context, from, to schedule.Date) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status IN ('pending', 'confirmed')
		  AND date >= $1
		  AND date <= $2
		ORDER BY date, start_minute
	`, from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
