package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCalendarNotFound = errors.New("calendar not found")

// PgCalendarStore keeps one calendar row per practitioner. Writes replace the
// whole document; there is no partial patching of the nested arrays.
type PgCalendarStore struct {
	pool *pgxpool.Pool
}

func NewPgCalendarStore(pool *pgxpool.Pool) *PgCalendarStore {
	return &PgCalendarStore{pool: pool}
}

// PutCalendar validates and upserts the calendar wholesale.
func (s *PgCalendarStore) PutCalendar(ctx context.Context, cal *Calendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}

	workingDays, err := json.Marshal(cal.WorkingDays)
	if err != nil {
		return fmt.Errorf("encode working days: %w", err)
	}
	breaks, err := json.Marshal(cal.Breaks)
	if err != nil {
		return fmt.Errorf("encode breaks: %w", err)
	}
	vacations, err := json.Marshal(cal.Vacations)
	if err != nil {
		return fmt.Errorf("encode vacations: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO calendars (practitioner_id, slot_duration, working_days, breaks, vacations, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (practitioner_id) DO UPDATE
		SET slot_duration = EXCLUDED.slot_duration,
		    working_days  = EXCLUDED.working_days,
		    breaks        = EXCLUDED.breaks,
		    vacations     = EXCLUDED.vacations,
		    updated_at    = now()
	`, cal.PractitionerID, cal.SlotDuration, workingDays, breaks, vacations)
	if err != nil {
		return fmt.Errorf("upsert calendar: %w", err)
	}

	return nil
}

func (s *PgCalendarStore) GetCalendar(ctx context.Context, practitionerID uuid.UUID) (*Calendar, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT practitioner_id, slot_duration, working_days, breaks, vacations, updated_at
		FROM calendars
		WHERE practitioner_id = $1
	`, practitionerID)

	var (
		cal         Calendar
		workingDays []byte
		breaks      []byte
		vacations   []byte
	)
	err := row.Scan(&cal.PractitionerID, &cal.SlotDuration, &workingDays, &breaks, &vacations, &cal.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCalendarNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(workingDays, &cal.WorkingDays); err != nil {
		return nil, fmt.Errorf("decode working days: %w", err)
	}
	if err := json.Unmarshal(breaks, &cal.Breaks); err != nil {
		return nil, fmt.Errorf("decode breaks: %w", err)
	}
	if err := json.Unmarshal(vacations, &cal.Vacations); err != nil {
		return nil, fmt.Errorf("decode vacations: %w", err)
	}

	return &cal, nil
}
