package booking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicops/scheduling/internal/directory"
	"github.com/clinicops/scheduling/internal/notify"
	"github.com/clinicops/scheduling/internal/schedule"
)

// memRepository mirrors the guarded-write semantics of the Postgres
// repository: the overlap check and the write happen under one mutex, so two
// racing creates can never both land.
type memRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*Booking
	events   []EventLog
}

func newMemRepository() *memRepository {
	return &memRepository{bookings: make(map[uuid.UUID]*Booking)}
}

func (r *memRepository) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

// blocker returns the earliest live booking overlapping the range. Callers
// hold r.mu.
func (r *memRepository) blocker(practitionerID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay, excludeID uuid.UUID) *Booking {
	var found *Booking
	for _, b := range r.bookings {
		if b.ID == excludeID || b.PractitionerID != practitionerID || !b.Date.Equal(date) || !b.Status.Live() {
			continue
		}
		if b.Start < end && start < b.End {
			if found == nil || b.Start < found.Start {
				found = b
			}
		}
	}
	return found
}

func (r *memRepository) CreateIfFree(_ context.Context, b *Booking) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if blk := r.blocker(b.PractitionerID, b.Date, b.Start, b.End, uuid.Nil); blk != nil {
		return nil, &ConflictError{Source: ConflictBooking, Range: blk.Range(), BookingID: blk.ID}
	}

	cp := *b
	cp.ID = uuid.New()
	cp.Status = StatusPending
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.bookings[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (r *memRepository) RescheduleIfFree(_ context.Context, id uuid.UUID, practitionerID, clinicID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || !b.Status.Live() {
		return nil, ErrBookingNotFound
	}
	if blk := r.blocker(practitionerID, date, start, end, id); blk != nil {
		return nil, &ConflictError{Source: ConflictBooking, Range: blk.Range(), BookingID: blk.ID}
	}

	b.PractitionerID = practitionerID
	b.ClinicID = clinicID
	b.Date = date
	b.Start = start
	b.End = end
	b.UpdatedAt = time.Now()

	cp := *b
	return &cp, nil
}

func (r *memRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return nil, ErrBookingNotFound
	}
	b.Status = to
	b.UpdatedAt = time.Now()

	cp := *b
	return &cp, nil
}

func (r *memRepository) ListForDay(_ context.Context, practitionerID uuid.UUID, date schedule.Date, liveOnly bool) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Booking
	for _, b := range r.bookings {
		if b.PractitionerID != practitionerID || !b.Date.Equal(date) {
			continue
		}
		if liveOnly && !b.Status.Live() {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (r *memRepository) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Booking
	for _, b := range r.bookings {
		if b.PatientID == patientID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[j].Date.Before(out[i].Date)
		}
		return out[j].Start < out[i].Start
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepository) ListUpcoming(_ context.Context, from, to schedule.Date) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Booking
	for _, b := range r.bookings {
		if !b.Status.Live() || b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (r *memRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

// passLocker runs the critical section inline. The repository mutex supplies
// the atomicity the tests exercise.
type passLocker struct{}

func (passLocker) WithScheduleLock(ctx context.Context, _ uuid.UUID, _ schedule.Date, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev notify.Event) {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.mu.Unlock()
}

func (d *recordingDispatcher) byType(eventType string) []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notify.Event
	for _, ev := range d.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type memCalendars struct {
	calendars map[uuid.UUID]*schedule.Calendar
}

func (m *memCalendars) GetCalendar(_ context.Context, practitionerID uuid.UUID) (*schedule.Calendar, error) {
	cal, ok := m.calendars[practitionerID]
	if !ok {
		return nil, schedule.ErrCalendarNotFound
	}
	return cal, nil
}

type memDirectory struct {
	practitioners map[uuid.UUID]*directory.Practitioner
	patients      map[uuid.UUID]*directory.Patient
}

func (m *memDirectory) GetPractitioner(_ context.Context, id uuid.UUID) (*directory.Practitioner, error) {
	p, ok := m.practitioners[id]
	if !ok {
		return nil, directory.ErrPractitionerNotFound
	}
	return p, nil
}

func (m *memDirectory) GetPatient(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, directory.ErrPatientNotFound
	}
	return p, nil
}

func mustTime(t *testing.T, s string) schedule.TimeOfDay {
	t.Helper()
	tod, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return tod
}

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// fixture wires a Service and AvailabilityService over in-memory
// collaborators. The clock is pinned to Tue 2026-09-01 08:00 UTC; the default
// practitioner works Mon-Fri 09:00-17:00 with a Monday 12:00-13:00 lunch break
// and a vacation 2026-09-21 through 2026-09-25.
type fixture struct {
	repo       *memRepository
	dispatcher *recordingDispatcher
	calendars  *memCalendars
	dir        *memDirectory
	svc        *Service
	avail      *AvailabilityService

	practitionerID uuid.UUID
	patientID      uuid.UUID
	clinicID       uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:           newMemRepository(),
		dispatcher:     &recordingDispatcher{},
		practitionerID: uuid.New(),
		patientID:      uuid.New(),
		clinicID:       uuid.New(),
	}

	cal := &schedule.Calendar{
		PractitionerID: f.practitionerID,
		WorkingDays:    map[schedule.Weekday]schedule.WorkingDay{},
		Breaks: []schedule.Break{
			{Day: schedule.Weekday(time.Monday), Start: mustTime(t, "12:00"), End: mustTime(t, "13:00"), Reason: "lunch"},
		},
		Vacations: []schedule.Vacation{
			{Start: mustDate(t, "2026-09-21"), End: mustDate(t, "2026-09-25")},
		},
		SlotDuration: 30,
	}
	for d := time.Monday; d <= time.Friday; d++ {
		cal.WorkingDays[schedule.Weekday(d)] = schedule.WorkingDay{
			Working: true,
			Start:   mustTime(t, "09:00"),
			End:     mustTime(t, "17:00"),
		}
	}
	if err := cal.Validate(); err != nil {
		t.Fatalf("fixture calendar: %v", err)
	}

	f.calendars = &memCalendars{calendars: map[uuid.UUID]*schedule.Calendar{f.practitionerID: cal}}
	f.dir = &memDirectory{
		practitioners: map[uuid.UUID]*directory.Practitioner{
			f.practitionerID: {ID: f.practitionerID, Name: "Dr. Osei", ClinicID: f.clinicID},
		},
		patients: map[uuid.UUID]*directory.Patient{
			f.patientID: {ID: f.patientID, Name: "Ada Byron"},
		},
	}

	logger := zap.NewNop()
	f.svc = NewService(f.repo, f.calendars, f.dir, passLocker{}, f.dispatcher, logger)
	f.svc.now = func() time.Time {
		return time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)
	}
	f.avail = NewAvailabilityService(f.calendars, f.repo, logger)

	return f
}

// book creates a booking on the default practitioner and fails the test on
// error.
func (f *fixture) book(t *testing.T, date string, start, end string) *Booking {
	t.Helper()
	b, err := f.svc.Book(context.Background(), BookRequest{
		PractitionerID: f.practitionerID,
		PatientID:      f.patientID,
		Date:           mustDate(t, date),
		Start:          mustTime(t, start),
		End:            mustTime(t, end),
	})
	if err != nil {
		t.Fatalf("book %s %s-%s: %v", date, start, end, err)
	}
	return b
}

// forceStatus sets a booking's status directly, bypassing the state machine,
// so transition tests can start from any state.
func (f *fixture) forceStatus(t *testing.T, id uuid.UUID, s Status) {
	t.Helper()
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	b, ok := f.repo.bookings[id]
	if !ok {
		t.Fatalf("booking %s not in repository", id)
	}
	b.Status = s
}
