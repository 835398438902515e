package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/scheduling/internal/schedule"
)

func TestAvailableSlotsTilesTheWorkingWindow(t *testing.T) {
	f := newFixture(t)

	// Short Thursday: a 09:00-12:00 morning yields exactly six 30-minute slots.
	cal := f.calendars.calendars[f.practitionerID]
	cal.WorkingDays[schedule.Weekday(time.Thursday)] = schedule.WorkingDay{
		Working: true,
		Start:   mustTime(t, "09:00"),
		End:     mustTime(t, "12:00"),
	}

	slots, err := f.avail.AvailableSlots(context.Background(), f.practitionerID, mustDate(t, "2026-09-10"))
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}

	if len(slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(slots))
	}
	if slots[0].Start != mustTime(t, "09:00") || slots[5].End != mustTime(t, "12:00") {
		t.Errorf("slots do not tile the window: first %s, last %s", slots[0], slots[5])
	}
}

func TestAvailableSlotsExcludesBreaksAndBookings(t *testing.T) {
	f := newFixture(t)

	booked := f.book(t, "2026-09-07", "10:00", "10:30")

	slots, err := f.avail.AvailableSlots(context.Background(), f.practitionerID, mustDate(t, "2026-09-07"))
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}

	// 16 slots in 09:00-17:00, minus two for the lunch break and one booked.
	if len(slots) != 13 {
		t.Fatalf("expected 13 free slots, got %d", len(slots))
	}

	lunch := schedule.TimeRange{Start: mustTime(t, "12:00"), End: mustTime(t, "13:00")}
	adjacentSeen := false
	for _, s := range slots {
		if s.Overlaps(lunch) {
			t.Errorf("slot %s overlaps the lunch break", s)
		}
		if s.Overlaps(booked.Range()) {
			t.Errorf("slot %s overlaps the booking", s)
		}
		if s.Start == mustTime(t, "10:30") {
			adjacentSeen = true
		}
	}
	// The slot abutting the booking stays free.
	if !adjacentSeen {
		t.Error("slot adjacent to the booking went missing")
	}
}

func TestAvailableSlotsEmptyCases(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name           string
		practitionerID uuid.UUID
		date           string
	}{
		{"no calendar", uuid.New(), "2026-09-07"},
		{"non-working weekday", f.practitionerID, "2026-09-06"},
		{"vacation day", f.practitionerID, "2026-09-21"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slots, err := f.avail.AvailableSlots(context.Background(), tc.practitionerID, mustDate(t, tc.date))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(slots) != 0 {
				t.Errorf("expected no slots, got %v", slots)
			}
		})
	}
}

func TestAvailableSlotsReappearAfterCancellation(t *testing.T) {
	f := newFixture(t)

	b := f.book(t, "2026-09-08", "10:00", "10:30")

	before, err := f.avail.AvailableSlots(context.Background(), f.practitionerID, mustDate(t, "2026-09-08"))
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), b.ID, Actor{ID: f.patientID, Role: RolePatient}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	after, err := f.avail.AvailableSlots(context.Background(), f.practitionerID, mustDate(t, "2026-09-08"))
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}

	if len(after) != len(before)+1 {
		t.Errorf("expected the cancelled slot back: %d before, %d after", len(before), len(after))
	}
}

func TestIsAvailableAt(t *testing.T) {
	f := newFixture(t)

	f.book(t, "2026-09-07", "10:00", "10:30")

	cases := []struct {
		name           string
		practitionerID uuid.UUID
		date           string
		at             string
		wantAvailable  bool
		wantReason     string
	}{
		{"free slot", f.practitionerID, "2026-09-07", "09:00", true, ""},
		{"booked slot", f.practitionerID, "2026-09-07", "10:00", false, "booked"},
		{"adjacent to booking", f.practitionerID, "2026-09-07", "10:30", true, ""},
		{"during break", f.practitionerID, "2026-09-07", "12:00", false, ConflictBreak},
		{"before opening", f.practitionerID, "2026-09-07", "08:00", false, PolicyOutsideHours},
		{"runs past closing", f.practitionerID, "2026-09-07", "16:45", false, PolicyOutsideHours},
		{"non-working weekday", f.practitionerID, "2026-09-06", "10:00", false, PolicyNonWorkingDay},
		{"vacation day", f.practitionerID, "2026-09-21", "10:00", false, PolicyOnVacation},
		{"no calendar", uuid.New(), "2026-09-07", "10:00", false, "no_calendar"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.avail.IsAvailableAt(context.Background(), tc.practitionerID, mustDate(t, tc.date), mustTime(t, tc.at))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Available != tc.wantAvailable {
				t.Errorf("available = %v, want %v", got.Available, tc.wantAvailable)
			}
			if got.Reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", got.Reason, tc.wantReason)
			}
		})
	}
}
