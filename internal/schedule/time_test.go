package schedule

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9:00", 0, true},
		{"12-30", 0, true},
		{"12:3a", 0, true},
		{"12:3 ", 0, true},
		{"1a:30", 0, true},
		{" 2:30", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "08:05", "13:45", "23:59"} {
		parsed, err := ParseTimeOfDay(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if parsed.String() != s {
			t.Errorf("round trip %q -> %q", s, parsed.String())
		}
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	var tod TimeOfDay
	if err := json.Unmarshal([]byte(`"10:30"`), &tod); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tod != 630 {
		t.Errorf("expected 630 minutes, got %d", tod)
	}

	out, err := json.Marshal(tod)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"10:30"` {
		t.Errorf("expected \"10:30\", got %s", out)
	}

	if err := json.Unmarshal([]byte(`"25:00"`), &tod); err == nil {
		t.Error("expected error for out-of-range time")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Weekday() != time.Monday {
		t.Errorf("2026-09-07 should be a Monday, got %s", d.Weekday())
	}
	if d.String() != "2026-09-07" {
		t.Errorf("round trip failed: %s", d)
	}

	if _, err := ParseDate("07/09/2026"); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := ParseDate("2026-13-01"); err == nil {
		t.Error("expected error for invalid month")
	}
}

func TestDateOrderingAndArithmetic(t *testing.T) {
	a, _ := ParseDate("2026-09-07")
	b, _ := ParseDate("2026-09-08")

	if !a.Before(b) {
		t.Error("expected a < b")
	}
	if b.Before(a) {
		t.Error("expected !(b < a)")
	}
	if a.Before(a) {
		t.Error("Before must be strict")
	}
	if !a.AddDays(1).Equal(b) {
		t.Errorf("AddDays(1) = %s, want %s", a.AddDays(1), b)
	}
	// Month rollover.
	eom, _ := ParseDate("2026-09-30")
	if eom.AddDays(1).String() != "2026-10-01" {
		t.Errorf("month rollover failed: %s", eom.AddDays(1))
	}
}

func TestTimeRangeOverlaps(t *testing.T) {
	r := func(a, b TimeOfDay) TimeRange { return TimeRange{Start: a, End: b} }

	cases := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{"identical", r(600, 630), r(600, 630), true},
		{"partial", r(600, 640), r(630, 660), true},
		{"contained", r(600, 720), r(630, 660), true},
		{"adjacent after", r(600, 630), r(630, 660), false},
		{"adjacent before", r(630, 660), r(600, 630), false},
		{"disjoint", r(540, 570), r(660, 690), false},
	}

	for _, tc := range cases {
		if got := tc.a.Overlaps(tc.b); got != tc.want {
			t.Errorf("%s: %s overlaps %s = %v, want %v", tc.name, tc.a, tc.b, got, tc.want)
		}
		// Overlap is symmetric.
		if got := tc.b.Overlaps(tc.a); got != tc.want {
			t.Errorf("%s (reversed): got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTimeRangeContains(t *testing.T) {
	window := TimeRange{Start: 540, End: 1020} // 09:00-17:00

	if !window.Contains(TimeRange{Start: 540, End: 570}) {
		t.Error("first slot should be contained")
	}
	if !window.Contains(TimeRange{Start: 990, End: 1020}) {
		t.Error("last slot ending exactly at window end should be contained")
	}
	if window.Contains(TimeRange{Start: 1000, End: 1030}) {
		t.Error("slot running past the window should not be contained")
	}
	if window.Contains(TimeRange{Start: 520, End: 560}) {
		t.Error("slot starting before the window should not be contained")
	}
}
