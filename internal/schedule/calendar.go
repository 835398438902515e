package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSlotDuration is applied when a calendar is written without an
// explicit appointment duration.
const DefaultSlotDuration = 30

// Weekday wraps time.Weekday so that calendars serialize weekdays by name
// ("monday") rather than by Go's numeric encoding, both as JSON map keys and
// as plain fields.
type Weekday time.Weekday

func (w Weekday) String() string {
	return strings.ToLower(time.Weekday(w).String())
}

func (w Weekday) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Weekday) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			*w = Weekday(d)
			return nil
		}
	}
	return fmt.Errorf("unknown weekday %q", b)
}

// WorkingDay is the recurring window for one weekday. Start and End are only
// meaningful when Working is true.
type WorkingDay struct {
	Working bool      `json:"working"`
	Start   TimeOfDay `json:"start,omitempty"`
	End     TimeOfDay `json:"end,omitempty"`
}

// Break is a recurring weekly exclusion. Breaks may overlap each other; the
// blocked time is their union.
type Break struct {
	Day    Weekday   `json:"day"`
	Start  TimeOfDay `json:"start"`
	End    TimeOfDay `json:"end"`
	Reason string    `json:"reason,omitempty"`
}

func (b Break) Range() TimeRange {
	return TimeRange{Start: b.Start, End: b.End}
}

// Vacation is an inclusive calendar-date range during which the practitioner
// takes no appointments at all.
type Vacation struct {
	Start  Date   `json:"start_date"`
	End    Date   `json:"end_date"`
	Reason string `json:"reason,omitempty"`
}

func (v Vacation) Covers(d Date) bool {
	return !d.Before(v.Start) && !d.After(v.End)
}

// Calendar is a practitioner's full recurring availability. It is written
// wholesale (replace, never patched field by field) and read by the
// availability and booking flows; the booking flow never mutates it.
type Calendar struct {
	PractitionerID uuid.UUID              `json:"practitioner_id"`
	WorkingDays    map[Weekday]WorkingDay `json:"working_days"`
	Breaks         []Break                `json:"breaks,omitempty"`
	Vacations      []Vacation             `json:"vacations,omitempty"`
	SlotDuration   int                    `json:"slot_duration"`
	UpdatedAt      time.Time              `json:"updated_at,omitempty"`
}

// ValidationError marks a malformed calendar. It is surfaced when the
// calendar is written so that availability queries never meet a broken one.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid calendar: " + e.Detail
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// Validate checks the calendar's internal consistency. A zero SlotDuration is
// replaced by the default before validation.
func (c *Calendar) Validate() error {
	if c.PractitionerID == uuid.Nil {
		return validationErrorf("missing practitioner id")
	}
	if c.SlotDuration == 0 {
		c.SlotDuration = DefaultSlotDuration
	}
	if c.SlotDuration < 0 {
		return validationErrorf("appointment duration must be positive, got %d", c.SlotDuration)
	}
	for day, wd := range c.WorkingDays {
		if !wd.Working {
			continue
		}
		if !wd.Start.Valid() || !wd.End.Valid() {
			return validationErrorf("%s is marked working but has no valid hours", day)
		}
		if wd.Start >= wd.End {
			return validationErrorf("%s working hours %s-%s are inverted or empty", day, wd.Start, wd.End)
		}
	}
	for _, b := range c.Breaks {
		if b.Start >= b.End {
			return validationErrorf("break on %s has inverted or empty range %s-%s", b.Day, b.Start, b.End)
		}
	}
	for _, v := range c.Vacations {
		if v.Start.IsZero() || v.End.IsZero() {
			return validationErrorf("vacation is missing a date")
		}
		if v.Start.After(v.End) {
			return validationErrorf("vacation %s..%s ends before it starts", v.Start, v.End)
		}
	}
	return nil
}

// WorkingWindowFor returns the working window for the date's weekday. The
// second return is false when the weekday is not worked.
func (c *Calendar) WorkingWindowFor(d Date) (TimeRange, bool) {
	wd, ok := c.WorkingDays[Weekday(d.Weekday())]
	if !ok || !wd.Working {
		return TimeRange{}, false
	}
	return TimeRange{Start: wd.Start, End: wd.End}, true
}

// BreaksFor returns the recurring breaks that apply on the date's weekday.
func (c *Calendar) BreaksFor(d Date) []TimeRange {
	var out []TimeRange
	for _, b := range c.Breaks {
		if b.Day == Weekday(d.Weekday()) {
			out = append(out, b.Range())
		}
	}
	return out
}

// OnVacation reports whether the date falls inside any vacation range. A
// vacation blocks the whole day regardless of time.
func (c *Calendar) OnVacation(d Date) bool {
	for _, v := range c.Vacations {
		if v.Covers(d) {
			return true
		}
	}
	return false
}
