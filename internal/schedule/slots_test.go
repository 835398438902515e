package schedule

import "testing"

func mustParse(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tod
}

func TestGenerateSlotsFullDayTiling(t *testing.T) {
	window := TimeRange{Start: mustParse(t, "09:00"), End: mustParse(t, "17:00")}

	slots := GenerateSlots(window, 30)

	if len(slots) != 16 {
		t.Fatalf("expected 16 slots for 09:00-17:00 at 30m, got %d", len(slots))
	}
	if slots[0].Start != window.Start {
		t.Errorf("first slot starts at %s, want %s", slots[0].Start, window.Start)
	}
	if slots[len(slots)-1].End != window.End {
		t.Errorf("last slot ends at %s, want %s", slots[len(slots)-1].End, window.End)
	}
	for i, s := range slots {
		if s.Minutes() != 30 {
			t.Errorf("slot %d is %d minutes wide", i, s.Minutes())
		}
		if i > 0 && slots[i-1].End != s.Start {
			t.Errorf("gap or overlap between slot %d and %d: %s then %s", i-1, i, slots[i-1], s)
		}
	}
}

func TestGenerateSlotsDropsPartialSlot(t *testing.T) {
	// 09:00-10:45 at 30m: the 10:30-11:00 slot would overrun.
	window := TimeRange{Start: mustParse(t, "09:00"), End: mustParse(t, "10:45")}

	slots := GenerateSlots(window, 30)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[2].End != mustParse(t, "10:30") {
		t.Errorf("last slot ends at %s, want 10:30", slots[2].End)
	}
}

func TestGenerateSlotsDegenerateInputs(t *testing.T) {
	window := TimeRange{Start: mustParse(t, "09:00"), End: mustParse(t, "12:00")}

	if got := GenerateSlots(window, 0); got != nil {
		t.Errorf("zero duration should yield no slots, got %v", got)
	}
	if got := GenerateSlots(window, -15); got != nil {
		t.Errorf("negative duration should yield no slots, got %v", got)
	}
	empty := TimeRange{Start: mustParse(t, "12:00"), End: mustParse(t, "12:00")}
	if got := GenerateSlots(empty, 30); got != nil {
		t.Errorf("empty window should yield no slots, got %v", got)
	}
	inverted := TimeRange{Start: mustParse(t, "14:00"), End: mustParse(t, "12:00")}
	if got := GenerateSlots(inverted, 30); got != nil {
		t.Errorf("inverted window should yield no slots, got %v", got)
	}
}

func TestGenerateSlotsOversizedDuration(t *testing.T) {
	window := TimeRange{Start: mustParse(t, "09:00"), End: mustParse(t, "09:20")}
	if got := GenerateSlots(window, 30); len(got) != 0 {
		t.Errorf("duration wider than window should yield no slots, got %v", got)
	}
}

func TestFilterSlots(t *testing.T) {
	window := TimeRange{Start: mustParse(t, "09:00"), End: mustParse(t, "12:00")}
	slots := GenerateSlots(window, 30)

	blocked := []TimeRange{{Start: mustParse(t, "10:00"), End: mustParse(t, "10:30")}}

	free := FilterSlots(slots, blocked)
	if len(free) != 5 {
		t.Fatalf("expected 5 free slots, got %d", len(free))
	}
	for _, s := range free {
		if s.Start == mustParse(t, "10:00") {
			t.Error("blocked slot leaked through the filter")
		}
	}
}

func TestFilterSlotsAdjacentBlockDoesNotHide(t *testing.T) {
	slots := []TimeRange{{Start: mustParse(t, "10:30"), End: mustParse(t, "11:00")}}
	blocked := []TimeRange{{Start: mustParse(t, "10:00"), End: mustParse(t, "10:30")}}

	free := FilterSlots(slots, blocked)
	if len(free) != 1 {
		t.Fatal("slot abutting a blocked range must remain bookable")
	}
}

func TestFilterSlotsNoBlocks(t *testing.T) {
	window := TimeRange{Start: mustParse(t, "09:00"), End: mustParse(t, "10:00")}
	slots := GenerateSlots(window, 30)

	free := FilterSlots(slots, nil)
	if len(free) != len(slots) {
		t.Errorf("expected all %d slots, got %d", len(slots), len(free))
	}
}
