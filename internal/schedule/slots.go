package schedule

// GenerateSlots tiles the working window with candidate slots of exactly
// duration minutes, left to right, no gaps, no overlap. A trailing partial
// slot that would run past the window's end is dropped.
func GenerateSlots(window TimeRange, duration int) []TimeRange {
	if duration <= 0 || window.Start >= window.End {
		return nil
	}

	slots := make([]TimeRange, 0, window.Minutes()/duration)
	for start := window.Start; start.Add(duration) <= window.End; start = start.Add(duration) {
		slots = append(slots, TimeRange{Start: start, End: start.Add(duration)})
	}
	return slots
}

// FilterSlots returns the slots that overlap none of the blocked ranges.
func FilterSlots(slots []TimeRange, blocked []TimeRange) []TimeRange {
	if len(blocked) == 0 {
		return slots
	}

	free := make([]TimeRange, 0, len(slots))
	for _, slot := range slots {
		clear := true
		for _, b := range blocked {
			if slot.Overlaps(b) {
				clear = false
				break
			}
		}
		if clear {
			free = append(free, slot)
		}
	}
	return free
}
