package slot

import "time"

// NextOccurrence resolves the slot's weekly recurrence to the next concrete
// start time strictly after now. A same-day occurrence whose start time has
// already passed rolls forward a full week.
func (s *Slot) NextOccurrence(now time.Time) time.Time {
	daysAhead := (int(s.day) - int(now.Weekday()) + 7) % 7

	candidate := time.Date(
		now.Year(), now.Month(), now.Day(),
		s.startMinute/60, s.startMinute%60, 0, 0,
		now.Location(),
	).AddDate(0, 0, daysAhead)

	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// OccurrenceEnd is the end of the occurrence beginning at start.
func (s *Slot) OccurrenceEnd(start time.Time) time.Time {
	return start.Add(time.Duration(s.durationMin) * time.Minute)
}
