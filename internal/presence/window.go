package presence

import "time"

// Window is a recurring weekly maintenance interval during which announcements
// are suppressed. The interval is half-open: minute StartMinute is inside the
// window, minute EndMinute is not.
type Window struct {
	Weekday     time.Weekday
	StartMinute int // minute of day, 0-1439
	EndMinute   int
}

// Contains reports whether t (already in the gate's location) falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Weekday() != w.Weekday {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= w.StartMinute && minute < w.EndMinute
}
