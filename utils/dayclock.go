package utils

import (
	"time"
)

// DefaultDayStartHour is when the nutritional day rolls over. Eating
// at 1 AM counts towards the evening before, not the next morning.
const DefaultDayStartHour = 3

// DayClock computes logical-day windows. The day begins at StartHour
// (local clock) rather than midnight.
type DayClock struct {
	StartHour int
}

func NewDayClock(startHour int) DayClock {
	if startHour < 0 || startHour > 23 {
		startHour = DefaultDayStartHour
	}
	return DayClock{StartHour: startHour}
}

// DayStart returns the most recent instant at StartHour that is not
// after t: same-day StartHour, or the previous day's when t is earlier
// in the clock than StartHour.
func (c DayClock) DayStart(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), c.StartHour, 0, 0, 0, t.Location())
	if t.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// DayEnd is the last second of the logical day: DayStart + 24h - 1s.
// Consecutive days partition time with no gap or overlap at second
// resolution.
func (c DayClock) DayEnd(t time.Time) time.Time {
	return c.DayStart(t).Add(24*time.Hour - time.Second)
}

// Window returns both bounds of the logical day containing t.
func (c DayClock) Window(t time.Time) (start, end time.Time) {
	start = c.DayStart(t)
	return start, start.Add(24*time.Hour - time.Second)
}
