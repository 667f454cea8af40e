// Package progress holds the pure aggregation math behind the dashboard:
// the day streak, badge ownership and kit completion. Everything here is
// recomputed from persisted facts on demand and never stored.
package progress

import "time"

const dayFormat = "2006-01-02"

// Streak walks backward day by day from today through the set of active days
// and returns the length of the contiguous run. Active days are keyed by UTC
// calendar day, so callers pass a UTC instant for today. When today has no
// activity yet the walk starts from yesterday, so a streak is "not yet
// broken" until a full day is missed. A gap of two or more days yields zero.
func Streak(activeDays map[string]int, today time.Time) int {
	day := truncateToDay(today)
	if activeDays[day.Format(dayFormat)] <= 0 {
		// Grace period: an empty today still counts a run ending yesterday.
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for activeDays[day.Format(dayFormat)] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
