package progress

import "time"

// Streak counts consecutive practice days ending today or yesterday.
// The yesterday allowance keeps an unbroken streak alive until midnight
// even when today's practice hasn't happened yet. Timestamps are bucketed
// into UTC days.
func Streak(times []time.Time, today time.Time) int {
	if len(times) == 0 {
		return 0
	}

	days := make(map[time.Time]bool, len(times))
	for _, t := range times {
		days[midnight(t)] = true
	}

	anchor := midnight(today)
	if !days[anchor] {
		anchor = anchor.AddDate(0, 0, -1)
		if !days[anchor] {
			return 0
		}
	}

	streak := 0
	for days[anchor] {
		streak++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return streak
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
