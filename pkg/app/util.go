package app

import (
	"context"
	"time"
)

// sleep waits for d, returning false when ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns 23:59:59 on t's calendar day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// maxHistoryWindowDays caps one backfill window to bound the size of a
// single chart query.
const maxHistoryWindowDays = 20

type window struct {
	Start time.Time
	End   time.Time
}

// historyWindows splits [start, stop] into contiguous windows covering
// at most maxHistoryWindowDays calendar days each. Window ends land on
// 23:59:59 local time, except the last which is clipped to stop.
func historyWindows(start, stop time.Time, loc *time.Location) []window {
	var windows []window
	for !start.After(stop) {
		end := endOfDay(start.In(loc).AddDate(0, 0, maxHistoryWindowDays-1))
		if end.After(stop) {
			end = stop
		}
		windows = append(windows, window{Start: start, End: end})
		start = startOfDay(end.In(loc).AddDate(0, 0, 1))
	}
	return windows
}
