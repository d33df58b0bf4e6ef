package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryWindows(t *testing.T) {
	stop := time.Date(2024, 2, 25, 10, 30, 0, 0, time.UTC)
	start := startOfDay(stop.AddDate(0, 0, -45))

	windows := historyWindows(start, stop, time.UTC)
	require.Len(t, windows, 3)

	for i, w := range windows {
		assert.True(t, w.End.After(w.Start), "window %d inverted", i)
		assert.LessOrEqual(t, w.End.Sub(w.Start), time.Duration(maxHistoryWindowDays)*24*time.Hour,
			"window %d exceeds the cap", i)
		if i > 0 {
			prev := windows[i-1]
			// contiguous: next window starts at midnight after the
			// previous window's last day
			assert.Equal(t, startOfDay(prev.End.AddDate(0, 0, 1)), w.Start, "gap before window %d", i)
		}
	}

	assert.Equal(t, start, windows[0].Start)
	assert.Equal(t, stop, windows[len(windows)-1].End, "last window must be clipped to the stop time")
}

func TestHistoryWindowsSingle(t *testing.T) {
	stop := time.Date(2024, 2, 25, 10, 30, 0, 0, time.UTC)
	start := startOfDay(stop.AddDate(0, 0, -3))

	windows := historyWindows(start, stop, time.UTC)
	require.Len(t, windows, 1)
	assert.Equal(t, start, windows[0].Start)
	assert.Equal(t, stop, windows[0].End)
}

func TestDayBounds(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	at := time.Date(2024, 2, 25, 10, 30, 45, 0, loc)
	assert.Equal(t, time.Date(2024, 2, 25, 0, 0, 0, 0, loc), startOfDay(at))
	assert.Equal(t, time.Date(2024, 2, 25, 23, 59, 59, 0, loc), endOfDay(at))
}

func TestSleepInterruptible(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	begin := time.Now()
	assert.False(t, sleep(ctx, time.Minute))
	assert.Less(t, time.Since(begin), time.Second)

	assert.True(t, sleep(context.Background(), time.Millisecond))
}
