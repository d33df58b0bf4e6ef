package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversions(t *testing.T) {
	assert.Equal(t, 30000.0, LiveWatts(0.5))
	assert.Equal(t, 6000.0, LiveWatts(0.1))
	assert.Equal(t, 500.0, RollupWatts(0.5))
	assert.Equal(t, 3600.0, SecondWatts(0.001))

	assert.Equal(t, 0.0, LiveWatts(0))
	assert.Equal(t, 0.0, SecondWatts(0))
}

func TestNewForcesUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	local := time.Date(2024, 2, 25, 23, 59, 59, 0, loc)
	p := New("home", "Kitchen", DetailDay, 500, local)

	_, offset := p.Time.Zone()
	assert.Equal(t, 0, offset)
	assert.True(t, p.Time.Equal(local))
}
