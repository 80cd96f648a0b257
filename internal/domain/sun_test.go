package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSunTimes_Greenwich(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC))

	events, err := SunTimes(Greenwich)
	require.NoError(t, err)
	require.Len(t, events, 4)

	names := []string{events[0].Event, events[1].Event, events[2].Event, events[3].Event}
	assert.Equal(t, []string{"dawn", "sunrise", "sunset", "dusk"}, names)

	for i, e := range events {
		_, err := time.Parse("15:04", e.Time)
		require.NoError(t, err, "event %s", e.Event)
		if i > 0 {
			assert.Less(t, events[i-1].Time, e.Time)
		}
	}

	// Midsummer in London (BST): sunrise shortly before 05:00, sunset after 21:00.
	assert.True(t, events[1].Time >= "04:30" && events[1].Time <= "05:00", "sunrise %s", events[1].Time)
	assert.True(t, events[2].Time >= "21:00" && events[2].Time <= "21:30", "sunset %s", events[2].Time)
}
