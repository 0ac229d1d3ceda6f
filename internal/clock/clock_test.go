package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameClock_ConvertDuration(t *testing.T) {
	// 60 game seconds per real second: one real minute is one game hour.
	c := New(60, 0, nil)

	assert.InDelta(t, 1.0, c.ConvertDuration(60), 1e-9)
	assert.InDelta(t, 0.5, c.ConvertDuration(30), 1e-9)
	assert.InDelta(t, 3.0, c.ConvertDuration(180), 1e-9)
}

func TestGameClock_AdvanceMovesHour(t *testing.T) {
	c := New(60, 8, nil)

	c.Advance(30 * time.Second)
	assert.InDelta(t, 8.5, c.CurrentHour(), 1e-9)
	assert.Equal(t, 0, c.Day())
}

func TestGameClock_HourListenerFiresEveryAdvance(t *testing.T) {
	c := New(60, 8, nil)

	var hours []float64
	c.OnHourChanged(func(h float64) { hours = append(hours, h) })

	c.Advance(time.Second)
	c.Advance(time.Second)

	require.Len(t, hours, 2)
	assert.InDelta(t, 8.0+1.0/60, hours[0], 1e-9)
}

func TestGameClock_DayRollover(t *testing.T) {
	c := New(60, 23.5, nil)

	var days []int
	var hourAtDayChange float64
	c.OnDayChanged(func(d int) { days = append(days, d) })
	c.OnHourChanged(func(h float64) { hourAtDayChange = h })

	// One real hour = 60 game hours: wraps two full days.
	c.Advance(time.Hour)

	require.Len(t, days, 1)
	assert.Equal(t, 2, days[0])
	assert.InDelta(t, 11.5, c.CurrentHour(), 1e-9)
	assert.InDelta(t, 11.5, hourAtDayChange, 1e-9)
}

func TestGameClock_DayListenerBeforeHourListener(t *testing.T) {
	c := New(3600, 23, nil) // one real second = one game hour

	var order []string
	c.OnDayChanged(func(int) { order = append(order, "day") })
	c.OnHourChanged(func(float64) { order = append(order, "hour") })

	c.Advance(2 * time.Second)

	assert.Equal(t, []string{"day", "hour"}, order)
}

func TestGameClock_ZeroOrNegativeAdvance(t *testing.T) {
	c := New(60, 8, nil)
	fired := false
	c.OnHourChanged(func(float64) { fired = true })

	c.Advance(0)
	c.Advance(-time.Second)

	assert.False(t, fired)
	assert.InDelta(t, 8.0, c.CurrentHour(), 1e-9)
}

func TestGameClock_SetHour(t *testing.T) {
	c := New(60, 0, nil)
	c.SetHour(25.5)
	assert.InDelta(t, 1.5, c.CurrentHour(), 1e-9)
}
