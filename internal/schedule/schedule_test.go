package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/armorer/blackmarket/internal/model"
)

func defaultTimes() model.ScheduleTimes {
	return model.ScheduleTimes{
		WakeUpTime:     6,
		WorkStartTime:  9,
		WorkEndTime:    17,
		SleepTime:      22,
		BreakStartTime: 12,
		BreakEndTime:   13,
	}
}

func TestDetermineState(t *testing.T) {
	times := defaultTimes()

	tests := []struct {
		name string
		hour float64
		want model.ScheduleState
	}{
		{"late evening sleeps", 23.0, model.StateSleeping},
		{"early morning sleeps", 3.0, model.StateSleeping},
		{"exactly sleep time sleeps", 22.0, model.StateSleeping},
		{"just before wake sleeps", 5.99, model.StateSleeping},
		{"exactly wake time idles", 6.0, model.StateIdle},
		{"morning before work idles", 8.0, model.StateIdle},
		{"work start works", 9.0, model.StateWorking},
		{"mid morning works", 10.0, model.StateWorking},
		{"lunch break eats", 12.5, model.StateEating},
		{"break start eats", 12.0, model.StateEating},
		{"break end works", 13.0, model.StateWorking},
		{"afternoon works", 16.99, model.StateWorking},
		{"work end idles", 17.0, model.StateIdle},
		{"evening idles", 20.0, model.StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineState(times, tt.hour))
		})
	}
}

func TestDetermineState_BreakOutsideWorkHours(t *testing.T) {
	// A break window outside work hours still wins over Idle.
	times := defaultTimes()
	times.BreakStartTime = 7
	times.BreakEndTime = 8

	assert.Equal(t, model.StateEating, DetermineState(times, 7.5))
	assert.Equal(t, model.StateIdle, DetermineState(times, 8.5))
}

func TestDetermineState_SleepWrapsMidnight(t *testing.T) {
	times := defaultTimes()

	for _, hour := range []float64{22.0, 23.5, 0.0, 2.0, 5.9} {
		assert.Equal(t, model.StateSleeping, DetermineState(times, hour), "hour %v", hour)
	}
}
