// Package schedule implements the per-agent daily activity state machine and
// the meeting scheduler that overrides it while a black-market meeting is
// pending.
package schedule

import (
	"github.com/armorer/blackmarket/internal/model"
)

// DetermineState maps an hour of day to one of the four base activity
// states. It is a pure function of the configured boundary times. The sleep
// window wraps past midnight when SleepTime > WakeUpTime.
func DetermineState(t model.ScheduleTimes, hour float64) model.ScheduleState {
	if hour >= t.SleepTime || hour < t.WakeUpTime {
		return model.StateSleeping
	}
	if hour >= t.BreakStartTime && hour < t.BreakEndTime {
		return model.StateEating
	}
	if hour >= t.WorkStartTime && hour < t.WorkEndTime {
		return model.StateWorking
	}
	return model.StateIdle
}
