// Package clock provides the simulated game clock: an hour-of-day value in
// [0,24), day rollover, and conversion from real durations to game hours.
//
// The clock is the single driver of the simulation. All listeners run to
// completion inside Advance before the next tick is processed, so there is
// one cooperative timeline and no locking anywhere downstream.
package clock

import (
	"log/slog"
	"time"

	"github.com/armorer/blackmarket/internal/util"
)

// View is the read-only clock surface consumed by the schedule and order
// systems.
type View interface {
	CurrentHour() float64
	Day() int
	ConvertDuration(realSeconds float64) float64
}

// GameClock converts real elapsed time into game time and notifies listeners
// on every hour change and day rollover.
type GameClock struct {
	// timeScale is game seconds per real second. At 60.0 one real minute
	// is one game hour.
	timeScale float64

	hour float64
	day  int

	hourListeners []func(hour float64)
	dayListeners  []func(day int)

	log *slog.Logger
}

// New creates a game clock starting at the given hour of day.
func New(timeScale, startHour float64, log *slog.Logger) *GameClock {
	if timeScale <= 0 {
		timeScale = 1
	}
	return &GameClock{
		timeScale: timeScale,
		hour:      util.WrapHour(startHour),
		log:       log,
	}
}

// CurrentHour returns the current hour of day in [0,24).
func (c *GameClock) CurrentHour() float64 {
	return c.hour
}

// Day returns the number of completed simulated days since the clock started.
func (c *GameClock) Day() int {
	return c.day
}

// ConvertDuration converts a real-time duration in seconds to game hours.
func (c *GameClock) ConvertDuration(realSeconds float64) float64 {
	return realSeconds * c.timeScale / 3600.0
}

// OnHourChanged registers a listener invoked after every Advance with the
// new hour value.
func (c *GameClock) OnHourChanged(fn func(hour float64)) {
	c.hourListeners = append(c.hourListeners, fn)
}

// OnDayChanged registers a listener invoked when the hour wraps past
// midnight, with the new day number.
func (c *GameClock) OnDayChanged(fn func(day int)) {
	c.dayListeners = append(c.dayListeners, fn)
}

// Advance moves the clock forward by a real-time delta and dispatches hour
// and day notifications. Day listeners fire before hour listeners so the
// dormancy sweep sees the new day before the regular reconciliation runs.
func (c *GameClock) Advance(realDt time.Duration) {
	if realDt <= 0 {
		return
	}

	prev := c.hour
	next := prev + c.ConvertDuration(realDt.Seconds())

	days := int(next / util.HoursPerDay)
	c.hour = util.WrapHour(next)

	if days > 0 {
		c.day += days
		if c.log != nil {
			c.log.Debug("day rollover", "day", c.day)
		}
		for _, fn := range c.dayListeners {
			fn(c.day)
		}
	}

	for _, fn := range c.hourListeners {
		fn(c.hour)
	}
}

// SetHour forces the clock to a specific hour of day without firing
// notifications. Intended for world bootstrap and tests.
func (c *GameClock) SetHour(hour float64) {
	c.hour = util.WrapHour(hour)
}
