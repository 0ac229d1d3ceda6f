// Package util provides common helpers used across the black-market core.
package util

// HoursPerDay is the length of a simulated day in game hours.
const HoursPerDay = 24.0

// WrapHour normalizes an hour value into the [0,24) range.
// Negative inputs wrap backwards, so WrapHour(-1) == 23.
func WrapHour(h float64) float64 {
	h -= HoursPerDay * float64(int(h/HoursPerDay))
	if h < 0 {
		h += HoursPerDay
	}
	if h >= HoursPerDay {
		h -= HoursPerDay
	}
	return h
}

// HoursUntil returns the number of game hours from one hour-of-day value to
// another, moving forward through the day and wrapping midnight.
// HoursUntil(23, 1) == 2.
func HoursUntil(from, to float64) float64 {
	return WrapHour(to - from)
}

// HoursSince returns the number of game hours elapsed since the given
// hour-of-day value, measured forward to the current one.
func HoursSince(mark, now float64) float64 {
	return WrapHour(now - mark)
}

// Clamp limits v to the [lo,hi] range.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
