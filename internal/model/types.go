// Package model holds the core data types of the black-market layer: agents,
// their schedules, orders, and assembled weapon configurations.
package model

import "github.com/armorer/blackmarket/internal/geo"

// AgentID identifies an NPC agent for the lifetime of the simulation.
type AgentID uint16

// ScheduleState is an agent's current activity.
type ScheduleState uint8

const (
	StateSleeping ScheduleState = iota
	StateEating
	StateWorking
	StateIdle
	StateGoingToMeeting
)

// String returns the state name for logs and exports.
func (s ScheduleState) String() string {
	switch s {
	case StateSleeping:
		return "Sleeping"
	case StateEating:
		return "Eating"
	case StateWorking:
		return "Working"
	case StateIdle:
		return "Idle"
	case StateGoingToMeeting:
		return "GoingToMeeting"
	default:
		return "Unknown"
	}
}

// SlotKind enumerates the attachment slots of a weapon build.
type SlotKind uint8

const (
	SlotSight SlotKind = iota
	SlotUnderbarrel
	SlotBarrel
	SlotMagazine
	SlotSideRail
)

// NumSlots is the number of independent attachment slots.
const NumSlots = 5

// String returns the slot name for logs and failure explanations.
func (k SlotKind) String() string {
	switch k {
	case SlotSight:
		return "sight"
	case SlotUnderbarrel:
		return "underbarrel"
	case SlotBarrel:
		return "barrel"
	case SlotMagazine:
		return "magazine"
	case SlotSideRail:
		return "siderail"
	default:
		return "unknown"
	}
}

// SlotTuple is the full attachment configuration of a build or an order,
// one catalog class name per slot. An empty string means the slot is empty.
// The tuple is a plain comparable value: it is snapshotted once from live
// inventory at verification time and never aliases mutable state.
type SlotTuple [NumSlots]string

// IsEmpty reports whether no slot is filled.
func (t SlotTuple) IsEmpty() bool {
	for _, c := range t {
		if c != "" {
			return false
		}
	}
	return true
}

// Waypoint is a named location an agent can be sent to.
type Waypoint struct {
	Name     string       `json:"name"`
	Position geo.Position `json:"position"`
}

// ScheduleTimes holds the five boundary times (in game hours) that shape an
// agent's day. The sleep window wraps midnight when SleepTime > WakeUpTime.
type ScheduleTimes struct {
	WakeUpTime     float64 `json:"wakeUpTime" mapstructure:"wakeUpTime"`
	WorkStartTime  float64 `json:"workStartTime" mapstructure:"workStartTime"`
	WorkEndTime    float64 `json:"workEndTime" mapstructure:"workEndTime"`
	SleepTime      float64 `json:"sleepTime" mapstructure:"sleepTime"`
	BreakStartTime float64 `json:"breakStartTime" mapstructure:"breakStartTime"`
	BreakEndTime   float64 `json:"breakEndTime" mapstructure:"breakEndTime"`
}

// Catalog lists the weapon types and per-slot attachment pools orders are
// generated from. Class names are the stable identifiers used for matching.
type Catalog struct {
	Weapons []string           `json:"weapons"`
	Slots   [NumSlots][]string `json:"slots"`
}
