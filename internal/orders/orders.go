// Package orders generates black-market weapon orders and tracks them
// through negotiation, pickup, and settlement in an in-memory ledger.
package orders

import (
	"errors"

	"github.com/armorer/blackmarket/internal/model"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadyNegotiated = errors.New("order already has an agreed price")
	ErrOrderClosed       = errors.New("order already completed")
	ErrNoPlanner         = errors.New("no meeting planner for agent")
	ErrNoOpenOrder       = errors.New("agent has no open order")
)

// MeetingPlanner is the slice of the agent scheduler the order layer drives.
type MeetingPlanner interface {
	ScheduleMeeting(location *model.Waypoint, realTimeSeconds float64) error
	CompleteWeaponDeal()
	IsAtMeetingLocation() bool
	Agent() *model.Agent
}

// PlannerDirectory resolves agents to their meeting planners.
type PlannerDirectory interface {
	Planner(id model.AgentID) (MeetingPlanner, bool)
	AgentIDs() []model.AgentID
}

// Notifier publishes order lifecycle notifications. Kind is one of the
// model.Notify* constants.
type Notifier interface {
	Publish(kind string, o model.Order)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Publish(string, model.Order) {}
