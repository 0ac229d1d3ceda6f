package worker

import (
	"fmt"

	"github.com/armorer/blackmarket/internal/dispatcher"
	"github.com/armorer/blackmarket/internal/model"
)

// Dispatcher topics the worker consumes.
const (
	TopicOrderNew     = "order:new"
	TopicOrderUpdate  = "order:update"
	TopicSettlement   = "settlement:new"
	TopicMeetingEvent = "meeting:event"
	TopicAgentState   = "agent:state"
)

// RegisterHandlers registers all record handlers with the dispatcher. New
// orders are handled synchronously so the row exists before any update for
// it arrives; everything else is buffered.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(TopicOrderNew, m.handleOrderNew, dispatcher.Logged())
	d.Register(TopicOrderUpdate, m.handleOrderUpdate, dispatcher.Buffered(1000), dispatcher.Logged())
	d.Register(TopicSettlement, m.handleSettlement, dispatcher.Buffered(500), dispatcher.Logged())
	d.Register(TopicMeetingEvent, m.handleMeetingEvent, dispatcher.Buffered(1000), dispatcher.Logged())
	d.Register(TopicAgentState, m.handleAgentState, dispatcher.Buffered(5000), dispatcher.Logged())
}

func (m *Manager) handleOrderNew(e dispatcher.Event) (any, error) {
	o, ok := e.Payload.(model.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, TopicOrderNew)
	}
	m.queues.Orders.Push(o)
	return nil, nil
}

func (m *Manager) handleOrderUpdate(e dispatcher.Event) (any, error) {
	o, ok := e.Payload.(model.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, TopicOrderUpdate)
	}
	m.queues.OrderUpdates.Push(o)
	return nil, nil
}

func (m *Manager) handleSettlement(e dispatcher.Event) (any, error) {
	r, ok := e.Payload.(model.SettlementRecord)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, TopicSettlement)
	}
	m.queues.Settlements.Push(r)
	return nil, nil
}

func (m *Manager) handleMeetingEvent(e dispatcher.Event) (any, error) {
	ev, ok := e.Payload.(model.MeetingEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, TopicMeetingEvent)
	}
	m.queues.Meetings.Push(ev)
	return nil, nil
}

func (m *Manager) handleAgentState(e dispatcher.Event) (any, error) {
	rec, ok := e.Payload.(model.AgentStateRecord)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T for %s", e.Payload, TopicAgentState)
	}
	m.queues.AgentStates.Push(rec)
	return nil, nil
}
