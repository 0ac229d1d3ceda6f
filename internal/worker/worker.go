// Package worker moves ledger records from the simulation into storage.
// Dispatcher handlers push records onto write-behind queues; a flush loop
// drains them into the backend in batches so slow storage never stalls a
// tick.
package worker

import (
	"log/slog"
	"time"

	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/queue"
	"github.com/armorer/blackmarket/internal/storage"
)

// Queues holds the write-behind queues, one per record kind.
type Queues struct {
	Orders       *queue.Queue[model.Order]
	OrderUpdates *queue.Queue[model.Order]
	Settlements  *queue.Queue[model.SettlementRecord]
	Meetings     *queue.Queue[model.MeetingEvent]
	AgentStates  *queue.Queue[model.AgentStateRecord]
}

func newQueues() Queues {
	return Queues{
		Orders:       queue.New[model.Order](),
		OrderUpdates: queue.New[model.Order](),
		Settlements:  queue.New[model.SettlementRecord](),
		Meetings:     queue.New[model.MeetingEvent](),
		AgentStates:  queue.New[model.AgentStateRecord](),
	}
}

// Manager owns the queues and the flush loop.
type Manager struct {
	backend storage.Backend
	queues  Queues
	log     *slog.Logger

	stop chan struct{}
	done chan struct{}
}

// NewManager creates a worker manager writing to the given backend.
func NewManager(backend storage.Backend, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		backend: backend,
		queues:  newQueues(),
		log:     log,
	}
}

// Start launches the flush loop.
func (m *Manager) Start(interval time.Duration) {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Flush()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the flush loop and drains whatever is left.
func (m *Manager) Stop() {
	if m.stop != nil {
		close(m.stop)
		<-m.done
	}
	m.Flush()
}

// Flush drains every queue into the backend. Failed records are logged and
// dropped; the simulation never blocks on storage errors.
func (m *Manager) Flush() {
	for _, o := range m.queues.Orders.Drain() {
		if err := m.backend.RecordOrder(&o); err != nil {
			m.log.Error("recording order failed", "order", o.ID, "error", err)
		}
	}
	for _, o := range m.queues.OrderUpdates.Drain() {
		if err := m.backend.UpdateOrder(&o); err != nil {
			m.log.Error("updating order failed", "order", o.ID, "error", err)
		}
	}
	for _, r := range m.queues.Settlements.Drain() {
		if err := m.backend.RecordSettlement(&r); err != nil {
			m.log.Error("recording settlement failed", "order", r.OrderID, "error", err)
		}
	}
	for _, ev := range m.queues.Meetings.Drain() {
		if err := m.backend.RecordMeetingEvent(&ev); err != nil {
			m.log.Error("recording meeting event failed", "agent", ev.AgentID, "error", err)
		}
	}
	for _, rec := range m.queues.AgentStates.Drain() {
		if err := m.backend.RecordAgentState(&rec); err != nil {
			m.log.Error("recording agent state failed", "agent", rec.AgentID, "error", err)
		}
	}
}

// QueueDepths reports the current queue sizes for monitoring.
func (m *Manager) QueueDepths() map[string]int {
	return map[string]int{
		"orders":       m.queues.Orders.Len(),
		"orderUpdates": m.queues.OrderUpdates.Len(),
		"settlements":  m.queues.Settlements.Len(),
		"meetings":     m.queues.Meetings.Len(),
		"agentStates":  m.queues.AgentStates.Len(),
	}
}

// DBWriteDurationProvider is an optional interface that backends can
// implement to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}
