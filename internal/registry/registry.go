// Package registry tracks every agent scheduler for the lifetime of the
// simulation, including agents whose bodies are despawned while the player
// is far away. Dormant schedulers are resynchronized on day rollover so an
// agent reappears in the right place in its day.
package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/armorer/blackmarket/internal/clock"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/orders"
	"github.com/armorer/blackmarket/internal/schedule"
)

// AliveFunc reports whether the agent still exists in the game world. A nil
// func treats every agent as alive.
type AliveFunc func(id model.AgentID) bool

// AgentRegistry is the directory of agent schedulers. Latency matters on the
// lookup paths, so entries live in a flat mutex-guarded map.
type AgentRegistry struct {
	m      sync.Mutex
	agents map[model.AgentID]*schedule.Scheduler

	alive AliveFunc
	clk   clock.View
	log   *slog.Logger
}

// New creates an empty registry.
func New(clk clock.View, alive AliveFunc, log *slog.Logger) *AgentRegistry {
	if log == nil {
		log = slog.Default()
	}
	return &AgentRegistry{
		agents: make(map[model.AgentID]*schedule.Scheduler),
		alive:  alive,
		clk:    clk,
		log:    log,
	}
}

// Register adds an agent's scheduler. Registering an already-known agent
// replaces its scheduler.
func (r *AgentRegistry) Register(s *schedule.Scheduler) {
	r.m.Lock()
	defer r.m.Unlock()
	id := s.Agent().ID
	if _, ok := r.agents[id]; ok {
		r.log.Debug("agent re-registered", "agent", id)
	}
	r.agents[id] = s
}

// Unregister removes an agent. Unknown IDs are a no-op.
func (r *AgentRegistry) Unregister(id model.AgentID) {
	r.m.Lock()
	defer r.m.Unlock()
	delete(r.agents, id)
}

// Get returns the scheduler for an agent.
func (r *AgentRegistry) Get(id model.AgentID) (*schedule.Scheduler, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	s, ok := r.agents[id]
	return s, ok
}

// Planner resolves an agent to its meeting planner for the order layer.
func (r *AgentRegistry) Planner(id model.AgentID) (orders.MeetingPlanner, bool) {
	s, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	return s, true
}

// AgentIDs returns all registered agent IDs in ascending order.
func (r *AgentRegistry) AgentIDs() []model.AgentID {
	r.m.Lock()
	defer r.m.Unlock()
	ids := make([]model.AgentID, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of registered agents.
func (r *AgentRegistry) Count() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.agents)
}

// ActiveCount returns the number of registered agents currently spawned.
func (r *AgentRegistry) ActiveCount() int {
	r.m.Lock()
	defer r.m.Unlock()
	n := 0
	for _, s := range r.agents {
		if s.Agent().Active {
			n++
		}
	}
	return n
}

// SetActive flips an agent's spawned flag. Reactivation immediately
// reconciles the scheduler so the agent spawns into the correct state.
func (r *AgentRegistry) SetActive(id model.AgentID, active bool) {
	s, ok := r.Get(id)
	if !ok {
		r.log.Warn("activity change for unknown agent", "agent", id)
		return
	}
	was := s.Agent().Active
	s.Agent().Active = active
	if active && !was {
		s.Tick(r.clk.CurrentHour())
		r.log.Debug("agent reactivated", "agent", id, "state", s.State().String())
	}
}

// TickAll reconciles every spawned agent against the given hour. Dormant
// agents are skipped; they catch up in the day sweep or on reactivation.
func (r *AgentRegistry) TickAll(hour float64) {
	for _, s := range r.snapshot() {
		if s.Agent().Active {
			s.Tick(hour)
		}
	}
}

// Sweep runs the day-rollover maintenance pass: agents that no longer exist
// in the world are dropped, and dormant agents get a catch-up reconciliation
// and come back active for the new day.
func (r *AgentRegistry) Sweep(hour float64) {
	for _, s := range r.snapshot() {
		id := s.Agent().ID
		if r.alive != nil && !r.alive(id) {
			r.Unregister(id)
			r.log.Info("agent pruned", "agent", id)
			continue
		}
		if !s.Agent().Active {
			s.Tick(hour)
			s.Agent().Active = true
			r.log.Debug("agent reactivated by sweep", "agent", id, "state", s.State().String())
		}
	}
}

func (r *AgentRegistry) snapshot() []*schedule.Scheduler {
	r.m.Lock()
	defer r.m.Unlock()
	out := make([]*schedule.Scheduler, 0, len(r.agents))
	for _, s := range r.agents {
		out = append(out, s)
	}
	return out
}
