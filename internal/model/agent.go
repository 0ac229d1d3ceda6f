package model

import "github.com/armorer/blackmarket/internal/geo"

// Agent is an NPC participating in the schedule and order systems.
// Agents are created at world load or spawn and are never deleted while the
// simulation runs; an absent agent is deactivated, not removed.
type Agent struct {
	ID       AgentID      `json:"id"`
	Name     string       `json:"name"`
	Position geo.Position `json:"position"`

	// Active mirrors the presence system: an inactive agent receives no
	// broadcast notifications and relies on the dormancy sweep.
	Active bool `json:"active"`
}
