package main

import (
	"log/slog"
	"time"

	"github.com/armorer/blackmarket/internal/clock"
	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/geo"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/registry"
	"github.com/armorer/blackmarket/internal/schedule"
)

// mover teleports the agent inside the abstract world model. A game
// integration replaces this with real pathfinding.
type mover struct {
	agent *model.Agent
	log   *slog.Logger
}

func (m *mover) MoveTo(wp model.Waypoint) error {
	m.agent.Position = wp.Position
	m.log.Debug("agent moved", "agent", m.agent.ID, "waypoint", wp.Name)
	return nil
}

func (m *mover) MoveToPosition(p geo.Position) error {
	m.agent.Position = p
	m.log.Debug("agent moved", "agent", m.agent.ID, "position", p.String())
	return nil
}

func (m *mover) OverrideMovementTemporarily(wp model.Waypoint, hold time.Duration) {
	m.agent.Position = wp.Position
	m.log.Debug("agent movement held", "agent", m.agent.ID, "waypoint", wp.Name, "hold", hold)
}

// demoCatalog is the weapon and attachment pool orders are generated from.
func demoCatalog() model.Catalog {
	return model.Catalog{
		Weapons: []string{
			"ak_pattern",
			"m4_pattern",
			"mp5_pattern",
			"hunting_rifle",
		},
		Slots: [model.NumSlots][]string{
			model.SlotSight:       {"holo_sight", "acog_scope", "pso_scope"},
			model.SlotUnderbarrel: {"vertical_grip", "angled_grip", "bipod"},
			model.SlotBarrel:      {"suppressor", "flash_hider", "compensator"},
			model.SlotMagazine:    {"extended_mag", "drum_mag"},
			model.SlotSideRail:    {"tac_light", "laser_module"},
		},
	}
}

// demoMeetingSpots are the handover locations the generator draws from.
func demoMeetingSpots() []model.Waypoint {
	return []model.Waypoint{
		{Name: "old mill", Position: geo.NewPosition(1820, 2450, 12)},
		{Name: "harbor warehouse", Position: geo.NewPosition(540, 3110, 2)},
		{Name: "forest clearing", Position: geo.NewPosition(3275, 880, 48)},
		{Name: "scrapyard", Position: geo.NewPosition(2190, 1505, 8)},
	}
}

// agentSpec describes one bootstrapped villager: its identity plus the
// waypoints of its daily routine.
type agentSpec struct {
	id   model.AgentID
	name string
	home geo.Position
	work geo.Position
	eat  geo.Position
	idle geo.Position
}

func demoAgents() []agentSpec {
	return []agentSpec{
		{1, "Viktor", geo.NewPosition(1010, 980, 5), geo.NewPosition(1400, 1200, 5), geo.NewPosition(1220, 1060, 5), geo.NewPosition(1100, 900, 5)},
		{2, "Mirela", geo.NewPosition(860, 1430, 7), geo.NewPosition(1400, 1200, 5), geo.NewPosition(1220, 1060, 5), geo.NewPosition(950, 1300, 6)},
		{3, "Dusan", geo.NewPosition(1550, 720, 9), geo.NewPosition(2190, 1505, 8), geo.NewPosition(1700, 800, 9), geo.NewPosition(1600, 650, 9)},
		{4, "Anka", geo.NewPosition(480, 2890, 2), geo.NewPosition(540, 3110, 2), geo.NewPosition(510, 2960, 2), geo.NewPosition(430, 2800, 2)},
	}
}

// spawnAgents registers a scheduler for every demo agent.
func spawnAgents(reg *registry.AgentRegistry, clk *clock.GameClock, hooks schedule.Hooks, log *slog.Logger) {
	times := config.ScheduleTimes()
	meeting := config.Meeting()

	cfg := schedule.Config{
		Times:            times,
		WaitWindowHours:  meeting.WaitWindowHours,
		ArrivalThreshold: meeting.ArrivalThreshold,
		FleeDuration:     time.Duration(meeting.FleeSeconds * float64(time.Second)),
		FleeDistance:     meeting.FleeDistance,
		BedHold:          time.Duration(meeting.BedHoldSeconds * float64(time.Second)),
	}

	for _, spec := range demoAgents() {
		agent := &model.Agent{
			ID:       spec.id,
			Name:     spec.name,
			Position: spec.home,
			Active:   true,
		}
		waypoints := map[model.ScheduleState]model.Waypoint{
			model.StateSleeping: {Name: spec.name + "'s bed", Position: spec.home},
			model.StateWorking:  {Name: spec.name + "'s workplace", Position: spec.work},
			model.StateEating:   {Name: spec.name + "'s table", Position: spec.eat},
			model.StateIdle:     {Name: spec.name + "'s porch", Position: spec.idle},
		}
		reg.Register(schedule.NewScheduler(agent, cfg, clk, &mover{agent: agent, log: log}, waypoints, hooks, log))
	}
}
