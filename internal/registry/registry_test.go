package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorer/blackmarket/internal/geo"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/schedule"
)

type stubClock struct {
	hour      float64
	day       int
	timeScale float64
}

func (c *stubClock) CurrentHour() float64 { return c.hour }
func (c *stubClock) Day() int             { return c.day }

func (c *stubClock) ConvertDuration(realSeconds float64) float64 {
	return realSeconds * c.timeScale / 3600.0
}

type nopMovement struct{}

func (nopMovement) MoveTo(model.Waypoint) error                               { return nil }
func (nopMovement) MoveToPosition(geo.Position) error                         { return nil }
func (nopMovement) OverrideMovementTemporarily(model.Waypoint, time.Duration) {}

func testTimes() model.ScheduleTimes {
	return model.ScheduleTimes{
		WakeUpTime:     6,
		WorkStartTime:  9,
		WorkEndTime:    17,
		SleepTime:      22,
		BreakStartTime: 12,
		BreakEndTime:   13,
	}
}

func newScheduler(clk *stubClock, id model.AgentID) *schedule.Scheduler {
	agent := &model.Agent{ID: id, Active: true, Position: geo.NewPosition(0, 0, 0)}
	cfg := schedule.Config{Times: testTimes(), WaitWindowHours: 0.083}
	return schedule.NewScheduler(agent, cfg, clk, nopMovement{}, nil, schedule.Hooks{}, nil)
}

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	clk := &stubClock{hour: 10, timeScale: 60}
	r := New(clk, nil, nil)

	s := newScheduler(clk, 4)
	r.Register(s)
	r.Register(s)

	assert.Equal(t, 1, r.Count())
	assert.Equal(t, []model.AgentID{4}, r.AgentIDs())

	got, ok := r.Get(4)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestRegistry_PlannerDirectory(t *testing.T) {
	clk := &stubClock{hour: 10, timeScale: 60}
	r := New(clk, nil, nil)
	r.Register(newScheduler(clk, 9))
	r.Register(newScheduler(clk, 4))

	assert.Equal(t, []model.AgentID{4, 9}, r.AgentIDs())

	p, ok := r.Planner(4)
	require.True(t, ok)
	assert.Equal(t, model.AgentID(4), p.Agent().ID)

	_, ok = r.Planner(99)
	assert.False(t, ok)
}

func TestRegistry_TickAllSkipsDormant(t *testing.T) {
	clk := &stubClock{hour: 10, timeScale: 60}
	r := New(clk, nil, nil)

	awake := newScheduler(clk, 1)
	dormant := newScheduler(clk, 2)
	r.Register(awake)
	r.Register(dormant)
	r.SetActive(2, false)

	clk.hour = 12.5
	r.TickAll(12.5)

	assert.Equal(t, model.StateEating, awake.State())
	assert.Equal(t, model.StateWorking, dormant.State(), "dormant agents do not tick")
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRegistry_DormantAgentCatchesUpOnSweep(t *testing.T) {
	// An agent despawned mid-shift must wake up in the right part of its
	// day: the rollover sweep reconciles it even while dormant.
	clk := &stubClock{hour: 10, timeScale: 60}
	r := New(clk, nil, nil)

	s := newScheduler(clk, 4)
	r.Register(s)
	require.Equal(t, model.StateWorking, s.State())

	r.SetActive(4, false)

	clk.hour = 2.0
	clk.day = 2
	r.Sweep(2.0)

	assert.Equal(t, model.StateSleeping, s.State())
	assert.True(t, s.Agent().Active, "sweep brings dormant agents back")
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRegistry_ReactivationReconcilesImmediately(t *testing.T) {
	clk := &stubClock{hour: 10, timeScale: 60}
	r := New(clk, nil, nil)

	s := newScheduler(clk, 4)
	r.Register(s)
	r.SetActive(4, false)

	// World time moves on while the agent is dormant; no sweep ran yet.
	clk.hour = 20.0
	r.SetActive(4, true)

	assert.Equal(t, model.StateIdle, s.State())
}

func TestRegistry_SweepPrunesDeadAgents(t *testing.T) {
	clk := &stubClock{hour: 10, timeScale: 60}
	dead := map[model.AgentID]bool{2: true}
	r := New(clk, func(id model.AgentID) bool { return !dead[id] }, nil)

	r.Register(newScheduler(clk, 1))
	r.Register(newScheduler(clk, 2))

	r.Sweep(10.0)

	assert.Equal(t, 1, r.Count())
	_, ok := r.Get(2)
	assert.False(t, ok)
	_, ok = r.Get(1)
	assert.True(t, ok)
}

func TestRegistry_UnregisterUnknownIsNoop(t *testing.T) {
	clk := &stubClock{hour: 10, timeScale: 60}
	r := New(clk, nil, nil)
	r.Unregister(42)
	assert.Equal(t, 0, r.Count())
}
