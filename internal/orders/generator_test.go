package orders

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/geo"
	"github.com/armorer/blackmarket/internal/model"
)

func testCatalog() model.Catalog {
	return model.Catalog{
		Weapons: []string{"ak_pattern", "smg_pattern"},
		Slots: [model.NumSlots][]string{
			{"holo_sight", "scope_4x"},
			{"grip_vert"},
			{"suppressor"},
			{"mag_extended"},
			{"laser_unit"},
		},
	}
}

func testSpots() []model.Waypoint {
	return []model.Waypoint{
		{Name: "old mill", Position: geo.NewPosition(500, 500, 0)},
		{Name: "docks", Position: geo.NewPosition(900, 100, 0)},
	}
}

func newTestGenerator(t *testing.T, cfg config.OrdersConfig) (*Generator, *fakeDirectory, *Ledger, *captureNotifier) {
	t.Helper()

	dir := newFakeDirectory()
	notify := &captureNotifier{}
	clk := &stubClock{hour: 10.0, day: 1, timeScale: 60}
	ledger := NewLedger(cfg, dir, NopNotifier{}, clk, nil)

	g := NewGenerator(cfg, testCatalog(), testSpots(), dir, ledger, notify, nil)
	g.rng = rand.New(rand.NewSource(42))
	return g, dir, ledger, notify
}

func TestGenerator_TickInterval(t *testing.T) {
	cfg := config.OrdersConfig{MinIntervalSeconds: 60, MaxIntervalSeconds: 60, AttachmentChance: 0.5}
	g, dir, ledger, notify := newTestGenerator(t, cfg)
	dir.add(4, true)

	base := time.Now()

	assert.Nil(t, g.Tick(base), "first tick only arms the timer")
	assert.Nil(t, g.Tick(base.Add(30*time.Second)), "interval not elapsed")

	o := g.Tick(base.Add(61 * time.Second))
	require.NotNil(t, o)
	assert.Equal(t, model.AgentID(4), o.AgentID)
	assert.NotEmpty(t, o.ID)
	assert.Contains(t, []string{"ak_pattern", "smg_pattern"}, o.Weapon)
	assert.Contains(t, []string{"old mill", "docks"}, o.Location.Name)
	assert.True(t, o.Open())

	assert.Equal(t, 1, ledger.Size())
	assert.Equal(t, []string{model.NotifyOrderRequested}, notify.kinds)
}

func TestGenerator_SkipsAgentsWithActiveOrder(t *testing.T) {
	cfg := config.OrdersConfig{MinIntervalSeconds: 1, MaxIntervalSeconds: 1, AttachmentChance: 0.5}
	g, dir, ledger, _ := newTestGenerator(t, cfg)
	dir.add(4, true)
	dir.add(5, true)

	ledger.Add(testOrder("o1", 4))

	base := time.Now()
	g.Tick(base)
	for i := 0; i < 8; i++ {
		o := g.Tick(base.Add(time.Duration(2+2*i) * time.Second))
		require.NotNil(t, o)
		assert.Equal(t, model.AgentID(5), o.AgentID)
		_, err := ledger.Settle(o.ID, false, "test")
		require.NoError(t, err)
	}
}

func TestGenerator_SkipsDespawnedAgents(t *testing.T) {
	cfg := config.OrdersConfig{MinIntervalSeconds: 1, MaxIntervalSeconds: 1, AttachmentChance: 0.5}
	g, dir, _, _ := newTestGenerator(t, cfg)
	dir.add(4, false)

	base := time.Now()
	g.Tick(base)
	assert.Nil(t, g.Tick(base.Add(2*time.Second)))
}

func TestGenerator_AttachmentChanceBounds(t *testing.T) {
	base := time.Now()

	cfg := config.OrdersConfig{MinIntervalSeconds: 1, MaxIntervalSeconds: 1, AttachmentChance: 1.0}
	g, dir, _, _ := newTestGenerator(t, cfg)
	dir.add(4, true)
	g.Tick(base)
	o := g.Tick(base.Add(2 * time.Second))
	require.NotNil(t, o)
	for i := 0; i < model.NumSlots; i++ {
		assert.NotEmpty(t, o.Slots[i], "chance 1.0 fills every slot with a pool")
	}

	cfg.AttachmentChance = 0.0
	g2, dir2, _, _ := newTestGenerator(t, cfg)
	dir2.add(4, true)
	g2.Tick(base)
	o2 := g2.Tick(base.Add(2 * time.Second))
	require.NotNil(t, o2)
	assert.True(t, o2.Slots.IsEmpty(), "chance 0.0 orders a bare weapon")
}

func TestGenerator_EmptyCatalog(t *testing.T) {
	cfg := config.OrdersConfig{MinIntervalSeconds: 1, MaxIntervalSeconds: 1}
	dir := newFakeDirectory()
	dir.add(4, true)
	clk := &stubClock{hour: 10.0, timeScale: 60}
	ledger := NewLedger(cfg, dir, NopNotifier{}, clk, nil)
	g := NewGenerator(cfg, model.Catalog{}, nil, dir, ledger, nil, nil)

	base := time.Now()
	g.Tick(base)
	assert.Nil(t, g.Tick(base.Add(2*time.Second)))
	assert.Equal(t, 0, ledger.Size())
}
