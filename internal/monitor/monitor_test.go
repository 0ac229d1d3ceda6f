package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorer/blackmarket/internal/clock"
	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/geo"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/orders"
	"github.com/armorer/blackmarket/internal/registry"
	"github.com/armorer/blackmarket/internal/schedule"
	"github.com/armorer/blackmarket/internal/storage/memory"
	"github.com/armorer/blackmarket/internal/worker"
)

type nopMovement struct{}

func (nopMovement) MoveTo(model.Waypoint) error                               { return nil }
func (nopMovement) MoveToPosition(geo.Position) error                         { return nil }
func (nopMovement) OverrideMovementTemporarily(model.Waypoint, time.Duration) {}

type fixedCounter int

func (c fixedCounter) ClientCount() int { return int(c) }

func newTestService(t *testing.T) (*Service, *orders.Ledger) {
	t.Helper()

	clk := clock.New(60, 10.0, nil)
	reg := registry.New(clk, nil, nil)

	times := model.ScheduleTimes{
		WakeUpTime: 6, WorkStartTime: 9, WorkEndTime: 17,
		SleepTime: 22, BreakStartTime: 12, BreakEndTime: 13,
	}
	for _, id := range []model.AgentID{1, 2} {
		agent := &model.Agent{ID: id, Active: true}
		reg.Register(schedule.NewScheduler(agent, schedule.Config{Times: times}, clk, nopMovement{}, nil, schedule.Hooks{}, nil))
	}
	reg.SetActive(2, false)

	ledger := orders.NewLedger(config.OrdersConfig{PickupGraceMinutes: 30}, reg, orders.NopNotifier{}, clk, nil)
	ledger.Add(&model.Order{ID: "o1", AgentID: 1})

	wm := worker.NewManager(memory.New(config.MemoryConfig{OutputDir: t.TempDir()}), nil)

	svc := NewService(Dependencies{
		Clock:         clk,
		Ledger:        ledger,
		Registry:      reg,
		WorkerManager: wm,
		Hub:           fixedCounter(3),
		StatusDir:     t.TempDir(),
	})
	return svc, ledger
}

func TestService_Snapshot(t *testing.T) {
	svc, _ := newTestService(t)

	st := svc.Snapshot()
	assert.Equal(t, 10.0, st.GameHour)
	assert.Equal(t, 2, st.RegisteredAgents)
	assert.Equal(t, 1, st.ActiveAgents)
	assert.Equal(t, 1, st.ActiveOrders)
	assert.Equal(t, 3, st.ConnectedClients)
	assert.Contains(t, st.QueueDepths, "orders")
}

func TestService_StartStop(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Start())
	require.Eventually(t, svc.IsRunning, time.Second, 5*time.Millisecond)

	// Status file is created as soon as the goroutine starts.
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(svc.deps.StatusDir, "status.json"))
		return err == nil
	}, time.Second, 5*time.Millisecond)

	svc.Stop()
	require.Eventually(t, func() bool { return !svc.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestService_StartTwiceIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	svc.Stop()
}
