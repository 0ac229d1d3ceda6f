package orders

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/model"
)

// Generator periodically creates a new order for a random eligible agent.
// Agents that already have an order in play are skipped until it settles or
// expires.
type Generator struct {
	cfg     config.OrdersConfig
	catalog model.Catalog
	spots   []model.Waypoint
	dir     PlannerDirectory
	ledger  *Ledger
	notify  Notifier
	log     *slog.Logger

	rng    *rand.Rand
	nextAt time.Time
	now    func() time.Time
}

// NewGenerator creates a generator drawing from the given catalog and
// meeting spots.
func NewGenerator(cfg config.OrdersConfig, catalog model.Catalog, spots []model.Waypoint, dir PlannerDirectory, ledger *Ledger, notify Notifier, log *slog.Logger) *Generator {
	if notify == nil {
		notify = NopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		cfg:     cfg,
		catalog: catalog,
		spots:   spots,
		dir:     dir,
		ledger:  ledger,
		notify:  notify,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

// Tick generates a new order when the randomized interval has elapsed. The
// generated copy is returned for recording; nil means nothing happened.
func (g *Generator) Tick(now time.Time) *model.Order {
	if g.nextAt.IsZero() {
		g.nextAt = now.Add(g.interval())
		return nil
	}
	if now.Before(g.nextAt) {
		return nil
	}
	g.nextAt = now.Add(g.interval())
	return g.generate(now)
}

func (g *Generator) generate(now time.Time) *model.Order {
	if len(g.catalog.Weapons) == 0 || len(g.spots) == 0 {
		g.log.Warn("order generation skipped, empty catalog or no meeting spots")
		return nil
	}

	id, ok := g.pickAgent()
	if !ok {
		g.log.Debug("order generation skipped, no eligible agent")
		return nil
	}

	o := &model.Order{
		ID:        uuid.NewString(),
		AgentID:   id,
		Weapon:    g.catalog.Weapons[g.rng.Intn(len(g.catalog.Weapons))],
		Slots:     g.rollSlots(),
		Location:  g.spots[g.rng.Intn(len(g.spots))],
		CreatedAt: now,
	}

	g.ledger.Add(o)
	g.log.Info("order generated",
		"order", o.ID,
		"agent", o.AgentID,
		"weapon", o.Weapon,
		"location", o.Location.Name)
	g.notify.Publish(model.NotifyOrderRequested, *o)

	cp := *o
	return &cp
}

// pickAgent chooses a random registered, spawned agent without an order in
// play.
func (g *Generator) pickAgent() (model.AgentID, bool) {
	var eligible []model.AgentID
	for _, id := range g.dir.AgentIDs() {
		p, ok := g.dir.Planner(id)
		if !ok || !p.Agent().Active {
			continue
		}
		if g.ledger.HasActiveOrder(id) {
			continue
		}
		eligible = append(eligible, id)
	}
	if len(eligible) == 0 {
		return 0, false
	}
	return eligible[g.rng.Intn(len(eligible))], true
}

func (g *Generator) rollSlots() model.SlotTuple {
	var slots model.SlotTuple
	for i := 0; i < model.NumSlots; i++ {
		pool := g.catalog.Slots[i]
		if len(pool) == 0 {
			continue
		}
		if g.rng.Float64() < g.cfg.AttachmentChance {
			slots[i] = pool[g.rng.Intn(len(pool))]
		}
	}
	return slots
}

func (g *Generator) interval() time.Duration {
	min := g.cfg.MinIntervalSeconds
	max := g.cfg.MaxIntervalSeconds
	if max <= min {
		return time.Duration(min) * time.Second
	}
	return time.Duration(min+g.rng.Intn(max-min)) * time.Second
}
