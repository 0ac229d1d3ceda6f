package orders

import (
	"log/slog"
	"sync"
	"time"

	"github.com/armorer/blackmarket/internal/clock"
	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/util"
)

// rebookSeconds is the real-time delay used when the pickup sweep sends an
// agent back out for a buyer who is late but still inside the grace window.
const rebookSeconds = 60.0

// Ledger holds every order that is not yet completed. It owns order expiry:
// an accepted order that is not settled within the grace window past its
// pickup time is closed unpaid by the sweep. The meeting scheduler's wait
// window never touches the ledger.
type Ledger struct {
	m      sync.Mutex
	active []*model.Order

	// rebooked marks orders whose meeting was re-booked once by the sweep.
	rebooked map[string]bool

	cfg    config.OrdersConfig
	dir    PlannerDirectory
	notify Notifier
	clk    clock.View
	log    *slog.Logger
	now    func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger(cfg config.OrdersConfig, dir PlannerDirectory, notify Notifier, clk clock.View, log *slog.Logger) *Ledger {
	if notify == nil {
		notify = NopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		rebooked: make(map[string]bool),
		cfg:      cfg,
		dir:      dir,
		notify:   notify,
		clk:      clk,
		log:      log,
		now:      time.Now,
	}
}

// Add registers a freshly generated order.
func (l *Ledger) Add(o *model.Order) {
	l.m.Lock()
	defer l.m.Unlock()
	l.active = append(l.active, o)
}

// Get returns a copy of an active order.
func (l *Ledger) Get(orderID string) (model.Order, bool) {
	l.m.Lock()
	defer l.m.Unlock()
	if o := l.find(orderID); o != nil {
		return *o, true
	}
	return model.Order{}, false
}

// Size returns the number of active orders.
func (l *Ledger) Size() int {
	l.m.Lock()
	defer l.m.Unlock()
	return len(l.active)
}

// Active returns copies of all active orders.
func (l *Ledger) Active() []model.Order {
	l.m.Lock()
	defer l.m.Unlock()
	out := make([]model.Order, 0, len(l.active))
	for _, o := range l.active {
		out = append(out, *o)
	}
	return out
}

// HasActiveOrder reports whether the agent has any order still in play.
func (l *Ledger) HasActiveOrder(id model.AgentID) bool {
	l.m.Lock()
	defer l.m.Unlock()
	for _, o := range l.active {
		if o.AgentID == id {
			return true
		}
	}
	return false
}

// DeliverableFor returns copies of the agent's accepted, unsettled orders.
func (l *Ledger) DeliverableFor(id model.AgentID) []model.Order {
	l.m.Lock()
	defer l.m.Unlock()
	var out []model.Order
	for _, o := range l.active {
		if o.AgentID == id && o.Deliverable() {
			out = append(out, *o)
		}
	}
	return out
}

// Negotiate records the agreed price on an order and books the meeting: the
// pickup happens after the given real-time delay at the order's location.
func (l *Ledger) Negotiate(orderID string, price float64, delayMinutes float64) (model.Order, error) {
	l.m.Lock()
	defer l.m.Unlock()

	o := l.find(orderID)
	if o == nil {
		return model.Order{}, ErrOrderNotFound
	}
	return l.negotiateLocked(o, price, delayMinutes)
}

// NegotiateForAgent addresses the agent's oldest open order when the caller
// has no order handle.
func (l *Ledger) NegotiateForAgent(id model.AgentID, price float64, delayMinutes float64) (model.Order, error) {
	l.m.Lock()
	defer l.m.Unlock()

	for _, o := range l.active {
		if o.AgentID == id && o.Open() {
			return l.negotiateLocked(o, price, delayMinutes)
		}
	}
	return model.Order{}, ErrNoOpenOrder
}

func (l *Ledger) negotiateLocked(o *model.Order, price float64, delayMinutes float64) (model.Order, error) {
	if o.PriceSet {
		return model.Order{}, ErrAlreadyNegotiated
	}

	planner, ok := l.dir.Planner(o.AgentID)
	if !ok {
		return model.Order{}, ErrNoPlanner
	}

	realSeconds := delayMinutes * 60.0
	if err := planner.ScheduleMeeting(&o.Location, realSeconds); err != nil {
		return model.Order{}, err
	}

	o.AgreedPrice = price
	o.PriceSet = true
	o.Accepted = true
	o.PickupAt = l.now().Add(time.Duration(realSeconds * float64(time.Second)))
	o.PickupGameHour = util.WrapHour(l.clk.CurrentHour() + l.clk.ConvertDuration(realSeconds))

	cp := *o
	l.log.Info("order accepted",
		"order", o.ID,
		"agent", o.AgentID,
		"price", price,
		"pickupAt", o.PickupAt,
		"pickupGameHour", o.PickupGameHour)
	l.notify.Publish(model.NotifyOrderAccepted, cp)
	return cp, nil
}

// Settle closes an order after a delivery attempt. Delivery always consumes
// the order: paid on a match, unpaid with a reason otherwise. The settled
// copy is returned for recording.
func (l *Ledger) Settle(orderID string, paid bool, reason string) (model.Order, error) {
	l.m.Lock()
	defer l.m.Unlock()

	o := l.find(orderID)
	if o == nil {
		return model.Order{}, ErrOrderNotFound
	}
	if o.Completed {
		return model.Order{}, ErrOrderClosed
	}

	o.Completed = true
	o.Paid = paid
	o.FailReason = reason
	cp := *o

	l.removeLocked(orderID)

	if paid {
		l.notify.Publish(model.NotifyOrderSettled, cp)
	} else {
		l.notify.Publish(model.NotifyOrderFailed, cp)
	}
	return cp, nil
}

// Sweep expires accepted orders whose grace window past the pickup time has
// elapsed, and re-books the meeting once for orders past pickup but still
// inside the window. Expired copies are returned for recording.
func (l *Ledger) Sweep(now time.Time) []model.Order {
	l.m.Lock()
	defer l.m.Unlock()

	grace := time.Duration(l.cfg.PickupGraceMinutes) * time.Minute
	var expired []model.Order
	kept := l.active[:0]

	for _, o := range l.active {
		switch {
		case o.Deliverable() && now.After(o.PickupAt.Add(grace)):
			o.Completed = true
			o.Paid = false
			o.FailReason = "pickup window expired"
			expired = append(expired, *o)
			delete(l.rebooked, o.ID)
			l.log.Info("order expired", "order", o.ID, "agent", o.AgentID)
			l.notify.Publish(model.NotifyOrderExpired, *o)

		case o.Deliverable() && now.After(o.PickupAt) && !l.rebooked[o.ID]:
			l.rebooked[o.ID] = true
			if p, ok := l.dir.Planner(o.AgentID); ok {
				if err := p.ScheduleMeeting(&o.Location, rebookSeconds); err != nil {
					l.log.Error("meeting re-book failed", "order", o.ID, "error", err)
				}
			}
			kept = append(kept, o)

		default:
			kept = append(kept, o)
		}
	}

	l.active = kept
	return expired
}

func (l *Ledger) find(orderID string) *model.Order {
	for _, o := range l.active {
		if o.ID == orderID {
			return o
		}
	}
	return nil
}

func (l *Ledger) removeLocked(orderID string) {
	for i, o := range l.active {
		if o.ID == orderID {
			l.active = append(l.active[:i], l.active[i+1:]...)
			delete(l.rebooked, orderID)
			return
		}
	}
}
