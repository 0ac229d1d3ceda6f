package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/armorer/blackmarket/internal/delivery"
	"github.com/armorer/blackmarket/internal/dispatcher"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/orders"
	"github.com/armorer/blackmarket/internal/telemetry"
	"github.com/armorer/blackmarket/internal/worker"
)

// demoDriver plays the buyer side of the market so a bare daemon exercises
// the whole order lifecycle: it negotiates open orders, then shows up with a
// build that usually matches. All ledger and scheduler access is pushed
// through the command channel onto the tick goroutine.
type demoDriver struct {
	commands chan<- func()
	d        *dispatcher.Dispatcher
	ledger   *orders.Ledger
	verifier *delivery.Verifier
	influx   *telemetry.Manager
	log      *slog.Logger

	rng    *rand.Rand
	wallet *demoWallet
}

func newDemoDriver(commands chan<- func(), d *dispatcher.Dispatcher, ledger *orders.Ledger, verifier *delivery.Verifier, influx *telemetry.Manager, log *slog.Logger) *demoDriver {
	return &demoDriver{
		commands: commands,
		d:        d,
		ledger:   ledger,
		verifier: verifier,
		influx:   influx,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		wallet:   &demoWallet{log: log},
	}
}

func (dd *demoDriver) run() {
	for {
		time.Sleep(15 * time.Second)
		dd.commands <- dd.negotiateOne
	}
}

// negotiateOne accepts the oldest open order and arranges its delivery just
// after the pickup time.
func (dd *demoDriver) negotiateOne() {
	for _, o := range dd.ledger.Active() {
		if !o.Open() {
			continue
		}

		price := 600 + float64(dd.rng.Intn(9))*100
		delayMinutes := 1 + float64(dd.rng.Intn(3))

		accepted, err := dd.ledger.Negotiate(o.ID, price, delayMinutes)
		if err != nil {
			dd.log.Warn("demo negotiation failed", "order", o.ID, "error", err)
			continue
		}
		dd.record(worker.TopicOrderUpdate, accepted)
		if dd.influx != nil {
			dd.influx.RecordOrderEvent(context.Background(), "accepted", accepted)
		}

		time.AfterFunc(time.Until(accepted.PickupAt)+time.Second, func() {
			dd.commands <- func() { dd.deliver(accepted) }
		})
		return
	}
}

// deliver hands over a build for the order and records the outcome.
func (dd *demoDriver) deliver(o model.Order) {
	holder := &bagHolder{items: []model.Loadout{dd.buildFor(o)}}

	rec, err := dd.verifier.Deliver(o.AgentID, holder, dd.wallet)
	if err != nil {
		dd.log.Warn("demo delivery failed", "order", o.ID, "error", err)
		return
	}

	dd.record(worker.TopicSettlement, rec)

	settled := o
	settled.Completed = true
	settled.Paid = rec.Paid
	settled.FailReason = rec.FailReason
	dd.record(worker.TopicOrderUpdate, settled)
	if dd.influx != nil {
		dd.influx.RecordOrderEvent(context.Background(), "settled", settled)
	}
}

// buildFor assembles the ordered configuration, botching the sight about a
// quarter of the time so unpaid settlements show up in the data too.
func (dd *demoDriver) buildFor(o model.Order) model.Loadout {
	l := model.Loadout{ID: uuid.NewString(), Weapon: o.Weapon, Slots: o.Slots}
	if dd.rng.Float64() < 0.25 {
		l.Slots[model.SlotSight] = "iron_sight_spare"
	}
	return l
}

func (dd *demoDriver) record(topic string, payload any) {
	dd.d.Dispatch(dispatcher.Event{Topic: topic, Payload: payload, At: time.Now()})
}

// bagHolder is a plain in-memory weapon inventory.
type bagHolder struct {
	items []model.Loadout
}

func (b *bagHolder) Loadouts() []model.Loadout {
	return append([]model.Loadout(nil), b.items...)
}

func (b *bagHolder) RemoveLoadout(id string) bool {
	for i, l := range b.items {
		if l.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// demoWallet accumulates payouts.
type demoWallet struct {
	total float64
	log   *slog.Logger
}

func (w *demoWallet) Credit(amount float64) {
	w.total += amount
	w.log.Info("payout received", "amount", amount, "total", w.total)
}
