// Package delivery verifies a handed-over weapon against the buyer agent's
// order and settles it. A delivery attempt always consumes the order: paid
// when the build matches exactly, unpaid with an explanation otherwise.
package delivery

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/armorer/blackmarket/internal/match"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/orders"
)

// ErrNoDeliverableOrder is returned when the agent has no accepted order to
// settle.
var ErrNoDeliverableOrder = errors.New("agent has no deliverable order")

// Holder is the deliverer's carried weapon inventory. Loadouts returns a
// snapshot; the slot tuples are plain values and never alias live state.
type Holder interface {
	Loadouts() []model.Loadout
	RemoveLoadout(id string) bool
}

// Wallet receives the payout for a successful delivery.
type Wallet interface {
	Credit(amount float64)
}

// Verifier settles deliveries against the ledger.
type Verifier struct {
	ledger *orders.Ledger
	dir    orders.PlannerDirectory
	builds *BuildRegistry
	log    *slog.Logger
	now    func() time.Time
}

// NewVerifier creates a verifier. builds may be nil to skip build tracking.
func NewVerifier(ledger *orders.Ledger, dir orders.PlannerDirectory, builds *BuildRegistry, log *slog.Logger) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{
		ledger: ledger,
		dir:    dir,
		builds: builds,
		log:    log,
		now:    time.Now,
	}
}

// Deliver hands the contents of the holder to the agent and settles its
// oldest deliverable order. On an exact match the loadout is taken from the
// holder and the wallet is credited with the agreed price; otherwise the
// order closes unpaid with the mismatch as the reason. Either way the
// agent's meeting ends and the order leaves the ledger.
func (v *Verifier) Deliver(agentID model.AgentID, holder Holder, wallet Wallet) (model.SettlementRecord, error) {
	deliverable := v.ledger.DeliverableFor(agentID)
	if len(deliverable) == 0 {
		return model.SettlementRecord{}, ErrNoDeliverableOrder
	}
	order := deliverable[0]

	carried := holder.Loadouts()
	if v.builds != nil {
		for _, l := range carried {
			v.builds.Observe(l)
		}
	}

	winner, reason := pickLoadout(carried, &order)

	paid := winner != nil
	if paid {
		if !holder.RemoveLoadout(winner.ID) {
			// Inventory changed between snapshot and removal. Settle unpaid
			// rather than paying for a weapon that is no longer there.
			paid = false
			reason = "delivered weapon no longer held"
			winner = nil
		}
	}

	loadoutID := ""
	amount := 0.0
	if paid {
		loadoutID = winner.ID
		amount = order.AgreedPrice
		wallet.Credit(amount)
	}

	settled, err := v.ledger.Settle(order.ID, paid, reason)
	if err != nil {
		return model.SettlementRecord{}, err
	}

	if p, ok := v.dir.Planner(agentID); ok {
		p.CompleteWeaponDeal()
	}

	v.log.Info("delivery settled",
		"order", settled.ID,
		"agent", agentID,
		"paid", paid,
		"amount", amount,
		"reason", reason)

	return model.SettlementRecord{
		OrderID:    settled.ID,
		AgentID:    agentID,
		LoadoutID:  loadoutID,
		Paid:       paid,
		Amount:     amount,
		FailReason: reason,
		At:         v.now(),
	}, nil
}

// pickLoadout returns the carried loadout that fulfills the order, or nil
// with an explanation built from the closest candidate.
func pickLoadout(carried []model.Loadout, o *model.Order) (*model.Loadout, string) {
	if len(carried) == 0 {
		return nil, "no weapon delivered"
	}

	best := -1
	bestDiffs := 0
	for i := range carried {
		diffs := match.Explain(carried[i], o)
		if diffs == nil {
			return &carried[i], ""
		}
		if best == -1 || len(diffs) < bestDiffs {
			best = i
			bestDiffs = len(diffs)
		}
	}

	return nil, strings.Join(match.Explain(carried[best], o), "; ")
}
