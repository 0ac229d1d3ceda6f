package model

import "time"

// Order is a black-market request tied to one agent: a weapon type, the
// requested attachment slots, and the negotiated price and pickup time.
type Order struct {
	ID      string  `json:"id"`
	AgentID AgentID `json:"agentId"`

	Weapon string    `json:"weapon"`
	Slots  SlotTuple `json:"slots"`

	Location Waypoint `json:"location"`

	AgreedPrice    float64   `json:"agreedPrice"`
	PickupAt       time.Time `json:"pickupAt"`
	PickupGameHour float64   `json:"pickupGameHour"`

	PriceSet  bool `json:"priceSet"`
	Accepted  bool `json:"accepted"`
	Completed bool `json:"completed"`
	Paid      bool `json:"paid"`

	// FailReason explains an unpaid completion (failed or expired delivery).
	FailReason string `json:"failReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Open reports whether the order is still waiting for a price offer.
func (o *Order) Open() bool {
	return !o.PriceSet && !o.Completed
}

// Deliverable reports whether the order can still be settled by a delivery.
func (o *Order) Deliverable() bool {
	return o.Accepted && !o.Completed
}
