package model

import "encoding/json"

// Notification message types streamed to the messaging layer. The core only
// produces these; it never reads messaging state back.
const (
	NotifyOrderRequested = "order_requested"
	NotifyOrderAccepted  = "order_accepted"
	NotifyOrderSettled   = "order_settled"
	NotifyOrderFailed    = "order_failed"
	NotifyOrderExpired   = "order_expired"
)

// Envelope wraps a notification payload with its type for the wire.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OrderNotice carries order details in outbound notifications.
type OrderNotice struct {
	OrderID     string    `json:"orderId"`
	AgentID     AgentID   `json:"agentId"`
	AgentName   string    `json:"agentName,omitempty"`
	Weapon      string    `json:"weapon"`
	Slots       SlotTuple `json:"slots"`
	Location    string    `json:"location"`
	AgreedPrice float64   `json:"agreedPrice,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// NoticeFromOrder builds the outbound notification payload for an order.
func NoticeFromOrder(o *Order, reason string) OrderNotice {
	return OrderNotice{
		OrderID:     o.ID,
		AgentID:     o.AgentID,
		Weapon:      o.Weapon,
		Slots:       o.Slots,
		Location:    o.Location.Name,
		AgreedPrice: o.AgreedPrice,
		Reason:      reason,
	}
}
