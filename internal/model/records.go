package model

import "time"

// MeetingEvent is an audit record of a scheduler transition into or out of
// a meeting.
type MeetingEvent struct {
	AgentID     AgentID   `json:"agentId"`
	Kind        string    `json:"kind"` // scheduled | enroute | completed | timeout | reset
	MeetingTime float64   `json:"meetingTime"`
	ArrivalTime float64   `json:"arrivalTime"`
	Location    string    `json:"location"`
	GameHour    float64   `json:"gameHour"`
	At          time.Time `json:"at"`
}

// AgentStateRecord captures a schedule state transition for the audit trail.
type AgentStateRecord struct {
	AgentID  AgentID       `json:"agentId"`
	From     ScheduleState `json:"from"`
	To       ScheduleState `json:"to"`
	GameHour float64       `json:"gameHour"`
	Day      int           `json:"day"`
	At       time.Time     `json:"at"`
}

// SettlementRecord is the outcome of a delivery attempt.
type SettlementRecord struct {
	OrderID    string    `json:"orderId"`
	AgentID    AgentID   `json:"agentId"`
	LoadoutID  string    `json:"loadoutId,omitempty"`
	Paid       bool      `json:"paid"`
	Amount     float64   `json:"amount"`
	FailReason string    `json:"failReason,omitempty"`
	At         time.Time `json:"at"`
}

// SessionInfo describes one recording session of the simulation.
type SessionInfo struct {
	WorldName string    `json:"worldName"`
	Tag       string    `json:"tag"`
	StartedAt time.Time `json:"startedAt"`
}
