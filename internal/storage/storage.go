// Package storage defines the ledger persistence backend interface. A
// backend receives the full order lifecycle plus the meeting and schedule
// audit trail for one play session.
package storage

import "github.com/armorer/blackmarket/internal/model"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(info *model.SessionInfo) error
	EndSession() error

	// Order lifecycle
	RecordOrder(o *model.Order) error
	UpdateOrder(o *model.Order) error
	RecordSettlement(r *model.SettlementRecord) error

	// Audit trail
	RecordMeetingEvent(ev *model.MeetingEvent) error
	RecordAgentState(rec *model.AgentStateRecord) error
}

// Exportable is an optional interface for backends that write the session
// to a file on EndSession.
type Exportable interface {
	GetExportedFilePath() string
}
