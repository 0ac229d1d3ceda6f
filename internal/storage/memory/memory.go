// Package memory stores a session's ledger in memory and exports it to a
// JSON file when the session ends.
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/model"
)

// sessionExport is the JSON document written on session end.
type sessionExport struct {
	Session     model.SessionInfo        `json:"session"`
	EndedAt     time.Time                `json:"endedAt"`
	Orders      []model.Order            `json:"orders"`
	Settlements []model.SettlementRecord `json:"settlements"`
	Meetings    []model.MeetingEvent     `json:"meetings"`
	AgentStates []model.AgentStateRecord `json:"agentStates"`
}

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *model.SessionInfo

	orderIndex map[string]int
	orders     []model.Order

	settlements []model.SettlementRecord
	meetings    []model.MeetingEvent
	states      []model.AgentStateRecord

	exportedPath string
	mu           sync.Mutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:        cfg,
		orderIndex: make(map[string]int),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return os.MkdirAll(b.cfg.OutputDir, 0o755)
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(info *model.SessionInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = info
	b.orderIndex = make(map[string]int)
	b.orders = nil
	b.settlements = nil
	b.meetings = nil
	b.states = nil
	b.exportedPath = ""
	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.exportJSON()
}

// RecordOrder stores a newly generated order
func (b *Backend) RecordOrder(o *model.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i, ok := b.orderIndex[o.ID]; ok {
		b.orders[i] = *o
		return nil
	}
	b.orderIndex[o.ID] = len(b.orders)
	b.orders = append(b.orders, *o)
	return nil
}

// UpdateOrder overwrites an order's stored state
func (b *Backend) UpdateOrder(o *model.Order) error {
	return b.RecordOrder(o)
}

// RecordSettlement stores a delivery settlement
func (b *Backend) RecordSettlement(r *model.SettlementRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.settlements = append(b.settlements, *r)
	return nil
}

// RecordMeetingEvent stores a meeting audit event
func (b *Backend) RecordMeetingEvent(ev *model.MeetingEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.meetings = append(b.meetings, *ev)
	return nil
}

// RecordAgentState stores a schedule state transition
func (b *Backend) RecordAgentState(rec *model.AgentStateRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.states = append(b.states, *rec)
	return nil
}

// GetExportedFilePath returns the path written by the last EndSession.
func (b *Backend) GetExportedFilePath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exportedPath
}

// exportJSON writes the session data to a JSON file, gzipped when
// configured. Caller holds the lock.
func (b *Backend) exportJSON() error {
	if b.session == nil {
		return fmt.Errorf("no session started")
	}

	doc := sessionExport{
		Session:     *b.session,
		EndedAt:     time.Now(),
		Orders:      b.orders,
		Settlements: b.settlements,
		Meetings:    b.meetings,
		AgentStates: b.states,
	}

	name := fmt.Sprintf("%s_%s.json",
		sanitizeName(b.session.WorldName),
		time.Now().Format("2006-01-02_150405"))
	path := filepath.Join(b.cfg.OutputDir, name)

	if b.cfg.CompressOutput {
		path += ".gz"
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()

		gz := gzip.NewWriter(f)
		if err := json.NewEncoder(gz).Encode(doc); err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("closing gzip writer: %w", err)
		}
	} else {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}
	}

	b.exportedPath = path
	return nil
}

func sanitizeName(s string) string {
	if s == "" {
		return "session"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
