// Package sqldb is the gorm-backed storage backend. It works against
// Postgres or SQLite; with an in-memory SQLite database it can dump itself
// to disk on an interval so a crash loses at most one interval of data.
package sqldb

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/armorer/blackmarket/internal/model"
)

// SessionRow is one recorded play session.
type SessionRow struct {
	ID        uint `gorm:"primarykey"`
	WorldName string
	Tag       string
	StartedAt time.Time
	EndedAt   *time.Time
}

func (SessionRow) TableName() string { return "sessions" }

// OrderRow is the persisted state of an order, updated in place as the
// order moves through its lifecycle.
type OrderRow struct {
	OrderID        string `gorm:"primaryKey;size:36"`
	SessionID      uint   `gorm:"index"`
	AgentID        uint16
	Weapon         string
	Slots          datatypes.JSON
	LocationName   string
	AgreedPrice    float64
	PickupAt       time.Time
	PickupGameHour float64
	PriceSet       bool
	Accepted       bool
	Completed      bool
	Paid           bool
	FailReason     string
	CreatedAt      time.Time
}

func (OrderRow) TableName() string { return "orders" }

// SettlementRow is one delivery settlement.
type SettlementRow struct {
	ID         uint   `gorm:"primarykey"`
	SessionID  uint   `gorm:"index"`
	OrderID    string `gorm:"index;size:36"`
	AgentID    uint16
	LoadoutID  string
	Paid       bool
	Amount     float64
	FailReason string
	At         time.Time
}

func (SettlementRow) TableName() string { return "settlements" }

// MeetingEventRow is one meeting audit event.
type MeetingEventRow struct {
	ID          uint `gorm:"primarykey"`
	SessionID   uint `gorm:"index"`
	AgentID     uint16
	Kind        string
	MeetingTime float64
	ArrivalTime float64
	Location    string
	GameHour    float64
	At          time.Time
}

func (MeetingEventRow) TableName() string { return "meeting_events" }

// AgentStateRow is one schedule state transition.
type AgentStateRow struct {
	ID        uint `gorm:"primarykey"`
	SessionID uint `gorm:"index"`
	AgentID   uint16
	FromState string
	ToState   string
	GameHour  float64
	Day       int
	At        time.Time
}

func (AgentStateRow) TableName() string { return "agent_states" }

var tables = []any{
	&SessionRow{},
	&OrderRow{},
	&SettlementRow{},
	&MeetingEventRow{},
	&AgentStateRow{},
}

// DumpFunc writes an in-memory database to a file.
type DumpFunc func(db *gorm.DB, path string) error

// Option configures the backend.
type Option func(*Backend)

// WithPeriodicDump dumps the database to path on the given interval and
// once more on Close.
func WithPeriodicDump(dump DumpFunc, path string, interval time.Duration) Option {
	return func(b *Backend) {
		b.dump = dump
		b.dumpPath = path
		b.dumpInterval = interval
	}
}

// Backend persists the ledger through gorm.
type Backend struct {
	db  *gorm.DB
	log *slog.Logger

	dump         DumpFunc
	dumpPath     string
	dumpInterval time.Duration
	stopDump     chan struct{}
	dumpDone     chan struct{}

	mu        sync.Mutex
	sessionID uint
	lastWrite time.Duration
}

// New creates a backend over an open gorm connection.
func New(db *gorm.DB, log *slog.Logger, opts ...Option) *Backend {
	if log == nil {
		log = slog.Default()
	}
	b := &Backend{db: db, log: log}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init migrates the schema and starts the dump loop when configured.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	if b.dump != nil && b.dumpInterval > 0 {
		b.stopDump = make(chan struct{})
		b.dumpDone = make(chan struct{})
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump loop, writes a final dump, and closes the
// connection.
func (b *Backend) Close() error {
	if b.stopDump != nil {
		close(b.stopDump)
		<-b.dumpDone
	}
	if b.dump != nil {
		if err := b.dump(b.db, b.dumpPath); err != nil {
			b.log.Error("final database dump failed", "error", err)
		}
	}

	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartSession inserts the session row all later records attach to.
func (b *Backend) StartSession(info *model.SessionInfo) error {
	row := SessionRow{
		WorldName: info.WorldName,
		Tag:       info.Tag,
		StartedAt: info.StartedAt,
	}
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	b.mu.Lock()
	b.sessionID = row.ID
	b.mu.Unlock()
	return nil
}

// EndSession stamps the session's end time.
func (b *Backend) EndSession() error {
	now := time.Now()
	return b.db.Model(&SessionRow{}).
		Where("id = ?", b.session()).
		Update("ended_at", &now).Error
}

// RecordOrder stores a newly generated order.
func (b *Backend) RecordOrder(o *model.Order) error {
	return b.timed(func() error {
		row, err := b.orderRow(o)
		if err != nil {
			return err
		}
		return b.db.Save(row).Error
	})
}

// UpdateOrder overwrites an order's stored state.
func (b *Backend) UpdateOrder(o *model.Order) error {
	return b.RecordOrder(o)
}

// RecordSettlement stores a delivery settlement.
func (b *Backend) RecordSettlement(r *model.SettlementRecord) error {
	return b.timed(func() error {
		return b.db.Create(&SettlementRow{
			SessionID:  b.session(),
			OrderID:    r.OrderID,
			AgentID:    uint16(r.AgentID),
			LoadoutID:  r.LoadoutID,
			Paid:       r.Paid,
			Amount:     r.Amount,
			FailReason: r.FailReason,
			At:         r.At,
		}).Error
	})
}

// RecordMeetingEvent stores a meeting audit event.
func (b *Backend) RecordMeetingEvent(ev *model.MeetingEvent) error {
	return b.timed(func() error {
		return b.db.Create(&MeetingEventRow{
			SessionID:   b.session(),
			AgentID:     uint16(ev.AgentID),
			Kind:        ev.Kind,
			MeetingTime: ev.MeetingTime,
			ArrivalTime: ev.ArrivalTime,
			Location:    ev.Location,
			GameHour:    ev.GameHour,
			At:          ev.At,
		}).Error
	})
}

// RecordAgentState stores a schedule state transition.
func (b *Backend) RecordAgentState(rec *model.AgentStateRecord) error {
	return b.timed(func() error {
		return b.db.Create(&AgentStateRow{
			SessionID: b.session(),
			AgentID:   uint16(rec.AgentID),
			FromState: rec.From.String(),
			ToState:   rec.To.String(),
			GameHour:  rec.GameHour,
			Day:       rec.Day,
			At:        rec.At,
		}).Error
	})
}

// GetLastDBWriteDuration returns the duration of the last write.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWrite
}

func (b *Backend) orderRow(o *model.Order) (*OrderRow, error) {
	slots, err := json.Marshal(o.Slots)
	if err != nil {
		return nil, fmt.Errorf("encoding slots: %w", err)
	}
	return &OrderRow{
		OrderID:        o.ID,
		SessionID:      b.session(),
		AgentID:        uint16(o.AgentID),
		Weapon:         o.Weapon,
		Slots:          datatypes.JSON(slots),
		LocationName:   o.Location.Name,
		AgreedPrice:    o.AgreedPrice,
		PickupAt:       o.PickupAt,
		PickupGameHour: o.PickupGameHour,
		PriceSet:       o.PriceSet,
		Accepted:       o.Accepted,
		Completed:      o.Completed,
		Paid:           o.Paid,
		FailReason:     o.FailReason,
		CreatedAt:      o.CreatedAt,
	}, nil
}

func (b *Backend) session() uint {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionID
}

func (b *Backend) timed(fn func() error) error {
	start := time.Now()
	err := fn()
	b.mu.Lock()
	b.lastWrite = time.Since(start)
	b.mu.Unlock()
	return err
}

func (b *Backend) dumpLoop() {
	defer close(b.dumpDone)
	ticker := time.NewTicker(b.dumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.dump(b.db, b.dumpPath); err != nil {
				b.log.Error("periodic database dump failed", "error", err)
			}
		case <-b.stopDump:
			return
		}
	}
}
