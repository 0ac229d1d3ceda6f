package sqldb

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/armorer/blackmarket/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func startedBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(openTestDB(t), nil)
	require.NoError(t, b.Init())
	require.NoError(t, b.StartSession(&model.SessionInfo{
		WorldName: "westfield",
		Tag:       "Night",
		StartedAt: time.Now(),
	}))
	return b
}

func TestBackend_SessionLifecycle(t *testing.T) {
	b := startedBackend(t)

	var session SessionRow
	require.NoError(t, b.db.First(&session).Error)
	assert.Equal(t, "westfield", session.WorldName)
	assert.Nil(t, session.EndedAt)

	require.NoError(t, b.EndSession())
	require.NoError(t, b.db.First(&session).Error)
	assert.NotNil(t, session.EndedAt)
}

func TestBackend_OrderUpsert(t *testing.T) {
	b := startedBackend(t)

	o := &model.Order{
		ID:      "ord-1",
		AgentID: 7,
		Weapon:  "ak_pattern",
		Slots:   model.SlotTuple{"holo_sight", "", "suppressor", "", ""},
	}
	require.NoError(t, b.RecordOrder(o))

	o.AgreedPrice = 1200
	o.PriceSet = true
	o.Accepted = true
	require.NoError(t, b.UpdateOrder(o))

	var count int64
	require.NoError(t, b.db.Model(&OrderRow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "update must overwrite, not duplicate")

	var row OrderRow
	require.NoError(t, b.db.First(&row, "order_id = ?", "ord-1").Error)
	assert.Equal(t, 1200.0, row.AgreedPrice)
	assert.True(t, row.Accepted)

	var slots model.SlotTuple
	require.NoError(t, json.Unmarshal(row.Slots, &slots))
	assert.Equal(t, o.Slots, slots)
}

func TestBackend_RecordsAttachToSession(t *testing.T) {
	b := startedBackend(t)

	require.NoError(t, b.RecordSettlement(&model.SettlementRecord{
		OrderID: "ord-2", AgentID: 3, Paid: true, Amount: 900, At: time.Now(),
	}))
	require.NoError(t, b.RecordMeetingEvent(&model.MeetingEvent{
		AgentID: 3, Kind: "scheduled", MeetingTime: 13, ArrivalTime: 12,
		Location: "old mill", GameHour: 10, At: time.Now(),
	}))
	require.NoError(t, b.RecordAgentState(&model.AgentStateRecord{
		AgentID: 3, From: model.StateWorking, To: model.StateGoingToMeeting,
		GameHour: 12, At: time.Now(),
	}))

	var settlement SettlementRow
	require.NoError(t, b.db.First(&settlement).Error)
	assert.Equal(t, b.session(), settlement.SessionID)

	var meeting MeetingEventRow
	require.NoError(t, b.db.First(&meeting).Error)
	assert.Equal(t, b.session(), meeting.SessionID)
	assert.Equal(t, "scheduled", meeting.Kind)

	var state AgentStateRow
	require.NoError(t, b.db.First(&state).Error)
	assert.Equal(t, "Working", state.FromState)
	assert.Equal(t, "GoingToMeeting", state.ToState)

	assert.Greater(t, b.GetLastDBWriteDuration(), time.Duration(0))
}

func TestBackend_PeriodicDump(t *testing.T) {
	var dumps atomic.Int32
	dump := func(db *gorm.DB, path string) error {
		dumps.Add(1)
		return nil
	}

	b := New(openTestDB(t), nil, WithPeriodicDump(dump, "unused.db", 10*time.Millisecond))
	require.NoError(t, b.Init())

	require.Eventually(t, func() bool { return dumps.Load() > 0 },
		time.Second, 5*time.Millisecond)

	before := dumps.Load()
	require.NoError(t, b.Close())
	assert.Greater(t, dumps.Load(), before, "close writes a final dump")
}
