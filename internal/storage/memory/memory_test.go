package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/model"
)

func startedBackend(t *testing.T, cfg config.MemoryConfig) *Backend {
	t.Helper()

	b := New(cfg)
	require.NoError(t, b.Init())
	require.NoError(t, b.StartSession(&model.SessionInfo{
		WorldName: "harbor town",
		Tag:       "Night",
		StartedAt: time.Now(),
	}))
	return b
}

func TestBackend_ExportJSON(t *testing.T) {
	dir := t.TempDir()
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir})

	require.NoError(t, b.RecordOrder(&model.Order{ID: "o1", AgentID: 4, Weapon: "ak_pattern"}))
	require.NoError(t, b.UpdateOrder(&model.Order{ID: "o1", AgentID: 4, Weapon: "ak_pattern", Accepted: true}))
	require.NoError(t, b.RecordSettlement(&model.SettlementRecord{OrderID: "o1", AgentID: 4, Paid: true, Amount: 900}))
	require.NoError(t, b.RecordMeetingEvent(&model.MeetingEvent{AgentID: 4, Kind: "scheduled", MeetingTime: 13}))
	require.NoError(t, b.RecordAgentState(&model.AgentStateRecord{AgentID: 4, From: model.StateWorking, To: model.StateGoingToMeeting}))

	require.NoError(t, b.EndSession())

	path := b.GetExportedFilePath()
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc sessionExport
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "harbor town", doc.Session.WorldName)
	assert.Contains(t, path, "harbor_town", "file name is sanitized")
	require.Len(t, doc.Orders, 1)
	assert.True(t, doc.Orders[0].Accepted, "update overwrites the stored order")
	assert.Len(t, doc.Settlements, 1)
	assert.Len(t, doc.Meetings, 1)
	assert.Len(t, doc.AgentStates, 1)
}

func TestBackend_ExportGzip(t *testing.T) {
	dir := t.TempDir()
	b := startedBackend(t, config.MemoryConfig{OutputDir: dir, CompressOutput: true})

	require.NoError(t, b.RecordOrder(&model.Order{ID: "o1"}))
	require.NoError(t, b.EndSession())

	path := b.GetExportedFilePath()
	assert.Contains(t, path, ".json.gz")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var doc sessionExport
	require.NoError(t, json.NewDecoder(gz).Decode(&doc))
	assert.Len(t, doc.Orders, 1)
}

func TestBackend_EndSessionWithoutStart(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.Init())
	assert.Error(t, b.EndSession())
}

func TestBackend_StartSessionResets(t *testing.T) {
	b := startedBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, b.RecordOrder(&model.Order{ID: "o1"}))

	require.NoError(t, b.StartSession(&model.SessionInfo{WorldName: "w2", StartedAt: time.Now()}))
	require.NoError(t, b.EndSession())

	data, err := os.ReadFile(b.GetExportedFilePath())
	require.NoError(t, err)
	var doc sessionExport
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Empty(t, doc.Orders)
}
