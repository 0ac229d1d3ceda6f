package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"defaultTag": "Downtown",
		"schedule": { "wakeUpTime": 7.5, "sleepTime": 23 },
		"storage": { "type": "sqlite" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blackmarket.cfg.json"), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "Downtown", viper.GetString("defaultTag"))
	assert.Equal(t, 7.5, viper.GetFloat64("schedule.wakeUpTime"))
	assert.Equal(t, 23.0, viper.GetFloat64("schedule.sleepTime"))
	assert.Equal(t, "sqlite", Storage().Type)

	// Unset keys keep their defaults.
	assert.Equal(t, 9.0, ScheduleTimes().WorkStartTime)
	assert.Equal(t, 12.0, ScheduleTimes().BreakStartTime)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blackmarket.cfg.json"), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./bmlogs", viper.GetString("logsDir"))
	assert.Equal(t, 60.0, viper.GetFloat64("clock.timeScale"))

	times := ScheduleTimes()
	assert.Equal(t, 6.0, times.WakeUpTime)
	assert.Equal(t, 9.0, times.WorkStartTime)
	assert.Equal(t, 17.0, times.WorkEndTime)
	assert.Equal(t, 22.0, times.SleepTime)
	assert.Equal(t, 12.0, times.BreakStartTime)
	assert.Equal(t, 13.0, times.BreakEndTime)

	meeting := Meeting()
	assert.Equal(t, 0.083, meeting.WaitWindowHours)
	assert.Equal(t, 2.0, meeting.ArrivalThreshold)

	orders := Orders()
	assert.Equal(t, 180, orders.MinIntervalSeconds)
	assert.Equal(t, 600, orders.MaxIntervalSeconds)
	assert.Equal(t, 0.5, orders.AttachmentChance)
	assert.Equal(t, 30, orders.PickupGraceMinutes)

	storage := Storage()
	assert.Equal(t, "memory", storage.Type)
	assert.Equal(t, "./ledger", storage.Memory.OutputDir)
	assert.False(t, storage.Memory.CompressOutput)

	assert.False(t, viper.GetBool("influx.enabled"))
	assert.False(t, viper.GetBool("graylog.enabled"))
	assert.False(t, viper.GetBool("messaging.enabled"))

	assert.Equal(t, time.Second, TickInterval())
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	require.Error(t, err)
}
