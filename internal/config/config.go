package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/armorer/blackmarket/internal/model"
)

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SqliteConfig holds SQLite storage backend settings
type SqliteConfig struct {
	DumpPath            string `json:"dumpPath" mapstructure:"dumpPath"`
	DumpIntervalSeconds int    `json:"dumpIntervalSeconds" mapstructure:"dumpIntervalSeconds"`
}

// StorageConfig selects and configures the ledger storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	Sqlite SqliteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// MeetingConfig holds meeting scheduler tunables
type MeetingConfig struct {
	WaitWindowHours  float64 `json:"waitWindowHours" mapstructure:"waitWindowHours"`
	ArrivalThreshold float64 `json:"arrivalThreshold" mapstructure:"arrivalThreshold"`
	FleeSeconds      float64 `json:"fleeSeconds" mapstructure:"fleeSeconds"`
	FleeDistance     float64 `json:"fleeDistance" mapstructure:"fleeDistance"`
	BedHoldSeconds   float64 `json:"bedHoldSeconds" mapstructure:"bedHoldSeconds"`
}

// OTelConfig holds OpenTelemetry export settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// OrdersConfig holds order generation and sweep tunables
type OrdersConfig struct {
	MinIntervalSeconds int     `json:"minIntervalSeconds" mapstructure:"minIntervalSeconds"`
	MaxIntervalSeconds int     `json:"maxIntervalSeconds" mapstructure:"maxIntervalSeconds"`
	AttachmentChance   float64 `json:"attachmentChance" mapstructure:"attachmentChance"`
	PickupGraceMinutes int     `json:"pickupGraceMinutes" mapstructure:"pickupGraceMinutes"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("defaultTag", "Night")
	viper.SetDefault("logsDir", "./bmlogs")

	viper.SetDefault("clock.timeScale", 60.0) // game seconds per real second
	viper.SetDefault("clock.startHour", 8.0)
	viper.SetDefault("clock.tickSeconds", 1.0)

	viper.SetDefault("schedule.wakeUpTime", 6.0)
	viper.SetDefault("schedule.workStartTime", 9.0)
	viper.SetDefault("schedule.workEndTime", 17.0)
	viper.SetDefault("schedule.sleepTime", 22.0)
	viper.SetDefault("schedule.breakStartTime", 12.0)
	viper.SetDefault("schedule.breakEndTime", 13.0)

	viper.SetDefault("meeting.waitWindowHours", 0.083)
	viper.SetDefault("meeting.arrivalThreshold", 2.0)
	viper.SetDefault("meeting.fleeSeconds", 10.0)
	viper.SetDefault("meeting.fleeDistance", 50.0)
	viper.SetDefault("meeting.bedHoldSeconds", 30.0)

	viper.SetDefault("orders.minIntervalSeconds", 180)
	viper.SetDefault("orders.maxIntervalSeconds", 600)
	viper.SetDefault("orders.attachmentChance", 0.5)
	viper.SetDefault("orders.pickupGraceMinutes", 30)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./ledger")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.dumpPath", "./ledger/blackmarket.db")
	viper.SetDefault("storage.sqlite.dumpIntervalSeconds", 60)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "blackmarket")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "blackmarket-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "blackmarket-core")
	viper.SetDefault("otel.batchTimeoutSeconds", 5)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetDefault("worldName", "westfield")

	viper.SetDefault("messaging.enabled", false)
	viper.SetDefault("messaging.listenAddr", ":8744")

	viper.SetConfigName("blackmarket.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// ScheduleTimes returns the configured schedule boundary times.
func ScheduleTimes() model.ScheduleTimes {
	return model.ScheduleTimes{
		WakeUpTime:     viper.GetFloat64("schedule.wakeUpTime"),
		WorkStartTime:  viper.GetFloat64("schedule.workStartTime"),
		WorkEndTime:    viper.GetFloat64("schedule.workEndTime"),
		SleepTime:      viper.GetFloat64("schedule.sleepTime"),
		BreakStartTime: viper.GetFloat64("schedule.breakStartTime"),
		BreakEndTime:   viper.GetFloat64("schedule.breakEndTime"),
	}
}

// Meeting returns the meeting scheduler settings.
func Meeting() MeetingConfig {
	return MeetingConfig{
		WaitWindowHours:  viper.GetFloat64("meeting.waitWindowHours"),
		ArrivalThreshold: viper.GetFloat64("meeting.arrivalThreshold"),
		FleeSeconds:      viper.GetFloat64("meeting.fleeSeconds"),
		FleeDistance:     viper.GetFloat64("meeting.fleeDistance"),
		BedHoldSeconds:   viper.GetFloat64("meeting.bedHoldSeconds"),
	}
}

// Orders returns the order generation settings.
func Orders() OrdersConfig {
	return OrdersConfig{
		MinIntervalSeconds: viper.GetInt("orders.minIntervalSeconds"),
		MaxIntervalSeconds: viper.GetInt("orders.maxIntervalSeconds"),
		AttachmentChance:   viper.GetFloat64("orders.attachmentChance"),
		PickupGraceMinutes: viper.GetInt("orders.pickupGraceMinutes"),
	}
}

// OTel returns the OpenTelemetry export settings.
func OTel() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: time.Duration(viper.GetInt("otel.batchTimeoutSeconds")) * time.Second,
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// Storage returns the storage backend settings.
func Storage() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		Sqlite: SqliteConfig{
			DumpPath:            viper.GetString("storage.sqlite.dumpPath"),
			DumpIntervalSeconds: viper.GetInt("storage.sqlite.dumpIntervalSeconds"),
		},
	}
}

// TickInterval returns the real-time duration of one simulation tick.
func TickInterval() time.Duration {
	return time.Duration(viper.GetFloat64("clock.tickSeconds") * float64(time.Second))
}
