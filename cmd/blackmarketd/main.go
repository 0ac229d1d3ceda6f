// blackmarketd runs the black-market simulation core as a standalone daemon:
// the game clock, agent schedules, order generation, and the storage,
// telemetry, and messaging pipelines behind them. Game integrations talk to
// the internal packages directly; this binary exists for headless operation
// and demos.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/armorer/blackmarket/internal/clock"
	"github.com/armorer/blackmarket/internal/config"
	"github.com/armorer/blackmarket/internal/delivery"
	"github.com/armorer/blackmarket/internal/dispatcher"
	"github.com/armorer/blackmarket/internal/logging"
	"github.com/armorer/blackmarket/internal/messaging"
	"github.com/armorer/blackmarket/internal/model"
	"github.com/armorer/blackmarket/internal/monitor"
	"github.com/armorer/blackmarket/internal/orders"
	intOtel "github.com/armorer/blackmarket/internal/otel"
	"github.com/armorer/blackmarket/internal/registry"
	"github.com/armorer/blackmarket/internal/schedule"
	"github.com/armorer/blackmarket/internal/storage"
	"github.com/armorer/blackmarket/internal/telemetry"
	"github.com/armorer/blackmarket/internal/worker"
)

// Version can be set at build time via ldflags.
var Version string = "0.0.1"

const serviceName = "blackmarketd"

var (
	slogManager  *logging.SlogManager
	logger       *slog.Logger
	otelProvider *intOtel.Provider

	// gameClock is referenced by the logging context provider, which may run
	// before the clock exists during startup.
	gameClock *clock.GameClock

	sessionStart = time.Now()
)

// clockContext stamps every log record with the simulation time.
func clockContext() []slog.Attr {
	if gameClock == nil {
		return nil
	}
	return []slog.Attr{
		slog.Float64("gameHour", gameClock.CurrentHour()),
		slog.Int("day", gameClock.Day()),
	}
}

func main() {
	configDir := flag.String("config", ".", "directory containing blackmarket.cfg.json")
	demo := flag.Bool("demo", false, "spawn demo agents and drive the order lifecycle")
	flag.Parse()

	// Console-only logging until the config and log file are available.
	slogManager = logging.NewSlogManager()
	slogManager.Setup(viper.GetString("logLevel"), logging.Options{})
	logger = slogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config")
	}

	logsDir := config.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}

	logFilePath := logging.LogFilePath(logsDir, serviceName, sessionStart)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
	}

	otelCfg := config.OTel()
	if otelCfg.Enabled {
		otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			logger.Error("Failed to initialize OTel provider", "error", err)
			otelProvider = nil
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if otelProvider != nil {
		otelLogProvider = otelProvider.LoggerProvider()
	}

	graylogAddr := ""
	if config.GetBool("graylog.enabled") {
		graylogAddr = config.GetString("graylog.address")
	}

	slogManager.Setup(config.GetString("logLevel"), logging.Options{
		File:           logFile,
		OTelProvider:   otelLogProvider,
		GraylogAddress: graylogAddr,
		Context:        clockContext,
	})
	logger = slogManager.Logger()
	logger.Info("Logging to file", "path", logFilePath, "version", Version)

	if err := run(logsDir, *demo); err != nil {
		logger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(logsDir string, demo bool) error {
	dbLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	backend, err := storage.NewBackend(config.Storage(), dbLog)
	if err != nil {
		return fmt.Errorf("creating storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}
	if err := backend.StartSession(&model.SessionInfo{
		WorldName: config.GetString("worldName"),
		Tag:       config.GetString("defaultTag"),
		StartedAt: sessionStart,
	}); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	workerManager := worker.NewManager(backend, logger)
	workerManager.RegisterHandlers(d)
	workerManager.Start(time.Second)

	gameClock = clock.New(
		config.GetFloat("clock.timeScale"),
		config.GetFloat("clock.startHour"),
		logger,
	)

	var notify orders.Notifier = orders.NopNotifier{}
	var hub *messaging.Hub
	if config.GetBool("messaging.enabled") {
		hub = messaging.NewHub(logger)
		hub.Start(config.GetString("messaging.listenAddr"))
		notify = hub
	}

	var influx *telemetry.Manager
	if config.GetBool("influx.enabled") {
		influx = telemetry.NewManager(dbLog, filepath.Join(logsDir, "telemetry_backup.lp.gz"))
		if err := influx.Connect(); err != nil {
			logger.Warn("Telemetry unavailable, continuing without it", "error", err)
			influx = nil
		}
	}

	reg := registry.New(gameClock, nil, logger)
	ledger := orders.NewLedger(config.Orders(), reg, notify, gameClock, logger)

	hooks := makeHooks(d, influx)

	catalog := demoCatalog()
	spots := demoMeetingSpots()
	if demo {
		spawnAgents(reg, gameClock, hooks, logger)
		logger.Info("Demo agents spawned", "count", reg.Count())
	}

	generator := orders.NewGenerator(config.Orders(), catalog, spots, reg, ledger, notify, logger)
	verifier := delivery.NewVerifier(ledger, reg, delivery.NewBuildRegistry(), logger)

	gameClock.OnHourChanged(func(hour float64) {
		reg.TickAll(hour)
	})
	gameClock.OnDayChanged(func(day int) {
		reg.Sweep(gameClock.CurrentHour())
	})

	monitorDeps := monitor.Dependencies{
		Log:           logger,
		Clock:         gameClock,
		Ledger:        ledger,
		Registry:      reg,
		WorkerManager: workerManager,
		StatusDir:     logsDir,
	}
	if hub != nil {
		monitorDeps.Hub = hub
	}
	monitorService := monitor.NewService(monitorDeps)
	if err := monitorService.Start(); err != nil {
		logger.Error("Failed to start status monitor", "error", err)
	}

	// All scheduler and ledger access funnels through this channel onto the
	// tick goroutine, keeping the simulation on one cooperative timeline.
	commands := make(chan func(), 64)

	if demo {
		driver := newDemoDriver(commands, d, ledger, verifier, influx, logger)
		go driver.run()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(config.TickInterval())
	defer ticker.Stop()

	last := time.Now()
	logger.Info("Simulation running",
		"timeScale", config.GetFloat("clock.timeScale"),
		"startHour", gameClock.CurrentHour())

	for {
		select {
		case <-sig:
			logger.Info("Shutdown signal received")
			shutdown(monitorService, workerManager, hub, influx, backend)
			return nil

		case now := <-ticker.C:
			drainCommands(commands)
			gameClock.Advance(now.Sub(last))
			last = now

			if o := generator.Tick(now); o != nil {
				d.Dispatch(dispatcher.Event{Topic: worker.TopicOrderNew, Payload: *o, At: now})
				if influx != nil {
					influx.RecordOrderEvent(context.Background(), "requested", *o)
				}
			}

			for _, o := range ledger.Sweep(now) {
				d.Dispatch(dispatcher.Event{Topic: worker.TopicOrderUpdate, Payload: o, At: now})
				if influx != nil {
					influx.RecordOrderEvent(context.Background(), "expired", o)
				}
			}
		}
	}
}

// makeHooks routes scheduler transitions into the storage pipeline and
// telemetry.
func makeHooks(d *dispatcher.Dispatcher, influx *telemetry.Manager) schedule.Hooks {
	return schedule.Hooks{
		StateChanged: func(rec model.AgentStateRecord) {
			d.Dispatch(dispatcher.Event{Topic: worker.TopicAgentState, Payload: rec, At: rec.At})
			if influx != nil {
				influx.RecordAgentState(context.Background(), rec)
			}
		},
		MeetingEvent: func(ev model.MeetingEvent) {
			d.Dispatch(dispatcher.Event{Topic: worker.TopicMeetingEvent, Payload: ev, At: ev.At})
			if influx != nil {
				influx.RecordMeetingEvent(context.Background(), ev)
			}
		},
	}
}

func drainCommands(commands chan func()) {
	for {
		select {
		case fn := <-commands:
			fn()
		default:
			return
		}
	}
}

func shutdown(monitorService *monitor.Service, workerManager *worker.Manager, hub *messaging.Hub, influx *telemetry.Manager, backend storage.Backend) {
	monitorService.Stop()
	workerManager.Stop()

	if hub != nil {
		if err := hub.Close(); err != nil {
			logger.Error("Error closing messaging hub", "error", err)
		}
	}
	if influx != nil {
		influx.Close()
	}

	if err := backend.EndSession(); err != nil {
		logger.Error("Error ending session", "error", err)
	}
	if exp, ok := backend.(storage.Exportable); ok {
		logger.Info("Session exported", "path", exp.GetExportedFilePath())
	}
	if err := backend.Close(); err != nil {
		logger.Error("Error closing storage backend", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if otelProvider != nil {
		if err := otelProvider.Flush(ctx); err != nil {
			logger.Warn("Failed to flush OTel data", "error", err)
		}
		if err := otelProvider.Shutdown(ctx); err != nil {
			logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	slogManager.Flush(ctx) //nolint:errcheck

	logger.Info("Shutdown complete")
}
