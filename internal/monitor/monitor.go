// Package monitor periodically snapshots the running simulation (clock,
// registry, ledger, write queues) into a status file for operators.
package monitor

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/armorer/blackmarket/internal/clock"
	"github.com/armorer/blackmarket/internal/orders"
	"github.com/armorer/blackmarket/internal/registry"
	"github.com/armorer/blackmarket/internal/worker"
)

// ClientCounter is implemented by the messaging hub.
type ClientCounter interface {
	ClientCount() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Log           *slog.Logger
	Clock         clock.View
	Ledger        *orders.Ledger
	Registry      *registry.AgentRegistry
	WorkerManager *worker.Manager
	Hub           ClientCounter
	StatusDir     string
}

// Status is the snapshot written to the status file.
type Status struct {
	Time                time.Time      `json:"time"`
	GameHour            float64        `json:"gameHour"`
	Day                 int            `json:"day"`
	RegisteredAgents    int            `json:"registeredAgents"`
	ActiveAgents        int            `json:"activeAgents"`
	ActiveOrders        int            `json:"activeOrders"`
	QueueDepths         map[string]int `json:"queueDepths"`
	LastWriteDurationMs float32        `json:"lastWriteDurationMs"`
	ConnectedClients    int            `json:"connectedClients"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot collects the current status.
func (s *Service) Snapshot() Status {
	st := Status{
		Time:                time.Now(),
		GameHour:            s.deps.Clock.CurrentHour(),
		Day:                 s.deps.Clock.Day(),
		RegisteredAgents:    s.deps.Registry.Count(),
		ActiveAgents:        s.deps.Registry.ActiveCount(),
		ActiveOrders:        s.deps.Ledger.Size(),
		QueueDepths:         s.deps.WorkerManager.QueueDepths(),
		LastWriteDurationMs: float32(s.deps.WorkerManager.GetLastDBWriteDuration().Milliseconds()),
	}
	if s.deps.Hub != nil {
		st.ConnectedClients = s.deps.Hub.ClientCount()
	}
	return st
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Log.Debug("starting status monitor")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.json"))
		if err != nil {
			s.deps.Log.Error("error creating status file", "error", err)
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				status := s.Snapshot()
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					s.deps.Log.Error("error encoding status", "error", err)
					continue
				}

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.Write(data)
					statusFile.WriteString("\n")
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
