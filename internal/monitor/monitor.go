// Package monitor periodically snapshots bridge health and ships it to
// a status file and InfluxDB.
package monitor

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/sigtak/bridge/internal/handlers"
	"github.com/sigtak/bridge/internal/influx"
	"github.com/sigtak/bridge/internal/queue"
	"github.com/sigtak/bridge/internal/signal"
)

// DefaultInterval is how often a snapshot is taken when the config does
// not say otherwise.
const DefaultInterval = time.Minute

// Snapshot is one observation of bridge health.
type Snapshot struct {
	Time            time.Time `json:"time"`
	DaemonConnected bool      `json:"daemonConnected"`
	QueueDepth      int       `json:"queueDepth"`
	MarkersProduced uint64    `json:"markersProduced"`
	MessagesDropped uint64    `json:"messagesDropped"`
}

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	Handler *handlers.Service
	Queue   *queue.Queue[[]byte]
	Client  *signal.Client
	Logger  *slog.Logger

	// Influx is optional; when nil, snapshots only go to the status file.
	Influx *influx.Manager

	// StatusPath is optional; when set, the latest snapshot is kept there
	// as JSON.
	StatusPath string

	Interval time.Duration
}

// Service takes periodic health snapshots in the background.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot returns the current bridge health.
func (s *Service) Snapshot() Snapshot {
	snap := Snapshot{Time: time.Now()}
	if s.deps.Client != nil {
		snap.DaemonConnected = s.deps.Client.Connected()
	}
	if s.deps.Queue != nil {
		snap.QueueDepth = s.deps.Queue.Len()
	}
	if s.deps.Handler != nil {
		stats := s.deps.Handler.Stats()
		snap.MarkersProduced = stats.MarkersProduced
		snap.MessagesDropped = stats.MessagesDropped
	}
	return snap
}

// Start starts the monitor goroutine. Starting a running monitor is a
// no-op.
func (s *Service) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
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

		s.deps.Logger.Debug("Starting status monitor", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.report(s.Snapshot())
			}
		}
	}()
}

func (s *Service) report(snap Snapshot) {
	if s.deps.StatusPath != "" {
		if err := s.writeStatusFile(snap); err != nil {
			s.deps.Logger.Error("Error writing status file", "error", err)
		}
	}

	if s.deps.Influx != nil {
		point := influxdb2.NewPointWithMeasurement("bridge_status").
			AddTag("daemonConnected", boolTag(snap.DaemonConnected)).
			AddField("queueDepth", snap.QueueDepth).
			AddField("markersProduced", int64(snap.MarkersProduced)).
			AddField("messagesDropped", int64(snap.MessagesDropped)).
			SetTime(snap.Time)
		if err := s.deps.Influx.WritePoint(point); err != nil {
			s.deps.Logger.Error("Error writing status point", "error", err)
		}
	}
}

func (s *Service) writeStatusFile(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0644)
}

// Stop stops the monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
