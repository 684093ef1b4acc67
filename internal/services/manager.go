// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/sipsmart/sipstream/internal/config"
	"github.com/sipsmart/sipstream/internal/db"
	"github.com/sipsmart/sipstream/internal/engine"
	"github.com/sipsmart/sipstream/internal/link"
	"github.com/sipsmart/sipstream/internal/link/nus"
	"github.com/sipsmart/sipstream/internal/logger"
	"github.com/sipsmart/sipstream/internal/models"
	"github.com/sipsmart/sipstream/internal/supervisor"
)

type (
	// ConnectionChangedEvent is emitted when the link state or status
	// text changes.
	ConnectionChangedEvent struct {
		State  models.ConnState
		Status string
	}

	// MetricsUpdatedEvent is emitted after each ingested sample.
	MetricsUpdatedEvent struct {
		Metrics models.Metrics
	}

	// SipRecordedEvent is emitted when a drinking event is finalized.
	SipRecordedEvent struct {
		Sip models.SipEvent
	}

	// GoalReachedEvent is emitted once when today's total crosses the
	// daily hydration goal.
	GoalReachedEvent struct {
		TodayML float64
		GoalML  float64
	}

	// TuningChangedEvent is emitted when a config reload changes the sip
	// segmentation tuning.
	TuningChangedEvent struct {
		ThresholdML float64
		Gap         time.Duration
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (ConnectionChangedEvent) isServiceEvent() {}
func (MetricsUpdatedEvent) isServiceEvent()    {}
func (SipRecordedEvent) isServiceEvent()       {}
func (GoalReachedEvent) isServiceEvent()       {}
func (TuningChangedEvent) isServiceEvent()     {}
func (ErrorEvent) isServiceEvent()             {}

// Manager orchestrates the stream supervisor, session store, and config
// watcher, and routes their events to subscribers.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	sup         *supervisor.Supervisor
	database    *db.DB
	watcher     *config.Watcher
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent

	goalNotified bool
	wasConnected bool
}

// NewManager creates a service manager over the real BLE link.
func NewManager(cfg *config.Config) (*Manager, error) {
	return NewManagerWithLink(cfg, nus.New())
}

// NewManagerWithLink creates a service manager over the given device
// link. Tests use this with a fake link.
func NewManagerWithLink(cfg *config.Config, l link.Link) (*Manager, error) {
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	eng := engine.New(engine.Config{
		ActiveThresholdML: cfg.SipThresholdML,
		Gap:               cfg.SipGap,
	})
	win := engine.NewRollingWindow(cfg.ChartWindow)

	supCfg := supervisor.DefaultConfig()
	supCfg.DeviceName = cfg.DeviceName
	supCfg.Characteristic = cfg.Characteristic
	supCfg.ScanTimeout = cfg.ScanTimeout

	m := &Manager{
		cfg:      cfg,
		sup:      supervisor.New(l, eng, win, database, supCfg),
		database: database,
		stopChan: make(chan struct{}),
	}

	if cfg.EnvPath() != "" {
		m.watcher, err = config.NewWatcher(cfg.EnvPath())
		if err != nil {
			logger.Warn("config watcher unavailable", "error", err)
			m.watcher = nil
		}
	}

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	var watchChan <-chan config.WatchEvent
	if m.watcher != nil {
		watchChan = m.watcher.Events()
	}

	for {
		select {
		case event := <-m.sup.Events():
			m.handleSupervisorEvent(event)

		case event := <-watchChan:
			m.handleConfigEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleSupervisorEvent(event supervisor.Event) {
	switch event.Type {
	case supervisor.EventStatusChanged:
		m.broadcast(ConnectionChangedEvent{State: m.sup.Snapshot().ConnState, Status: event.Status})

	case supervisor.EventConnected:
		m.mu.Lock()
		m.wasConnected = true
		m.mu.Unlock()
		m.broadcast(ConnectionChangedEvent{State: models.ConnConnected, Status: event.Status})

	case supervisor.EventDisconnected:
		m.mu.Lock()
		notify := m.wasConnected
		m.wasConnected = false
		m.mu.Unlock()
		if notify {
			_ = beeep.Notify("SipStream", "Sensor link lost. Reconnecting…", "")
		}
		m.broadcast(ConnectionChangedEvent{State: models.ConnDisconnected, Status: event.Status})

	case supervisor.EventSampleIngested:
		m.checkGoal(event.Metrics)
		m.broadcast(MetricsUpdatedEvent{Metrics: event.Metrics})

	case supervisor.EventSipFinalized:
		if event.Sip != nil {
			m.broadcast(SipRecordedEvent{Sip: *event.Sip})
		}

	case supervisor.EventError:
		m.broadcast(ErrorEvent{Service: "stream", Error: event.Error})
	}
}

// checkGoal fires a one-shot desktop notification when today's total
// crosses the daily goal; the latch re-arms when the total drops back
// below (day rollover or reset).
func (m *Manager) checkGoal(metrics models.Metrics) {
	m.mu.Lock()
	goal := m.cfg.DailyGoalML
	if goal <= 0 {
		m.mu.Unlock()
		return
	}

	if metrics.TodayML < goal {
		m.goalNotified = false
		m.mu.Unlock()
		return
	}

	if m.goalNotified {
		m.mu.Unlock()
		return
	}
	m.goalNotified = true
	m.mu.Unlock()

	title := "SipStream"
	body := fmt.Sprintf("Daily goal reached: %.0f mL of %.0f mL", metrics.TodayML, goal)
	_ = beeep.Notify(title, body, "")

	m.broadcast(GoalReachedEvent{TodayML: metrics.TodayML, GoalML: goal})
}

func (m *Manager) handleConfigEvent(event config.WatchEvent) {
	if event.Error != nil {
		m.broadcast(ErrorEvent{Service: "config", Error: event.Error})
		return
	}
	if event.Config == nil {
		return
	}

	m.mu.Lock()
	m.cfg.SipThresholdML = event.Config.SipThresholdML
	m.cfg.SipGap = event.Config.SipGap
	m.cfg.DailyGoalML = event.Config.DailyGoalML
	m.mu.Unlock()

	m.sup.SetTuning(event.Config.SipThresholdML, event.Config.SipGap)
	logger.Info("sip tuning reloaded",
		"threshold_ml", event.Config.SipThresholdML,
		"gap", event.Config.SipGap)

	m.broadcast(TuningChangedEvent{
		ThresholdML: event.Config.SipThresholdML,
		Gap:         event.Config.SipGap,
	})
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
func (m *Manager) Subscribe() chan ServiceEvent {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// StartStream starts the connection supervisor. Idempotent.
func (m *Manager) StartStream() {
	m.sup.Start()
}

// StopStream stops the connection supervisor, disconnecting gracefully.
// Idempotent.
func (m *Manager) StopStream() {
	m.sup.Stop()
}

// Streaming reports whether the supervision loop is running.
func (m *Manager) Streaming() bool {
	return m.sup.Running()
}

// Reset clears today's total, the last sip, the chart, and the session
// sip history. The lifetime total is untouched.
func (m *Manager) Reset() {
	m.sup.Reset()

	if err := m.database.Clear(); err != nil {
		logger.Error("failed to clear sip history", "error", err)
		m.broadcast(ErrorEvent{Service: "store", Error: err})
	}

	m.mu.Lock()
	m.goalNotified = false
	m.mu.Unlock()
}

// Snapshot returns the current published state for the metrics sink.
func (m *Manager) Snapshot() models.Snapshot {
	return m.sup.Snapshot()
}

// Sips returns up to limit recorded sips, newest first.
func (m *Manager) Sips(limit int) ([]models.SipEvent, error) {
	return m.database.ListSips(limit)
}

// SessionStats returns aggregates over the recorded sips.
func (m *Manager) SessionStats() (models.SessionStats, error) {
	return m.database.SessionStats()
}

// Config returns the live configuration.
func (m *Manager) Config() *config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Tuning returns the current sip segmentation tuning.
func (m *Manager) Tuning() (thresholdML float64, gap time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.SipThresholdML, m.cfg.SipGap
}

// Close stops the stream and all services.
func (m *Manager) Close() error {
	m.sup.Stop()
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := m.database.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
