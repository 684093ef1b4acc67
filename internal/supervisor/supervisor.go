// Package supervisor owns the discover/connect/subscribe/stream/retry loop
// against the device link and is the single writer of the published
// metrics, chart window, and connection status.
package supervisor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sipsmart/sipstream/internal/db"
	"github.com/sipsmart/sipstream/internal/engine"
	"github.com/sipsmart/sipstream/internal/link"
	"github.com/sipsmart/sipstream/internal/logger"
	"github.com/sipsmart/sipstream/internal/models"
	"github.com/sipsmart/sipstream/internal/telemetry"
)

// Event represents a supervisor event.
type Event struct {
	Type    EventType
	Status  string
	Metrics models.Metrics
	Sip     *models.SipEvent
	Error   error
}

// EventType defines the type of supervisor event.
type EventType int

const (
	// EventStatusChanged indicates the human-readable status text changed.
	EventStatusChanged EventType = iota
	// EventConnected indicates the sensor link came up and is subscribed.
	EventConnected
	// EventDisconnected indicates the sensor link went down.
	EventDisconnected
	// EventSampleIngested carries the metrics after one decoded sample.
	EventSampleIngested
	// EventSipFinalized carries one finalized drinking event.
	EventSipFinalized
	// EventError carries a non-fatal stream error.
	EventError
)

// Config holds the supervision loop timing and device matching settings.
type Config struct {
	DeviceName     string
	Characteristic string
	ScanTimeout    time.Duration
	ScanRetryWait  time.Duration
	ReconnectWait  time.Duration
	PollInterval   time.Duration
	FoundPreview   int
}

// DefaultConfig returns the default supervision settings, matching the
// sensor firmware's advertised name and the NUS notify characteristic.
func DefaultConfig() Config {
	return Config{
		DeviceName:     "XIAO_Flow",
		Characteristic: "6e400003-b5a3-f393-e0a9-e50e24dcca9e",
		ScanTimeout:    10 * time.Second,
		ScanRetryWait:  2 * time.Second,
		ReconnectWait:  1500 * time.Millisecond,
		PollInterval:   500 * time.Millisecond,
		FoundPreview:   8,
	}
}

// Supervisor runs the connection loop and feeds decoded samples to the
// segmentation engine and rolling window, strictly in arrival order.
type Supervisor struct {
	cfg   Config
	link  link.Link
	store *db.DB

	// mu guards the ingestion path and published state. Notification
	// handling, Reset, SetTuning, and snapshot reads all go through it,
	// so readers always observe a consistent snapshot.
	mu         sync.RWMutex
	engine     *engine.Engine
	window     *engine.RollingWindow
	conn       link.Conn
	connState  models.ConnState
	status     string
	lastUpdate time.Time

	running   atomic.Bool
	cancel    context.CancelFunc
	stopChan  chan struct{}
	done      chan struct{}
	eventChan chan Event
}

// New creates a supervisor. The store may be nil when sip history
// recording is disabled.
func New(l link.Link, eng *engine.Engine, win *engine.RollingWindow, store *db.DB, cfg Config) *Supervisor {
	if cfg.PollInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Supervisor{
		cfg:       cfg,
		link:      l,
		store:     store,
		engine:    eng,
		window:    win,
		status:    "Idle",
		eventChan: make(chan Event, 100),
	}
}

// Events returns the event channel.
func (s *Supervisor) Events() <-chan Event {
	return s.eventChan
}

// Running reports whether the supervision loop is active.
func (s *Supervisor) Running() bool {
	return s.running.Load()
}

// Start launches the supervision loop. It is a no-op if already running.
func (s *Supervisor) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx)
}

// Stop clears the running flag and waits for the loop to tear down the
// connection. It is a no-op if not running.
func (s *Supervisor) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.cancel()
	close(s.stopChan)
	<-s.done
}

// run is the supervision loop: scan, connect, subscribe, stream, retry.
func (s *Supervisor) run(ctx context.Context) {
	defer close(s.done)

	for s.running.Load() {
		target, ok := s.scan(ctx)
		if !ok {
			continue
		}

		s.setStatus(fmt.Sprintf("Connecting to %s (%s)…", target.Name, target.Address))

		conn, err := s.link.Connect(ctx, target.Address)
		if err != nil {
			s.publishError(fmt.Sprintf("Connect failed: %v. Retrying…", err), err)
			s.waitOrStop(s.cfg.ReconnectWait)
			continue
		}

		if err := conn.Subscribe(s.cfg.Characteristic, s.handleNotification); err != nil {
			_ = conn.Close()
			s.publishError(fmt.Sprintf("Subscribe failed: %v. Retrying…", err), err)
			s.waitOrStop(s.cfg.ReconnectWait)
			continue
		}

		s.attach(conn)
		s.stream(conn)
		s.detach(conn)

		if s.running.Load() {
			s.setStatus("Disconnected. Reconnecting…")
			s.sendEvent(Event{Type: EventDisconnected, Status: "Disconnected. Reconnecting…"})
			s.waitOrStop(s.cfg.ReconnectWait)
		}
	}

	s.setStatus("Stopped.")
}

// scan discovers devices and picks the target. Returns false when the
// loop should retry (or stop).
func (s *Supervisor) scan(ctx context.Context) (link.Advertisement, bool) {
	s.setConnState(models.ConnDisconnected)
	s.setStatus("Scanning for device…")

	devices, err := s.link.Discover(ctx, s.cfg.ScanTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return link.Advertisement{}, false
		}
		s.publishError(fmt.Sprintf("Scan failed: %v. Retrying…", err), err)
		s.waitOrStop(s.cfg.ScanRetryWait)
		return link.Advertisement{}, false
	}

	target, found := matchDevice(devices, s.cfg.DeviceName)
	if !found {
		preview := namesPreview(devices, s.cfg.FoundPreview)
		s.setStatus(fmt.Sprintf("Not found: %s. Found: %s. Retrying…", s.cfg.DeviceName, preview))
		s.waitOrStop(s.cfg.ScanRetryWait)
		return link.Advertisement{}, false
	}

	return target, true
}

// attach publishes the connected state for a fresh subscription.
func (s *Supervisor) attach(conn link.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.connState = models.ConnConnected
	s.status = "Connected. Subscribed to notifications."
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventConnected, Status: "Connected. Subscribed to notifications."})
}

// stream polls link liveness until the link drops or the loop is stopped.
// Notifications arrive on the link's callback, independent of this poll.
func (s *Supervisor) stream(conn link.Conn) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if !s.running.Load() || !conn.Alive() {
				return
			}
		}
	}
}

// detach releases the connection with best-effort unsubscribe and close;
// failure of one does not block the other.
func (s *Supervisor) detach(conn link.Conn) {
	if err := conn.Unsubscribe(); err != nil {
		logger.Debug("unsubscribe failed", "error", err)
	}
	if err := conn.Close(); err != nil {
		logger.Debug("disconnect failed", "error", err)
	}

	s.mu.Lock()
	s.conn = nil
	s.connState = models.ConnDisconnected
	s.mu.Unlock()
}

// handleNotification decodes one inbound payload and, if valid, runs it
// through the engine and window as a single critical section.
func (s *Supervisor) handleNotification(data []byte) {
	sample, ok := telemetry.Decode(string(data))
	if !ok {
		return
	}

	s.mu.Lock()
	metrics, sip := s.engine.Ingest(sample)
	s.window.Record(sample)
	s.lastUpdate = sample.Timestamp
	s.mu.Unlock()

	if sip != nil && s.store != nil {
		stored, err := s.store.RecordSip(*sip)
		if err != nil {
			logger.Error("failed to record sip", "error", err)
			s.sendEvent(Event{Type: EventError, Error: err})
		} else {
			sip = &stored
		}
	}

	s.sendEvent(Event{Type: EventSampleIngested, Metrics: metrics})
	if sip != nil {
		s.sendEvent(Event{Type: EventSipFinalized, Metrics: metrics, Sip: sip})
	}
}

// Snapshot returns a consistent copy of the published state for the
// metrics sink.
func (s *Supervisor) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.Snapshot{
		ConnState:   s.connState,
		Status:      s.status,
		LastUpdate:  s.lastUpdate,
		Metrics:     s.engine.Metrics(),
		ChartPoints: s.window.Points(),
	}
}

// Reset clears today's total, the last sip, sip tracking state, and the
// chart window. The lifetime total is untouched. Mutually exclusive with
// an in-flight ingest.
func (s *Supervisor) Reset() {
	s.mu.Lock()
	s.engine.Reset()
	s.window.Reset()
	s.lastUpdate = time.Time{}
	s.mu.Unlock()
}

// SetTuning applies new sip segmentation tuning, e.g. after a config
// reload.
func (s *Supervisor) SetTuning(thresholdML float64, gap time.Duration) {
	s.mu.Lock()
	s.engine.SetTuning(thresholdML, gap)
	s.mu.Unlock()
}

func (s *Supervisor) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.sendEvent(Event{Type: EventStatusChanged, Status: status})
}

func (s *Supervisor) setConnState(state models.ConnState) {
	s.mu.Lock()
	s.connState = state
	s.mu.Unlock()
}

func (s *Supervisor) publishError(status string, err error) {
	s.mu.Lock()
	s.status = status
	s.connState = models.ConnDisconnected
	s.mu.Unlock()
	s.sendEvent(Event{Type: EventError, Status: status, Error: err})
}

// waitOrStop sleeps for d unless the loop is stopped first. Returns false
// when stopping.
func (s *Supervisor) waitOrStop(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-s.stopChan:
		return false
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Supervisor) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// matchDevice picks the target by exact name first, then falls back to a
// case-insensitive substring match.
func matchDevice(devices []link.Advertisement, name string) (link.Advertisement, bool) {
	for _, d := range devices {
		if d.Name == name {
			return d, true
		}
	}
	lower := strings.ToLower(name)
	for _, d := range devices {
		if d.Name != "" && strings.Contains(strings.ToLower(d.Name), lower) {
			return d, true
		}
	}
	return link.Advertisement{}, false
}

// namesPreview builds a bounded, sorted list of discovered device names
// for the not-found status text.
func namesPreview(devices []link.Advertisement, limit int) string {
	uniq := make(map[string]struct{})
	for _, d := range devices {
		if d.Name != "" {
			uniq[d.Name] = struct{}{}
		}
	}
	if len(uniq) == 0 {
		return "(no named devices)"
	}

	names := make([]string, 0, len(uniq))
	for n := range uniq {
		names = append(names, n)
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return strings.Join(names, ", ")
}
