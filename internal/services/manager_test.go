package services

import (
	"context"
	"sync"
	"time"

	"testing"

	"github.com/sipsmart/sipstream/internal/config"
	"github.com/sipsmart/sipstream/internal/link"
)

// MockConn is a controllable link.Conn for manager tests.
type MockConn struct {
	mu     sync.Mutex
	alive  bool
	notify link.NotifyFunc
}

func (c *MockConn) Subscribe(_ string, fn link.NotifyFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
	return nil
}

func (c *MockConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *MockConn) Unsubscribe() error { return nil }

func (c *MockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = false
	return nil
}

func (c *MockConn) Push(t *testing.T, line string) {
	t.Helper()
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn == nil {
		t.Fatal("no notification callback captured")
	}
	fn([]byte(line))
}

func (c *MockConn) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notify != nil
}

// MockLink is a fake link.Link that always finds the device.
type MockLink struct {
	mu   sync.Mutex
	conn *MockConn
}

func (l *MockLink) Discover(_ context.Context, _ time.Duration) ([]link.Advertisement, error) {
	return []link.Advertisement{{Name: "XIAO_Flow", Address: "AA:BB:CC:DD:EE:FF"}}, nil
}

func (l *MockLink) Connect(_ context.Context, _ string) (link.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn = &MockConn{alive: true}
	return l.conn, nil
}

func (l *MockLink) Conn() *MockConn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn
}

func testManagerConfig() *config.Config {
	return &config.Config{
		DeviceName:      "XIAO_Flow",
		Characteristic:  "6e400003-b5a3-f393-e0a9-e50e24dcca9e",
		SipThresholdML:  0.5,
		SipGap:          50 * time.Millisecond,
		ChartWindow:     120 * time.Second,
		RefreshInterval: 100 * time.Millisecond,
		ScanTimeout:     100 * time.Millisecond,
		DatabasePath:    ":memory:",
		DailyGoalML:     15,
	}
}

func newTestManager(t *testing.T) (*Manager, *MockLink) {
	t.Helper()
	ml := &MockLink{}
	m, err := NewManagerWithLink(testManagerConfig(), ml)
	if err != nil {
		t.Fatalf("NewManagerWithLink failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, ml
}

// awaitEvent drains the channel until an event satisfies the predicate
// or the deadline passes.
func awaitEvent(t *testing.T, ch chan ServiceEvent, what string, match func(ServiceEvent) bool) ServiceEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", what)
			}
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func awaitConn(t *testing.T, ml *MockLink) *MockConn {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if conn := ml.Conn(); conn != nil && conn.Subscribed() {
			return conn
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for subscription")
	return nil
}

func TestManager_StreamLifecycle(t *testing.T) {
	m, _ := newTestManager(t)

	if m.Streaming() {
		t.Error("manager should not be streaming before StartStream")
	}
	m.StartStream()
	if !m.Streaming() {
		t.Error("manager should be streaming after StartStream")
	}
	m.StopStream()
	if m.Streaming() {
		t.Error("manager should not be streaming after StopStream")
	}
}

func TestManager_RoutesConnectionEvents(t *testing.T) {
	m, _ := newTestManager(t)
	events := m.Subscribe()

	m.StartStream()

	ev := awaitEvent(t, events, "connected event", func(ev ServiceEvent) bool {
		cc, ok := ev.(ConnectionChangedEvent)
		return ok && cc.Status == "Connected. Subscribed to notifications."
	})
	if cc := ev.(ConnectionChangedEvent); cc.State.String() != "Connected" {
		t.Errorf("expected connected state, got %v", cc.State)
	}
}

func TestManager_MetricsAndSipFlow(t *testing.T) {
	m, ml := newTestManager(t)
	events := m.Subscribe()

	m.StartStream()
	conn := awaitConn(t, ml)

	conn.Push(t, "10,8.0,2.4,20.0,0.020")

	ev := awaitEvent(t, events, "metrics event", func(ev ServiceEvent) bool {
		_, ok := ev.(MetricsUpdatedEvent)
		return ok
	})
	metrics := ev.(MetricsUpdatedEvent).Metrics
	if metrics.TodayML != 20 {
		t.Errorf("expected TodayML 20, got %v", metrics.TodayML)
	}

	// 20 mL crosses the 15 mL test goal.
	awaitEvent(t, events, "goal event", func(ev ServiceEvent) bool {
		gr, ok := ev.(GoalReachedEvent)
		return ok && gr.TodayML == 20 && gr.GoalML == 15
	})

	// A quiet sample after the gap finalizes the sip.
	time.Sleep(100 * time.Millisecond)
	conn.Push(t, "0,0,0,0,0.020")

	ev = awaitEvent(t, events, "sip event", func(ev ServiceEvent) bool {
		_, ok := ev.(SipRecordedEvent)
		return ok
	})
	sip := ev.(SipRecordedEvent).Sip
	if sip.VolumeML != 20 {
		t.Errorf("expected sip volume 20, got %v", sip.VolumeML)
	}
	if sip.ID == "" {
		t.Error("expected recorded sip to carry a store ID")
	}

	sips, err := m.Sips(0)
	if err != nil {
		t.Fatalf("Sips failed: %v", err)
	}
	if len(sips) != 1 {
		t.Fatalf("expected 1 recorded sip, got %d", len(sips))
	}

	stats, err := m.SessionStats()
	if err != nil {
		t.Fatalf("SessionStats failed: %v", err)
	}
	if stats.SipCount != 1 || stats.TotalML != 20 {
		t.Errorf("unexpected session stats: %+v", stats)
	}
}

func TestManager_ResetClearsSessionState(t *testing.T) {
	m, ml := newTestManager(t)
	events := m.Subscribe()

	m.StartStream()
	conn := awaitConn(t, ml)

	conn.Push(t, "10,8.0,2.4,20.0,0.020")
	time.Sleep(100 * time.Millisecond)
	conn.Push(t, "0,0,0,0,0.020")

	awaitEvent(t, events, "sip event", func(ev ServiceEvent) bool {
		_, ok := ev.(SipRecordedEvent)
		return ok
	})

	m.Reset()

	snap := m.Snapshot()
	if snap.Metrics.TodayML != 0 || snap.Metrics.LastSipML != 0 {
		t.Errorf("expected cleared metrics after reset, got %+v", snap.Metrics)
	}
	if len(snap.ChartPoints) != 0 {
		t.Errorf("expected cleared chart after reset, got %d points", len(snap.ChartPoints))
	}

	sips, err := m.Sips(0)
	if err != nil {
		t.Fatalf("Sips failed: %v", err)
	}
	if len(sips) != 0 {
		t.Errorf("expected empty sip history after reset, got %d", len(sips))
	}
}

func TestManager_Tuning(t *testing.T) {
	m, _ := newTestManager(t)

	threshold, gap := m.Tuning()
	if threshold != 0.5 {
		t.Errorf("expected threshold 0.5, got %v", threshold)
	}
	if gap != 50*time.Millisecond {
		t.Errorf("expected gap 50ms, got %v", gap)
	}
}

func TestManager_SubscribeUnsubscribe(t *testing.T) {
	m, _ := newTestManager(t)

	ch := m.Subscribe()
	m.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after Unsubscribe")
	}
}

func TestManager_CloseClosesSubscribers(t *testing.T) {
	ml := &MockLink{}
	m, err := NewManagerWithLink(testManagerConfig(), ml)
	if err != nil {
		t.Fatalf("NewManagerWithLink failed: %v", err)
	}

	ch := m.Subscribe()
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for {
		if _, ok := <-ch; !ok {
			break
		}
	}
}
