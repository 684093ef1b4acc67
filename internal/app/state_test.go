package app

import (
	"time"

	"testing"

	"github.com/sipsmart/sipstream/internal/models"
)

func TestNewState_InitialSnapshot(t *testing.T) {
	state := NewState()

	snap := state.GetSnapshot()
	if snap.ConnState != models.ConnDisconnected {
		t.Errorf("expected disconnected initial state, got %v", snap.ConnState)
	}
	if snap.Status != "Stopped." {
		t.Errorf("expected initial status %q, got %q", "Stopped.", snap.Status)
	}
	if state.IsStreaming() {
		t.Error("expected streaming false initially")
	}
	if len(state.GetNotifications()) != 0 {
		t.Error("expected no notifications initially")
	}
}

func TestState_SnapshotRoundTrip(t *testing.T) {
	state := NewState()

	snap := models.Snapshot{
		ConnState: models.ConnConnected,
		Status:    "Connected. Subscribed to notifications.",
		Metrics:   models.Metrics{TodayML: 42},
	}
	state.SetSnapshot(snap)

	got := state.GetSnapshot()
	if got.ConnState != models.ConnConnected {
		t.Errorf("expected connected state, got %v", got.ConnState)
	}
	if got.Metrics.TodayML != 42 {
		t.Errorf("expected TodayML 42, got %v", got.Metrics.TodayML)
	}
}

func TestState_GetSipsReturnsCopy(t *testing.T) {
	state := NewState()
	state.SetSips([]models.SipEvent{{ID: "a", VolumeML: 10}}, models.SessionStats{SipCount: 1})

	sips := state.GetSips()
	sips[0].VolumeML = 99

	again := state.GetSips()
	if again[0].VolumeML != 10 {
		t.Errorf("mutating the returned slice leaked into state: got %v", again[0].VolumeML)
	}
	if state.GetStats().SipCount != 1 {
		t.Errorf("expected SipCount 1, got %d", state.GetStats().SipCount)
	}
}

func TestState_Streaming(t *testing.T) {
	state := NewState()

	state.SetStreaming(true)
	if !state.IsStreaming() {
		t.Error("expected streaming true")
	}
	state.SetStreaming(false)
	if state.IsStreaming() {
		t.Error("expected streaming false")
	}
}

func TestState_AddNotification(t *testing.T) {
	state := NewState()

	id := state.AddNotification(NotificationSuccess, "recorded", time.Minute)
	if id == "" {
		t.Fatal("expected a notification ID")
	}

	active := state.GetNotifications()
	if len(active) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(active))
	}
	if active[0].Type != NotificationSuccess || active[0].Message != "recorded" {
		t.Errorf("unexpected notification: %+v", active[0])
	}
}

func TestState_AddNotificationUniqueIDs(t *testing.T) {
	state := NewState()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id := state.AddNotification(NotificationInfo, "n", time.Minute)
		if seen[id] {
			t.Errorf("duplicate notification ID %q", id)
		}
		seen[id] = true
	}
}

func TestState_NotificationCap(t *testing.T) {
	state := NewState()

	for i := 0; i < 15; i++ {
		state.AddNotification(NotificationInfo, "n", time.Minute)
	}
	if got := len(state.GetNotifications()); got != 10 {
		t.Errorf("expected notifications capped at 10, got %d", got)
	}
}

func TestState_RemoveNotification(t *testing.T) {
	state := NewState()

	id := state.AddNotification(NotificationError, "boom", time.Minute)
	state.AddNotification(NotificationInfo, "other", time.Minute)

	state.RemoveNotification(id)

	for _, n := range state.GetNotifications() {
		if n.ID == id {
			t.Errorf("notification %q should have been removed", id)
		}
	}
	if len(state.GetNotifications()) != 1 {
		t.Errorf("expected 1 remaining notification, got %d", len(state.GetNotifications()))
	}
}

func TestState_ExpiredNotificationsHidden(t *testing.T) {
	state := NewState()

	state.AddNotification(NotificationInfo, "short lived", time.Nanosecond)
	state.AddNotification(NotificationInfo, "pinned", 0)
	time.Sleep(time.Millisecond)

	active := state.GetNotifications()
	if len(active) != 1 {
		t.Fatalf("expected only the unexpiring notification, got %d", len(active))
	}
	if active[0].Message != "pinned" {
		t.Errorf("wrong notification survived: %q", active[0].Message)
	}

	state.ClearExpiredNotifications()
	state.ClearAllNotifications()
	if len(state.GetNotifications()) != 0 {
		t.Error("expected no notifications after ClearAll")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		typ      NotificationType
		expected string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.expected {
			t.Errorf("NotificationType(%d).String() = %q, expected %q", tt.typ, got, tt.expected)
		}
	}
}
