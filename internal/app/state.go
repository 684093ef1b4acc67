// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/sipsmart/sipstream/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// State is the shared application state read by all tabs.
type State struct {
	mu sync.RWMutex

	snapshot models.Snapshot
	sips     []models.SipEvent
	stats    models.SessionStats

	streaming bool

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty application state.
func NewState() *State {
	return &State{
		snapshot: models.Snapshot{
			ConnState: models.ConnDisconnected,
			Status:    "Stopped.",
		},
		notifications: make([]Notification, 0),
	}
}

// SetSnapshot replaces the published telemetry snapshot.
func (s *State) SetSnapshot(snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// GetSnapshot returns the current telemetry snapshot.
func (s *State) GetSnapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SetSips replaces the recorded sip list and its aggregates.
func (s *State) SetSips(sips []models.SipEvent, stats models.SessionStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sips = sips
	s.stats = stats
}

// GetSips returns a copy of the recorded sips, newest first.
func (s *State) GetSips() []models.SipEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sips := make([]models.SipEvent, len(s.sips))
	copy(sips, s.sips)
	return sips
}

// GetStats returns the session sip aggregates.
func (s *State) GetStats() models.SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// SetStreaming records whether the stream supervisor is running.
func (s *State) SetStreaming(streaming bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = streaming
}

// IsStreaming returns true if the stream supervisor is running.
func (s *State) IsStreaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}
