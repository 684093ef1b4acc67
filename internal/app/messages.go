package app

import (
	"time"

	"github.com/sipsmart/sipstream/internal/models"
	"github.com/sipsmart/sipstream/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// SnapshotMsg carries a freshly polled telemetry snapshot.
type SnapshotMsg struct {
	Snapshot models.Snapshot
}

// SipsLoadedMsg carries the recorded sip history and its aggregates.
type SipsLoadedMsg struct {
	Sips  []models.SipEvent
	Stats models.SessionStats
	Error error
}

// StartStreamMsg requests starting the sensor stream.
type StartStreamMsg struct{}

// StopStreamMsg requests stopping the sensor stream.
type StopStreamMsg struct{}

// ResetMsg requests clearing the session metrics and sip history.
type ResetMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearNotificationsMsg requests clearing all notifications.
type ClearNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}
