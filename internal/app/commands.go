package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sipsmart/sipstream/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultPollInterval is how often the snapshot is polled when no
	// refresh interval is configured.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// SipHistoryLimit caps how many sips the history tab loads.
	SipHistoryLimit = 200
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// pollSnapshotCmd returns a command that polls the published snapshot
// after the given interval.
func pollSnapshotCmd(mgr *services.Manager, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return SnapshotMsg{Snapshot: mgr.Snapshot()}
	})
}

// loadSipsCmd returns a command that loads the sip history.
func loadSipsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		sips, err := mgr.Sips(SipHistoryLimit)
		if err != nil {
			return SipsLoadedMsg{Error: err}
		}
		stats, err := mgr.SessionStats()
		if err != nil {
			return SipsLoadedMsg{Error: err}
		}
		return SipsLoadedMsg{Sips: sips, Stats: stats}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// startStreamCmd returns a command that starts the sensor stream.
func startStreamCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.StartStream()
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  "Stream started",
			Duration: QuickNotificationDuration,
		}
	}
}

// stopStreamCmd returns a command that stops the sensor stream.
func stopStreamCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.StopStream()
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  "Stream stopped",
			Duration: QuickNotificationDuration,
		}
	}
}

// resetCmd returns a command that clears session metrics and history.
func resetCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		mgr.Reset()
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  "Session reset",
			Duration: QuickNotificationDuration,
		}
	}
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}
