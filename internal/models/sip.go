package models

import "time"

// SipEvent is one finalized drinking event, demarcated by the activity
// threshold and trailing inactivity gap. The ID is assigned when the event
// is recorded in the session store.
type SipEvent struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	VolumeML  float64
}

// Duration returns the active span of the sip.
func (e SipEvent) Duration() time.Duration {
	if e.EndedAt.Before(e.StartedAt) {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}

// SessionStats aggregates the sips recorded since the session store was
// created or last cleared.
type SessionStats struct {
	SipCount   int
	TotalML    float64
	LargestML  float64
	AverageML  float64
	FirstSipAt time.Time
	LastSipAt  time.Time
}
