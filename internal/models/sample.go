// Package models defines data structures and domain types.
package models

import "time"

// TelemetrySample is one decoded flow-sensor notification. The wire format
// carries no timestamp, so Timestamp is the local arrival time stamped by
// the decoder. Samples are immutable once constructed.
type TelemetrySample struct {
	Timestamp        time.Time
	PulseCount       int
	FrequencyHz      float64
	FlowRateLPM      float64
	IntervalVolumeML float64
	LifetimeVolumeL  float64
}

// Metrics is the published product-metric snapshot produced by the
// segmentation engine. AllTimeML is a pure projection of the device's
// lifetime total; TodayML and LastSipML are accumulated locally and only
// live for the process lifetime.
type Metrics struct {
	LastSipML  float64
	TodayML    float64
	AllTimeML  float64
	LastSample *TelemetrySample
}

// ChartPoint is a single point of the rolling flow-rate series, keyed by
// seconds elapsed since the current window epoch's first sample.
type ChartPoint struct {
	RelSeconds  float64
	FlowRateLPM float64
}

// ConnState describes the state of the sensor link.
type ConnState int

const (
	// ConnDisconnected means no live connection to the sensor.
	ConnDisconnected ConnState = iota
	// ConnConnected means the sensor link is up and subscribed.
	ConnConnected
)

// String returns the display name for a connection state.
func (c ConnState) String() string {
	switch c {
	case ConnConnected:
		return "Connected"
	case ConnDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Snapshot is the read-only view handed to the metrics sink on each poll.
// It is a value copy; readers never hold references into live state.
type Snapshot struct {
	ConnState   ConnState
	Status      string
	LastUpdate  time.Time
	Metrics     Metrics
	ChartPoints []ChartPoint
}

// HasUpdate reports whether at least one sample has been ingested.
func (s Snapshot) HasUpdate() bool {
	return !s.LastUpdate.IsZero()
}
