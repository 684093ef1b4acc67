// Package engine implements the sip-segmentation state machine and the
// rolling flow-rate window. The package holds no locks of its own: the
// connection supervisor is the single writer and serializes every call
// (see internal/supervisor).
package engine

import (
	"time"

	"github.com/sipsmart/sipstream/internal/models"
)

// Default tuning, matching the sensor firmware's ~1 Hz reporting cadence.
const (
	// DefaultActiveThresholdML is the per-interval volume above which a
	// sample counts as actively sipping.
	DefaultActiveThresholdML = 0.5

	// DefaultGap is how long flow must stay below the threshold after
	// activity before the sip is finalized.
	DefaultGap = 2 * time.Second
)

// Config tunes the segmentation engine.
type Config struct {
	ActiveThresholdML float64
	Gap               time.Duration
}

// DefaultConfig returns the default segmentation tuning.
func DefaultConfig() Config {
	return Config{
		ActiveThresholdML: DefaultActiveThresholdML,
		Gap:               DefaultGap,
	}
}

// Engine consumes telemetry samples in arrival order and maintains the
// three product metrics: most recent sip volume, total since local
// midnight, and the device's lifetime total.
type Engine struct {
	thresholdML float64
	gap         time.Duration

	// Injectable clock, used only for the day-rollover check.
	now func() time.Time

	day        time.Time
	todayML    float64
	lastSipML  float64
	allTimeML  float64
	lastSample *models.TelemetrySample

	sipActive       bool
	sipAccumML      float64
	sipStartedAt    time.Time
	sipLastActiveAt time.Time
}

// New creates an engine with the given tuning. Zero config fields fall
// back to defaults.
func New(cfg Config) *Engine {
	if cfg.ActiveThresholdML <= 0 {
		cfg.ActiveThresholdML = DefaultActiveThresholdML
	}
	if cfg.Gap <= 0 {
		cfg.Gap = DefaultGap
	}
	e := &Engine{
		thresholdML: cfg.ActiveThresholdML,
		gap:         cfg.Gap,
		now:         time.Now,
	}
	e.day = dateOf(e.now())
	return e
}

// SetClock replaces the engine's clock. Tests use this to simulate day
// boundaries.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// SetTuning applies new threshold and gap values, e.g. after a config
// reload. An in-progress sip keeps accumulating under the new tuning.
func (e *Engine) SetTuning(thresholdML float64, gap time.Duration) {
	if thresholdML > 0 {
		e.thresholdML = thresholdML
	}
	if gap > 0 {
		e.gap = gap
	}
}

// Tuning returns the current threshold and gap.
func (e *Engine) Tuning() (thresholdML float64, gap time.Duration) {
	return e.thresholdML, e.gap
}

// Ingest processes one sample and returns the updated metrics snapshot.
// When the sample closes out a drinking event, the finalized sip is
// returned as well. The engine accepts any well-formed sample; out-of-range
// device data is clamped or ignored rather than rejected.
func (e *Engine) Ingest(sample models.TelemetrySample) (models.Metrics, *models.SipEvent) {
	s := sample
	e.lastSample = &s

	// Lifetime total is always a projection of the device counter, never
	// accumulated locally.
	e.allTimeML = max(0, sample.LifetimeVolumeL*1000)

	e.rolloverIfNeeded()

	// Negative interval volumes are transient sensor noise; they must not
	// regress the daily total.
	if sample.IntervalVolumeML >= 0 {
		e.todayML += sample.IntervalVolumeML
	}

	sip := e.segment(sample)

	return e.Metrics(), sip
}

// segment runs the Idle/Active sip state machine for one sample.
func (e *Engine) segment(sample models.TelemetrySample) *models.SipEvent {
	active := sample.IntervalVolumeML >= e.thresholdML

	if active {
		if !e.sipActive {
			e.sipActive = true
			e.sipAccumML = 0
			e.sipStartedAt = sample.Timestamp
		}
		e.sipAccumML += sample.IntervalVolumeML
		e.sipLastActiveAt = sample.Timestamp
		return nil
	}

	// Below threshold: finalization is gap-driven. A quiet sample inside
	// the gap window neither extends nor breaks the sip.
	if e.sipActive && sample.Timestamp.Sub(e.sipLastActiveAt) >= e.gap {
		ev := &models.SipEvent{
			StartedAt: e.sipStartedAt,
			EndedAt:   e.sipLastActiveAt,
			VolumeML:  e.sipAccumML,
		}
		e.lastSipML = e.sipAccumML
		e.sipActive = false
		e.sipAccumML = 0
		return ev
	}
	return nil
}

// rolloverIfNeeded resets the daily total when the local date changes.
// Any in-progress sip is discarded without crediting it: an event
// straddling midnight is dropped rather than split.
func (e *Engine) rolloverIfNeeded() {
	today := dateOf(e.now())
	if today.Equal(e.day) {
		return
	}
	e.day = today
	e.todayML = 0
	e.sipActive = false
	e.sipAccumML = 0
	e.sipLastActiveAt = time.Time{}
	e.sipStartedAt = time.Time{}
}

// Metrics returns the current published metrics.
func (e *Engine) Metrics() models.Metrics {
	return models.Metrics{
		LastSipML:  e.lastSipML,
		TodayML:    e.todayML,
		AllTimeML:  e.allTimeML,
		LastSample: e.lastSample,
	}
}

// SipInProgress reports whether a sip is currently being accumulated and
// its running volume.
func (e *Engine) SipInProgress() (bool, float64) {
	return e.sipActive, e.sipAccumML
}

// Reset clears the locally accumulated metrics and any in-progress sip.
// The lifetime total is untouched: it is re-derived from the device on the
// next sample.
func (e *Engine) Reset() {
	e.todayML = 0
	e.lastSipML = 0
	e.day = dateOf(e.now())
	e.sipActive = false
	e.sipAccumML = 0
	e.sipLastActiveAt = time.Time{}
	e.sipStartedAt = time.Time{}
}

// dateOf truncates an instant to its local calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
