package engine

import (
	"time"

	"github.com/sipsmart/sipstream/internal/models"
)

// DefaultChartWindow is how much history the flow chart keeps.
const DefaultChartWindow = 120 * time.Second

// RollingWindow keeps a bounded, time-anchored series of flow-rate points
// for the chart. Points are keyed by seconds relative to the first sample
// recorded since construction or the last reset, so the chart's time axis
// always starts at zero. Arrival order guarantees the series is sorted.
//
// Like Engine, the window is not safe for concurrent use; the supervisor
// serializes Record/Reset against snapshot reads.
type RollingWindow struct {
	window   time.Duration
	anchored bool
	anchor   time.Time
	points   []models.ChartPoint
}

// NewRollingWindow creates a window that retains the given span of points.
// A non-positive span falls back to the default.
func NewRollingWindow(window time.Duration) *RollingWindow {
	if window <= 0 {
		window = DefaultChartWindow
	}
	return &RollingWindow{window: window}
}

// Record appends the sample's flow rate and evicts points that have fallen
// out of the window. The first sample after construction or reset anchors
// the relative time axis.
func (w *RollingWindow) Record(sample models.TelemetrySample) {
	if !w.anchored {
		w.anchor = sample.Timestamp
		w.anchored = true
	}

	rel := sample.Timestamp.Sub(w.anchor).Seconds()
	w.points = append(w.points, models.ChartPoint{
		RelSeconds:  rel,
		FlowRateLPM: sample.FlowRateLPM,
	})

	// Monotonic prefix eviction: drop points older than the window
	// relative to the point just appended.
	windowSec := w.window.Seconds()
	trim := 0
	for trim < len(w.points) && rel-w.points[trim].RelSeconds > windowSec {
		trim++
	}
	if trim > 0 {
		w.points = append(w.points[:0], w.points[trim:]...)
	}
}

// Points returns a copy of the retained series, oldest first.
func (w *RollingWindow) Points() []models.ChartPoint {
	out := make([]models.ChartPoint, len(w.points))
	copy(out, w.points)
	return out
}

// Len returns the number of retained points.
func (w *RollingWindow) Len() int {
	return len(w.points)
}

// Reset clears all points and the anchor; the next recorded sample
// re-anchors the axis at zero.
func (w *RollingWindow) Reset() {
	w.points = nil
	w.anchored = false
	w.anchor = time.Time{}
}
