package engine

import (
	"testing"
	"time"

	"github.com/sipsmart/sipstream/internal/models"
)

func sampleAt(ts time.Time, intervalML, lifetimeL float64) models.TelemetrySample {
	return models.TelemetrySample{
		Timestamp:        ts,
		IntervalVolumeML: intervalML,
		LifetimeVolumeL:  lifetimeL,
	}
}

func TestEngine_AllTimeProjection(t *testing.T) {
	e := New(DefaultConfig())
	base := time.Now()

	metrics, _ := e.Ingest(sampleAt(base, 0, 1.234))
	if metrics.AllTimeML != 1234 {
		t.Errorf("AllTimeML = %v, want 1234", metrics.AllTimeML)
	}

	// A negative device counter clamps to zero rather than going negative.
	metrics, _ = e.Ingest(sampleAt(base.Add(time.Second), 0, -0.5))
	if metrics.AllTimeML != 0 {
		t.Errorf("AllTimeML after negative counter = %v, want 0", metrics.AllTimeML)
	}

	// The projection tracks the counter, it never accumulates.
	metrics, _ = e.Ingest(sampleAt(base.Add(2*time.Second), 0, 2.0))
	if metrics.AllTimeML != 2000 {
		t.Errorf("AllTimeML = %v, want 2000", metrics.AllTimeML)
	}
}

func TestEngine_DailyAccumulation(t *testing.T) {
	e := New(DefaultConfig())
	base := time.Now()

	e.Ingest(sampleAt(base, 3.0, 0))
	metrics, _ := e.Ingest(sampleAt(base.Add(time.Second), 2.5, 0))
	if metrics.TodayML != 5.5 {
		t.Errorf("TodayML = %v, want 5.5", metrics.TodayML)
	}

	// Negative interval volumes are noise and must not regress the total.
	metrics, _ = e.Ingest(sampleAt(base.Add(2*time.Second), -4.0, 0))
	if metrics.TodayML != 5.5 {
		t.Errorf("TodayML after negative interval = %v, want 5.5", metrics.TodayML)
	}
}

func TestEngine_SipSegmentation(t *testing.T) {
	e := New(Config{ActiveThresholdML: 0.5, Gap: 2 * time.Second})
	base := time.Now()

	// Two active samples open and extend a sip.
	_, sip := e.Ingest(sampleAt(base, 2.0, 0))
	if sip != nil {
		t.Fatal("sip finalized too early")
	}
	_, sip = e.Ingest(sampleAt(base.Add(1*time.Second), 2.5, 0))
	if sip != nil {
		t.Fatal("sip finalized while still active")
	}

	// A quiet sample inside the gap neither extends nor finalizes.
	_, sip = e.Ingest(sampleAt(base.Add(2*time.Second), 0.1, 0))
	if sip != nil {
		t.Fatal("sip finalized before the gap elapsed")
	}
	if active, accum := e.SipInProgress(); !active || accum != 4.5 {
		t.Fatalf("SipInProgress = (%v, %v), want (true, 4.5)", active, accum)
	}

	// Gap elapsed since the last active sample: finalize.
	metrics, sip := e.Ingest(sampleAt(base.Add(3100*time.Millisecond), 0.0, 0))
	if sip == nil {
		t.Fatal("expected finalized sip")
	}
	if sip.VolumeML != 4.5 {
		t.Errorf("sip volume = %v, want 4.5", sip.VolumeML)
	}
	if !sip.StartedAt.Equal(base) {
		t.Errorf("sip StartedAt = %v, want %v", sip.StartedAt, base)
	}
	if !sip.EndedAt.Equal(base.Add(1 * time.Second)) {
		t.Errorf("sip EndedAt = %v, want %v", sip.EndedAt, base.Add(1*time.Second))
	}
	if metrics.LastSipML != 4.5 {
		t.Errorf("LastSipML = %v, want 4.5", metrics.LastSipML)
	}
	if active, _ := e.SipInProgress(); active {
		t.Error("sip still active after finalization")
	}
}

func TestEngine_SubThresholdNeverOpensSip(t *testing.T) {
	e := New(Config{ActiveThresholdML: 0.5, Gap: 2 * time.Second})
	base := time.Now()

	for i := 0; i < 10; i++ {
		_, sip := e.Ingest(sampleAt(base.Add(time.Duration(i)*time.Second), 0.4, 0))
		if sip != nil {
			t.Fatal("sub-threshold flow produced a sip")
		}
	}
	if active, _ := e.SipInProgress(); active {
		t.Error("sub-threshold flow opened a sip")
	}
	if metrics := e.Metrics(); metrics.LastSipML != 0 {
		t.Errorf("LastSipML = %v, want 0", metrics.LastSipML)
	}
}

func TestEngine_DayRolloverDiscardsInProgressSip(t *testing.T) {
	e := New(DefaultConfig())

	day1 := time.Date(2026, 8, 28, 23, 59, 58, 0, time.Local)
	day2 := time.Date(2026, 8, 29, 0, 0, 1, 0, time.Local)

	clock := day1
	e.SetClock(func() time.Time { return clock })
	e.Reset() // re-anchor the day to the fake clock

	e.Ingest(sampleAt(day1, 3.0, 0))
	if active, _ := e.SipInProgress(); !active {
		t.Fatal("expected sip in progress before midnight")
	}

	clock = day2
	metrics, sip := e.Ingest(sampleAt(day2, 0.2, 0))
	if sip != nil {
		t.Error("sip straddling midnight should be discarded, not finalized")
	}
	if active, _ := e.SipInProgress(); active {
		t.Error("in-progress sip survived the rollover")
	}
	if metrics.TodayML != 0.2 {
		t.Errorf("TodayML after rollover = %v, want 0.2", metrics.TodayML)
	}
	if metrics.LastSipML != 0 {
		t.Errorf("LastSipML after rollover = %v, want 0", metrics.LastSipML)
	}
}

func TestEngine_ResetKeepsAllTime(t *testing.T) {
	e := New(DefaultConfig())
	base := time.Now()

	e.Ingest(sampleAt(base, 2.0, 1.0))
	e.Ingest(sampleAt(base.Add(time.Second), 2.0, 1.0))

	e.Reset()

	metrics := e.Metrics()
	if metrics.TodayML != 0 {
		t.Errorf("TodayML after reset = %v, want 0", metrics.TodayML)
	}
	if metrics.LastSipML != 0 {
		t.Errorf("LastSipML after reset = %v, want 0", metrics.LastSipML)
	}
	if metrics.AllTimeML != 1000 {
		t.Errorf("AllTimeML after reset = %v, want 1000", metrics.AllTimeML)
	}
	if active, _ := e.SipInProgress(); active {
		t.Error("sip still in progress after reset")
	}
}

func TestEngine_SetTuning(t *testing.T) {
	e := New(Config{ActiveThresholdML: 0.5, Gap: 2 * time.Second})

	e.SetTuning(1.5, 5*time.Second)
	threshold, gap := e.Tuning()
	if threshold != 1.5 || gap != 5*time.Second {
		t.Errorf("Tuning = (%v, %v), want (1.5, 5s)", threshold, gap)
	}

	// Non-positive values are ignored.
	e.SetTuning(0, 0)
	threshold, gap = e.Tuning()
	if threshold != 1.5 || gap != 5*time.Second {
		t.Errorf("Tuning after zero values = (%v, %v), want (1.5, 5s)", threshold, gap)
	}

	base := time.Now()
	_, sip := e.Ingest(sampleAt(base, 1.0, 0))
	if sip != nil {
		t.Fatal("unexpected sip")
	}
	if active, _ := e.SipInProgress(); active {
		t.Error("1.0 mL sample opened a sip with a 1.5 mL threshold")
	}
}
