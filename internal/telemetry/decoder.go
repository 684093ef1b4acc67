// Package telemetry decodes the sensor's wire payload into typed samples.
//
// The sensor emits one ASCII CSV line per notification:
//
//	pulses,frequency_hz,flow_l_min,vol_ml_interval,total_l
//
// The firmware occasionally resends its CSV header mid-stream; any line
// containing the header token is discarded as an echo rather than data.
package telemetry

import (
	"strconv"
	"strings"
	"time"

	"github.com/sipsmart/sipstream/internal/models"
)

const (
	fieldCount  = 5
	headerToken = "pulses"
)

// Decode parses a raw notification line into a telemetry sample, stamping
// it with the current local arrival time. It returns false for empty lines,
// re-sent headers, wrong field counts, and non-numeric fields; malformed
// payloads are dropped silently, never fatal.
func Decode(line string) (models.TelemetrySample, bool) {
	return decodeAt(line, time.Now())
}

// decodeAt is Decode with an explicit arrival time, for tests.
func decodeAt(line string, arrival time.Time) (models.TelemetrySample, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return models.TelemetrySample{}, false
	}
	if strings.Contains(strings.ToLower(s), headerToken) {
		return models.TelemetrySample{}, false
	}

	parts := strings.Split(s, ",")
	if len(parts) != fieldCount {
		return models.TelemetrySample{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	pulses, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.TelemetrySample{}, false
	}
	freq, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.TelemetrySample{}, false
	}
	flow, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return models.TelemetrySample{}, false
	}
	intervalML, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return models.TelemetrySample{}, false
	}
	lifetimeL, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return models.TelemetrySample{}, false
	}

	return models.TelemetrySample{
		Timestamp:        arrival,
		PulseCount:       pulses,
		FrequencyHz:      freq,
		FlowRateLPM:      flow,
		IntervalVolumeML: intervalML,
		LifetimeVolumeL:  lifetimeL,
	}, true
}
