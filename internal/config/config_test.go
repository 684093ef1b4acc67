package config

import (
	"time"

	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"SIPSTREAM_DEVICE_NAME", "SIPSTREAM_TX_UUID", "SIPSTREAM_SIP_THRESHOLD_ML",
		"SIPSTREAM_SIP_GAP", "SIPSTREAM_CHART_WINDOW", "SIPSTREAM_REFRESH_INTERVAL",
		"SIPSTREAM_SCAN_TIMEOUT", "SIPSTREAM_DB_PATH", "SIPSTREAM_DAILY_GOAL_ML",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	if cfg.DeviceName != "XIAO_Flow" {
		t.Errorf("expected default device name, got %q", cfg.DeviceName)
	}
	if cfg.Characteristic != "6e400003-b5a3-f393-e0a9-e50e24dcca9e" {
		t.Errorf("expected default characteristic, got %q", cfg.Characteristic)
	}
	if cfg.SipThresholdML != 0.5 {
		t.Errorf("expected default threshold 0.5, got %v", cfg.SipThresholdML)
	}
	if cfg.SipGap != 2*time.Second {
		t.Errorf("expected default gap 2s, got %v", cfg.SipGap)
	}
	if cfg.ChartWindow != 120*time.Second {
		t.Errorf("expected default chart window 120s, got %v", cfg.ChartWindow)
	}
	if cfg.RefreshInterval != 500*time.Millisecond {
		t.Errorf("expected default refresh 500ms, got %v", cfg.RefreshInterval)
	}
	if cfg.ScanTimeout != 10*time.Second {
		t.Errorf("expected default scan timeout 10s, got %v", cfg.ScanTimeout)
	}
	if cfg.DatabasePath != ":memory:" {
		t.Errorf("expected in-memory database default, got %q", cfg.DatabasePath)
	}
	if cfg.DailyGoalML != 2000 {
		t.Errorf("expected default daily goal 2000, got %v", cfg.DailyGoalML)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SIPSTREAM_DEVICE_NAME", "FlowBench")
	t.Setenv("SIPSTREAM_TX_UUID", "0000ffe1-0000-1000-8000-00805f9b34fb")
	t.Setenv("SIPSTREAM_SIP_THRESHOLD_ML", "1.5")
	t.Setenv("SIPSTREAM_SIP_GAP", "3s")
	t.Setenv("SIPSTREAM_CHART_WINDOW", "1m")
	t.Setenv("SIPSTREAM_DB_PATH", "/tmp/sips.db")
	t.Setenv("SIPSTREAM_DAILY_GOAL_ML", "2500")

	cfg := FromEnv()

	if cfg.DeviceName != "FlowBench" {
		t.Errorf("expected device name override, got %q", cfg.DeviceName)
	}
	if cfg.Characteristic != "0000ffe1-0000-1000-8000-00805f9b34fb" {
		t.Errorf("expected characteristic override, got %q", cfg.Characteristic)
	}
	if cfg.SipThresholdML != 1.5 {
		t.Errorf("expected threshold 1.5, got %v", cfg.SipThresholdML)
	}
	if cfg.SipGap != 3*time.Second {
		t.Errorf("expected gap 3s, got %v", cfg.SipGap)
	}
	if cfg.ChartWindow != time.Minute {
		t.Errorf("expected chart window 1m, got %v", cfg.ChartWindow)
	}
	if cfg.DatabasePath != "/tmp/sips.db" {
		t.Errorf("expected database path override, got %q", cfg.DatabasePath)
	}
	if cfg.DailyGoalML != 2500 {
		t.Errorf("expected daily goal 2500, got %v", cfg.DailyGoalML)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"with unit", "30s", 30 * time.Second},
		{"milliseconds", "250ms", 250 * time.Millisecond},
		{"bare seconds", "45", 45 * time.Second},
		{"invalid falls back", "soon", 5 * time.Second},
		{"empty falls back", "", 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SIPSTREAM_TEST_DURATION", tt.value)
			got := getEnvDuration("SIPSTREAM_TEST_DURATION", 5*time.Second)
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected float64
	}{
		{"valid", "12.5", 12.5},
		{"integer", "7", 7},
		{"invalid falls back", "a lot", 1.0},
		{"empty falls back", "", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SIPSTREAM_TEST_FLOAT", tt.value)
			got := getEnvFloat("SIPSTREAM_TEST_FLOAT", 1.0)
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
