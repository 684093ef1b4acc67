// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DeviceName      string
	Characteristic  string
	SipThresholdML  float64
	SipGap          time.Duration
	ChartWindow     time.Duration
	RefreshInterval time.Duration
	ScanTimeout     time.Duration
	DatabasePath    string
	DailyGoalML     float64

	// envPath is the .env file that was loaded, empty when none was found.
	envPath string
}

// Default values, matching the sensor firmware and the ~1 Hz stream.
const (
	defaultDeviceName      = "XIAO_Flow"
	defaultCharacteristic  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
	defaultSipThresholdML  = 0.5
	defaultSipGap          = 2 * time.Second
	defaultChartWindow     = 120 * time.Second
	defaultRefreshInterval = 500 * time.Millisecond
	defaultScanTimeout     = 10 * time.Second
	defaultDailyGoalML     = 2000
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	var envPath string
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			envPath = path
			break
		}
	}

	cfg := FromEnv()
	cfg.envPath = envPath
	return cfg, nil
}

// FromEnv builds a Config from the current environment without touching
// .env files. The config watcher uses this on reload.
func FromEnv() *Config {
	return &Config{
		DeviceName:      getEnvString("SIPSTREAM_DEVICE_NAME", defaultDeviceName),
		Characteristic:  getEnvString("SIPSTREAM_TX_UUID", defaultCharacteristic),
		SipThresholdML:  getEnvFloat("SIPSTREAM_SIP_THRESHOLD_ML", defaultSipThresholdML),
		SipGap:          getEnvDuration("SIPSTREAM_SIP_GAP", defaultSipGap),
		ChartWindow:     getEnvDuration("SIPSTREAM_CHART_WINDOW", defaultChartWindow),
		RefreshInterval: getEnvDuration("SIPSTREAM_REFRESH_INTERVAL", defaultRefreshInterval),
		ScanTimeout:     getEnvDuration("SIPSTREAM_SCAN_TIMEOUT", defaultScanTimeout),
		DatabasePath:    getEnvString("SIPSTREAM_DB_PATH", ":memory:"),
		DailyGoalML:     getEnvFloat("SIPSTREAM_DAILY_GOAL_ML", defaultDailyGoalML),
	}
}

// EnvPath returns the .env file that was loaded, if any.
func (c *Config) EnvPath() string {
	return c.envPath
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "sipstream", ".env"),
			filepath.Join(home, ".sipstream", ".env"),
		)
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
