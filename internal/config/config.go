// Package config defines agent configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "context"

// Default endpoints and intervals.
const (
	defaultBaseURL      = "http://localhost:8000"
	defaultMetricsAddr  = ":9464"
	defaultSyncInterval = 300
)

// Config contains process configuration for the sync agent.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL is the hosted backend's root URL.
	BaseURL string `koanf:"base_url"`

	// APIKey is the project api key sent with every request.
	APIKey string `koanf:"api_key"`

	// Email and Password sign the agent in when no persisted session exists.
	Email    string `koanf:"email"`
	Password string `koanf:"password"`

	// SessionPath overrides the session slot location. Empty means the
	// per-user default.
	SessionPath string `koanf:"session_path"`

	// MetricsAddr is the Prometheus listen address, e.g. ":9464". Empty
	// disables the exporter.
	MetricsAddr string `koanf:"metrics_addr"`

	// SyncIntervalS is the seconds between cache refreshes.
	SyncIntervalS int `koanf:"sync_interval_s"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:      "info",
		BaseURL:       defaultBaseURL,
		MetricsAddr:   defaultMetricsAddr,
		SyncIntervalS: defaultSyncInterval,
	}
}
