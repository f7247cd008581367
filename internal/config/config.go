// Package config holds runtime settings for the sync engine. Values are
// layered: defaults, then a JSON file (if configured), then environment
// variables. Later sources take precedence.
package config

import "time"

// Config holds runtime settings for the sync engine.
//
// Fields:
//   - RemoteEndpoint: base URL of the remote row store.
//   - APIKey: project API key sent on every remote request.
//   - DatabaseDSN: SQLite DSN of the local replica.
//   - SyncInterval: periodic sync cadence while a session is active.
//   - SafetyBuffer: subtracted from the pull watermark to absorb clock skew
//     between devices.
//   - SyncTimeout: upper bound for one full sync pass; keeps the
//     single-flight guard from being held forever by a hung call.
type Config struct {
	RemoteEndpoint string
	APIKey         string
	DatabaseDSN    string
	SyncInterval   time.Duration
	SafetyBuffer   time.Duration
	SyncTimeout    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RemoteEndpoint = ""
	c.APIKey = ""
	c.DatabaseDSN = "fintrack.db"
	c.SyncInterval = 30 * time.Second
	c.SafetyBuffer = 5 * time.Minute
	c.SyncTimeout = 2 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if FINTRACK_CONFIG points at a file) and environment
// variables. Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
