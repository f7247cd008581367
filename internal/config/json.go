package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Duration lets JSON specify intervals either as strings like "30s" or as
// integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

// JsonConfig is a DTO used exclusively for JSON unmarshalling. After
// parsing, non-zero values are copied into the runtime Config.
type JsonConfig struct {
	RemoteEndpoint string   `json:"remote_endpoint"`
	APIKey         string   `json:"api_key"`
	DatabaseDSN    string   `json:"database_dsn"`
	SyncInterval   Duration `json:"sync_interval"`
	SafetyBuffer   Duration `json:"safety_buffer"`
	SyncTimeout    Duration `json:"sync_timeout"`
}

// parseJson overlays cfg with values from the file named by the
// FINTRACK_CONFIG environment variable. Missing variable means no JSON
// layer. Zero-valued JSON fields leave the existing value alone.
func parseJson(cfg *Config) error {
	path := os.Getenv("FINTRACK_CONFIG")
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if jc.RemoteEndpoint != "" {
		cfg.RemoteEndpoint = jc.RemoteEndpoint
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.SafetyBuffer.Duration != 0 {
		cfg.SafetyBuffer = jc.SafetyBuffer.Duration
	}
	if jc.SyncTimeout.Duration != 0 {
		cfg.SyncTimeout = jc.SyncTimeout.Duration
	}
	return nil
}
