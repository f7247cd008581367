package config

import (
	"fmt"
	"os"
	"time"
)

// parseEnv overlays cfg with values from environment variables. Unset
// variables leave the existing value alone.
//
// Supported variables:
//
//	FINTRACK_REMOTE_ENDPOINT  base URL of the remote row store
//	FINTRACK_API_KEY          project API key
//	FINTRACK_DATABASE_DSN     SQLite DSN of the local replica
//	FINTRACK_SYNC_INTERVAL    duration, e.g. "30s"
//	FINTRACK_SAFETY_BUFFER    duration, e.g. "5m"
//	FINTRACK_SYNC_TIMEOUT     duration, e.g. "2m"
func parseEnv(cfg *Config) error {
	if v := os.Getenv("FINTRACK_REMOTE_ENDPOINT"); v != "" {
		cfg.RemoteEndpoint = v
	}
	if v := os.Getenv("FINTRACK_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("FINTRACK_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"FINTRACK_SYNC_INTERVAL", &cfg.SyncInterval},
		{"FINTRACK_SAFETY_BUFFER", &cfg.SafetyBuffer},
		{"FINTRACK_SYNC_TIMEOUT", &cfg.SyncTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.name)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}
