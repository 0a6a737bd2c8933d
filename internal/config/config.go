// Package config loads polair configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration.
type Config struct {
	// HTTPTimeout is the per-request timeout for API calls.
	HTTPTimeout time.Duration

	// DBPath is the SQLite cache file path.
	DBPath string

	// BaseURL is the upstream API base URL. Empty means the built-in default.
	BaseURL string
}

// FromEnv creates a Config from environment variables, applying defaults for
// anything unset.
func FromEnv() Config {
	timeoutSec, _ := strconv.Atoi(getEnvOrDefault("POLAIR_HTTP_TIMEOUT", "15"))
	if timeoutSec <= 0 {
		timeoutSec = 15
	}

	return Config{
		HTTPTimeout: time.Duration(timeoutSec) * time.Second,
		DBPath:      getEnvOrDefault("POLAIR_DB_PATH", "polair.db"),
		BaseURL:     os.Getenv("POLAIR_BASE_URL"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
