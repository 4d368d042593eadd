package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "budgettracker/internal/log"
)

// DefaultDBPath is the conventional ledger file name.
const DefaultDBPath = "./budget_tracker.db"

type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel string

	// Console
	CurrencySymbol string

	// Lifecycle
	ShutdownTimeout time.Duration
}

func Load() *Config {
	cfg := &Config{
		DBPath:          getEnv("LEDGER_DB_PATH", DefaultDBPath),
		LogLevel:        getEnv("LOG_LEVEL", "warn"),
		CurrencySymbol:  getEnv("CURRENCY_SYMBOL", "£"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.DBPath) == "" {
		errors = append(errors, "ledger database path cannot be empty")
	} else if info, err := os.Stat(c.DBPath); err == nil && info.IsDir() {
		errors = append(errors, fmt.Sprintf("ledger database path '%s' is a directory", c.DBPath))
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create ledger database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len([]rune(c.CurrencySymbol)) > 3 {
		errors = append(errors, fmt.Sprintf("invalid currency symbol '%s': at most 3 characters", c.CurrencySymbol))
	}

	if c.ShutdownTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must not be negative", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 1 minute", c.ShutdownTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() slog.Level {
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
