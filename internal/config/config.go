// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath        string
	PantryPath          string
	MarketOverridesPath string
	RefreshInterval     time.Duration
	ForecastDays        int
	APIAddr             string
	LogLevel            string
	LogFormat           string
	LogPath             string
	Notifications       bool

	// MarketOverrides holds the parsed contents of MarketOverridesPath.
	MarketOverrides map[string]float64
}

// Default values
const (
	defaultRefreshInterval = 15 * time.Minute
	defaultForecastDays    = 30
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"

	// DefaultServeAddr is the listen address used by the serve command
	// when API_ADDR is not set.
	DefaultServeAddr = ":8087"

	maxForecastDays = 365
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath:        getEnvString("DATABASE_PATH", defaultPath("stockpace.db")),
		PantryPath:          getEnvString("PANTRY_PATH", defaultPath("pantry.json")),
		MarketOverridesPath: getEnvString("MARKET_OVERRIDES_PATH", defaultPath("market.conf")),
		RefreshInterval:     getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		ForecastDays:        getEnvInt("FORECAST_DAYS", defaultForecastDays),
		APIAddr:             getEnvString("API_ADDR", ""),
		LogLevel:            getEnvString("LOG_LEVEL", defaultLogLevel),
		LogFormat:           getEnvString("LOG_FORMAT", defaultLogFormat),
		LogPath:             getEnvString("LOG_PATH", defaultPath("stockpace.log")),
		Notifications:       getEnvBool("NOTIFICATIONS", true),
	}

	if cfg.ForecastDays < 1 || cfg.ForecastDays > maxForecastDays {
		return nil, fmt.Errorf("FORECAST_DAYS must be between 1 and %d, got %d", maxForecastDays, cfg.ForecastDays)
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}

	overrides, err := LoadMarketOverrides(cfg.MarketOverridesPath)
	if err != nil {
		return nil, err
	}
	cfg.MarketOverrides = overrides

	for _, p := range []string{cfg.DatabasePath, cfg.PantryPath, cfg.LogPath} {
		if err := ensureDir(filepath.Dir(p)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
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
			filepath.Join(home, ".config", "stockpace", ".env"),
			filepath.Join(home, ".stockpace", ".env"),
		)
	}

	// Parent directory (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}

	return paths
}

// defaultPath returns name inside the stockpace config directory,
// or name itself when the home directory is unknown.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "stockpace", name)
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
