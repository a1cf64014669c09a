// Package config contains everything related to configuration
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	APIURL          string
	Token           string
	TokenPath       string
	SnapshotPath    string
	DatabasePath    string
	LogPath         string
	ExportDir       string
	LogLevel        slog.Level
	RefreshInterval time.Duration
	RateLimit       float64
	NotifyNewModels bool
}

// Default values
const (
	defaultAPIURL          = "http://localhost:5000"
	defaultRefreshInterval = 60 * time.Second
	minRefreshInterval     = 5 * time.Second
	defaultRateLimit       = 5
)

// UsesSnapshot reports whether the catalog comes from a local file instead of the API.
func (c *Config) UsesSnapshot() bool {
	return c.SnapshotPath != ""
}

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
		APIURL:          strings.TrimRight(getEnvString("AXIMO_API_URL", defaultAPIURL), "/"),
		Token:           strings.TrimSpace(os.Getenv("AXIMO_TOKEN")),
		TokenPath:       getEnvString("AXIMO_TOKEN_FILE", getDefaultTokenPath()),
		SnapshotPath:    os.Getenv("AXIMO_SNAPSHOT_PATH"),
		DatabasePath:    getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		LogPath:         getEnvString("LOG_PATH", getDefaultLogPath()),
		ExportDir:       getEnvString("EXPORT_DIR", getDefaultExportDir()),
		LogLevel:        getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		RefreshInterval: getEnvDuration("CATALOG_REFRESH_INTERVAL", defaultRefreshInterval),
		RateLimit:       getEnvFloat("API_RATE_LIMIT", defaultRateLimit),
		NotifyNewModels: getEnvBool("NOTIFY_NEW_MODELS", true),
	}

	if cfg.Token == "" {
		cfg.Token = LoadTokenFile(cfg.TokenPath)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	if cfg.LogPath != "" {
		if err := ensureDir(filepath.Dir(cfg.LogPath)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !c.UsesSnapshot() {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("AXIMO_API_URL must be an http(s) URL, got %q", c.APIURL)
		}
	}

	if c.RefreshInterval < minRefreshInterval {
		c.RefreshInterval = minRefreshInterval
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	return nil
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
			filepath.Join(home, ".config", "aximo", ".env"),
			filepath.Join(home, ".aximo", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// configDir returns ~/.config/aximo, or "" if the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "aximo")
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	dir := configDir()
	if dir == "" {
		return "catalog.db"
	}
	return filepath.Join(dir, "catalog.db")
}

// getDefaultLogPath returns the default log file path.
func getDefaultLogPath() string {
	dir := configDir()
	if dir == "" {
		return "aximo.log"
	}
	return filepath.Join(dir, "aximo.log")
}

// getDefaultTokenPath returns the default path of the saved bearer token.
func getDefaultTokenPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "token")
}

// getDefaultExportDir returns where exports are written by default.
func getDefaultExportDir() string {
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
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

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvLevel parses a slog level name such as "debug" or "warn".
func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}
	return level
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
