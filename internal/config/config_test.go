package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	t.Setenv(key, "test_value")

	if got := getEnvString(key, "default"); got != "test_value" {
		t.Errorf("getEnvString() = %q, want %q", got, "test_value")
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvFloatAndBool(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_BAD_FLOAT", "abc")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_BAD_BOOL", "maybe")

	if got := getEnvFloat("TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("getEnvFloat() = %v, want 2.5", got)
	}
	if got := getEnvFloat("TEST_BAD_FLOAT", 1); got != 1 {
		t.Errorf("getEnvFloat() = %v, want default", got)
	}
	if got := getEnvBool("TEST_BOOL", true); got {
		t.Error("getEnvBool() = true, want false")
	}
	if got := getEnvBool("TEST_BAD_BOOL", true); !got {
		t.Error("getEnvBool() should fall back to default")
	}
}

func TestGetEnvLevel(t *testing.T) {
	tests := []struct {
		val  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Setenv("TEST_LEVEL", tt.val)
		if got := getEnvLevel("TEST_LEVEL", slog.LevelInfo); got != tt.want {
			t.Errorf("getEnvLevel(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Skipping test because user home dir cannot be found")
	}

	if got, want := getDefaultDatabasePath(), filepath.Join(home, ".config", "aximo", "catalog.db"); got != want {
		t.Errorf("getDefaultDatabasePath() = %q, want %q", got, want)
	}
	if got, want := getDefaultLogPath(), filepath.Join(home, ".config", "aximo", "aximo.log"); got != want {
		t.Errorf("getDefaultLogPath() = %q, want %q", got, want)
	}
	if got, want := getDefaultTokenPath(), filepath.Join(home, ".config", "aximo", "token"); got != want {
		t.Errorf("getDefaultTokenPath() = %q, want %q", got, want)
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Error("getEnvPaths() returned empty list")
	}

	cwd, _ := os.Getwd()
	found := false
	for _, p := range paths {
		if p == filepath.Join(cwd, ".env") {
			found = true
			break
		}
	}
	if !found {
		t.Error("getEnvPaths() missing current directory .env")
	}
}

// isolate points HOME and the working directory at an empty temp dir so no
// stray .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("HOME", tmpDir)
	for _, key := range []string{
		"AXIMO_API_URL", "AXIMO_TOKEN", "AXIMO_TOKEN_FILE", "AXIMO_SNAPSHOT_PATH",
		"LOG_LEVEL", "CATALOG_REFRESH_INTERVAL", "API_RATE_LIMIT", "NOTIFY_NEW_MODELS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "data", "catalog.db"))
	t.Setenv("LOG_PATH", filepath.Join(tmpDir, "logs", "aximo.log"))
	return tmpDir
}

func TestLoad_Defaults(t *testing.T) {
	tmpDir := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.APIURL != defaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, defaultRefreshInterval)
	}
	if cfg.RateLimit != defaultRateLimit {
		t.Errorf("RateLimit = %v, want %v", cfg.RateLimit, defaultRateLimit)
	}
	if !cfg.NotifyNewModels {
		t.Error("NotifyNewModels should default to true")
	}
	if cfg.Token != "" {
		t.Errorf("Token = %q, want empty", cfg.Token)
	}
	if cfg.UsesSnapshot() {
		t.Error("UsesSnapshot() should be false")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "data")); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	isolate(t)
	t.Setenv("AXIMO_API_URL", "https://api.example.com/")
	t.Setenv("CATALOG_REFRESH_INTERVAL", "1s")
	t.Setenv("API_RATE_LIMIT", "0")
	t.Setenv("NOTIFY_NEW_MODELS", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("APIURL = %q, trailing slash should be trimmed", cfg.APIURL)
	}
	if cfg.RefreshInterval != minRefreshInterval {
		t.Errorf("RefreshInterval = %v, want clamp to %v", cfg.RefreshInterval, minRefreshInterval)
	}
	if cfg.RateLimit != 0 || cfg.NotifyNewModels {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_InvalidURL(t *testing.T) {
	isolate(t)
	t.Setenv("AXIMO_API_URL", "localhost:5000")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject a URL without scheme")
	}

	// A snapshot source does not need the API.
	t.Setenv("AXIMO_SNAPSHOT_PATH", "models.json")
	if _, err := Load(); err != nil {
		t.Errorf("Load() with snapshot failed: %v", err)
	}
}

func TestLoad_NegativeRateLimit(t *testing.T) {
	isolate(t)
	t.Setenv("API_RATE_LIMIT", "-1")
	if _, err := Load(); err == nil {
		t.Error("Load() should reject a negative rate limit")
	}
}

func TestLoad_TokenFromFile(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "token")
	token := "eyJhbGciOiJIUzI1NiJ9.eyJlbWFpbCI6ImFAYi5jIn0.sig"
	if err := SaveTokenFile(path, token); err != nil {
		t.Fatalf("SaveTokenFile() failed: %v", err)
	}
	t.Setenv("AXIMO_TOKEN_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Token != token {
		t.Errorf("Token = %q, want %q", cfg.Token, token)
	}

	t.Setenv("AXIMO_TOKEN", "eyJx.eyJy.z")
	cfg, _ = Load()
	if cfg.Token != "eyJx.eyJy.z" {
		t.Errorf("AXIMO_TOKEN should win over the file, got %q", cfg.Token)
	}
}
