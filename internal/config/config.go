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
	StorePath         string
	LogPath           string
	LogLevel          string
	StatusBarStyle    string
	Language          string
	ProcessPattern    string
	MetricsAddr       string
	GeminiDir         string
	PollInterval      time.Duration
	MaxAccounts       int
	WarningThreshold  int
	CriticalThreshold int
	EnableMonitoring  bool
	ShowGeminiPro     bool
	ShowGeminiFlash   bool
	ShowOnlyLowQuota  bool
	Notifications     bool
}

// Default values
const (
	defaultPollInterval      = 30 * time.Second
	// MinPollInterval is the shortest accepted poll interval.
	MinPollInterval          = 5 * time.Second
	defaultMaxAccounts       = 10
	defaultWarningThreshold  = 50
	defaultCriticalThreshold = 30
	defaultProcessPattern    = "language_server"
	defaultLanguage          = "auto"
	defaultLogLevel          = "info"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		StorePath:         getEnvString("OQ_STORE_PATH", defaultPath("state.db")),
		LogPath:           getEnvString("OQ_LOG_PATH", defaultPath("omni-quota.log")),
		LogLevel:          strings.ToLower(getEnvString("OQ_LOG_LEVEL", defaultLogLevel)),
		PollInterval:      getEnvDuration("OQ_POLL_INTERVAL", defaultPollInterval),
		EnableMonitoring:  getEnvBool("OQ_ENABLE_MONITORING", true),
		MaxAccounts:       getEnvInt("OQ_MAX_ACCOUNTS", defaultMaxAccounts),
		WarningThreshold:  getEnvInt("OQ_WARNING_THRESHOLD", defaultWarningThreshold),
		CriticalThreshold: getEnvInt("OQ_CRITICAL_THRESHOLD", defaultCriticalThreshold),
		StatusBarStyle:    strings.ToLower(getEnvString("OQ_STATUS_STYLE", StyleDots)),
		ShowGeminiPro:     getEnvBool("OQ_SHOW_GEMINI_PRO", true),
		ShowGeminiFlash:   getEnvBool("OQ_SHOW_GEMINI_FLASH", true),
		ShowOnlyLowQuota:  getEnvBool("OQ_SHOW_ONLY_LOW_QUOTA", false),
		Language:          getEnvString("OQ_LANGUAGE", defaultLanguage),
		ProcessPattern:    getEnvString("OQ_PROCESS_PATTERN", defaultProcessPattern),
		MetricsAddr:       getEnvString("OQ_METRICS_ADDR", ""),
		Notifications:     getEnvBool("OQ_NOTIFICATIONS", true),
		GeminiDir:         getEnvString("OQ_GEMINI_DIR", defaultGeminiDir()),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure store directory exists
	if err := ensureDir(filepath.Dir(cfg.StorePath)); err != nil {
		return nil, err
	}

	// Ensure log directory exists
	if err := ensureDir(filepath.Dir(cfg.LogPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges. A too short poll interval is clamped up
// instead of rejected.
func (c *Config) Validate() error {
	if c.PollInterval < MinPollInterval {
		c.PollInterval = MinPollInterval
	}
	if c.MaxAccounts < 1 {
		return fmt.Errorf("OQ_MAX_ACCOUNTS must be at least 1, got %d", c.MaxAccounts)
	}
	if c.WarningThreshold < 0 || c.WarningThreshold > 100 {
		return fmt.Errorf("OQ_WARNING_THRESHOLD must be within 0..100, got %d", c.WarningThreshold)
	}
	if c.CriticalThreshold < 0 || c.CriticalThreshold > 100 {
		return fmt.Errorf("OQ_CRITICAL_THRESHOLD must be within 0..100, got %d", c.CriticalThreshold)
	}
	if c.CriticalThreshold > c.WarningThreshold {
		return fmt.Errorf("OQ_CRITICAL_THRESHOLD (%d) must not exceed OQ_WARNING_THRESHOLD (%d)",
			c.CriticalThreshold, c.WarningThreshold)
	}
	if !ValidStyle(c.StatusBarStyle) {
		return fmt.Errorf("OQ_STATUS_STYLE must be %q or %q, got %q", StyleDots, StylePercentage, c.StatusBarStyle)
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
			filepath.Join(home, ".config", "omni-quota", ".env"),
			filepath.Join(home, ".omni-quota", ".env"),
		)
	}

	return paths
}

// defaultPath returns name inside the per-user configuration directory.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "omni-quota", name)
}

func defaultGeminiDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gemini"
	}
	return filepath.Join(home, ".gemini")
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

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
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
