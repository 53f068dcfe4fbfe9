package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// TMDB
	TMDBAPIKey    string
	TMDBSessionID string
	TMDBAccountID int64  // Looked up from the session when zero
	TMDBBaseURL   string // API root, e.g. https://api.themoviedb.org/3

	// Storage
	StorageDriver string // "bolt" or "sqlite"
	DatabaseFile  string // $CONFIG_DIR/gorated.db

	// Sync
	SyncSchedule    string // cron spec for background refresh (default: every 6 hours)
	SyncSkipInvalid bool   // skip descriptors that fail mapping instead of failing the sync

	// Server
	ServerPort         string
	RecentDefaultLimit int // limit used by /api/recent when none is given (default: 5)

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// Setup viper FIRST to load .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	// Set defaults
	v.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("STORAGE_DRIVER", "bolt")
	v.SetDefault("SYNC_SCHEDULE", "0 */6 * * *")
	v.SetDefault("SYNC_SKIP_INVALID", false)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("RECENT_DEFAULT_LIMIT", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	configDir, err := resolveConfigDir(v.GetString("CONFIG_DIR"))
	if err != nil {
		return nil, err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER")))
	dbFile := "gorated.db"
	if driver == "sqlite" {
		dbFile = "gorated.sqlite"
	}

	config := &Config{
		TMDBAPIKey:    strings.TrimSpace(v.GetString("TMDB_API_KEY")),
		TMDBSessionID: strings.TrimSpace(v.GetString("TMDB_SESSION_ID")),
		TMDBAccountID: v.GetInt64("TMDB_ACCOUNT_ID"),
		TMDBBaseURL:   strings.TrimRight(v.GetString("TMDB_BASE_URL"), "/"),

		StorageDriver: driver,
		DatabaseFile:  filepath.Join(configDir, dbFile),

		SyncSchedule:    v.GetString("SYNC_SCHEDULE"),
		SyncSkipInvalid: v.GetBool("SYNC_SKIP_INVALID"),

		ServerPort:         v.GetString("SERVER_PORT"),
		RecentDefaultLimit: v.GetInt("RECENT_DEFAULT_LIMIT"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func resolveConfigDir(configDir string) (string, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", "gorated"), nil
	}

	// Convert relative path to absolute path
	absPath, err := filepath.Abs(configDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
	}
	return absPath, nil
}

func (c *Config) validate() error {
	if c.TMDBAPIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	if c.TMDBSessionID == "" {
		return fmt.Errorf("TMDB_SESSION_ID is required")
	}
	if c.TMDBAccountID < 0 {
		return fmt.Errorf("TMDB_ACCOUNT_ID must not be negative")
	}
	if c.StorageDriver != "bolt" && c.StorageDriver != "sqlite" {
		return fmt.Errorf("STORAGE_DRIVER must be bolt or sqlite, got %q", c.StorageDriver)
	}
	if c.RecentDefaultLimit < 0 {
		return fmt.Errorf("RECENT_DEFAULT_LIMIT must not be negative")
	}
	return nil
}
