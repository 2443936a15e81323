package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Stats
		Metadata
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Stats struct {
		Timezone           string // IANA name, "Local" or "UTC"; calendar used for day/month buckets
		StreakWindowDays   int
		LatestRatingsLimit int
	}
	Metadata struct {
		Enabled      bool   // Look up books on OpenLibrary
		BaseURL      string // OpenLibrary base URL
		SyncEnabled  bool
		SyncSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Statistics defaults
	v.SetDefault("stats_timezone", "Local")
	v.SetDefault("stats_streak_window_days", 30)
	v.SetDefault("stats_latest_ratings_limit", 5)

	// Metadata defaults
	v.SetDefault("metadata_enabled", true)
	v.SetDefault("metadata_base_url", DefaultOpenLibraryURL)
	v.SetDefault("metadata_sync_enabled", false)
	v.SetDefault("metadata_sync_schedule", "0 3 * * *") // Daily at 03:00

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Stats: Stats{
			Timezone:           v.GetString("STATS_TIMEZONE"),
			StreakWindowDays:   v.GetInt("STATS_STREAK_WINDOW_DAYS"),
			LatestRatingsLimit: v.GetInt("STATS_LATEST_RATINGS_LIMIT"),
		},
		Metadata: Metadata{
			Enabled:      v.GetBool("METADATA_ENABLED"),
			BaseURL:      v.GetString("METADATA_BASE_URL"),
			SyncEnabled:  v.GetBool("METADATA_SYNC_ENABLED"),
			SyncSchedule: v.GetString("METADATA_SYNC_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}

// Location resolves the statistics time zone.
func (s Stats) Location() (*time.Location, error) {
	switch s.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_TIMEZONE %q: %w", s.Timezone, err)
	}
	return loc, nil
}
