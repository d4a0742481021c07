package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration. Per-guild settings live in
// the bot state and are changed with !configure.
type Config struct {
	// Discord
	DiscordToken string

	// Storage
	DatabasePath string
	SnapshotPath string

	// External services
	PokebattlerURL string
	ScannerURL     string

	// Logging
	LogLevel string

	// How often the dirty snapshot is flushed, in seconds.
	SnapshotIntervalSeconds int
}

// Load reads configuration from environment variables, falling back to a
// .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:            os.Getenv("DISCORD_TOKEN"),
		DatabasePath:            os.Getenv("DATABASE_PATH"),
		SnapshotPath:            os.Getenv("SNAPSHOT_PATH"),
		PokebattlerURL:          os.Getenv("POKEBATTLER_URL"),
		ScannerURL:              os.Getenv("SCANNER_URL"),
		LogLevel:                os.Getenv("LOG_LEVEL"),
		SnapshotIntervalSeconds: 60,
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "raidkeeper.db"
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = "rkdata.json"
	}
	if cfg.PokebattlerURL == "" {
		cfg.PokebattlerURL = "https://fight.pokebattler.com"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if v := os.Getenv("SNAPSHOT_INTERVAL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL_SECONDS: %q", v)
		}
		cfg.SnapshotIntervalSeconds = n
	}

	return cfg, nil
}
