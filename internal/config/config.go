// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/clubsync/internal/ingest/site"
	"github.com/fortuna/clubsync/internal/scheduler"
)

// Fetch modes
const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Config holds every setting of the service
type Config struct {
	RESTPort string
	WSPort   string

	BaseURL      string
	UserAgent    string
	FetchTimeout time.Duration
	FetchMode    string

	StoreDriver string
	DatabaseDSN string
	BoltPath    string

	RedisURL    string
	SnapshotTTL time.Duration

	Sync          scheduler.Config
	CurrentSeason string

	LogLevel  string
	LogFormat string

	SeedFile string
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables alone
func FromEnv() (*Config, error) {
	cfg := &Config{
		RESTPort: getEnv("REST_PORT", "8080"),
		WSPort:   getEnv("WS_PORT", "8081"),

		BaseURL:      getEnv("BASE_URL", site.DefaultBaseURL),
		UserAgent:    getEnv("USER_AGENT", site.UserAgent),
		FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", site.DefaultTimeout),
		FetchMode:    strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP)),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		DatabaseDSN: getEnv("DATABASE_DSN", ""),
		BoltPath:    getEnv("BOLT_PATH", "clubsync.bolt"),

		RedisURL:    getEnv("REDIS_URL", ""),
		SnapshotTTL: getEnvAsDuration("SNAPSHOT_TTL", 15*time.Minute),

		Sync: scheduler.Config{
			Interval:      getEnvAsDuration("SYNC_INTERVAL", 24*time.Hour),
			Delay:         getEnvAsDuration("SYNC_DELAY", scheduler.DefaultDelay),
			RatePerMinute: getEnvAsInt("SYNC_RATE_PER_MINUTE", 0),
			EnableCron:    getEnvAsBool("ENABLE_SYNC_CRON", true),
		},
		CurrentSeason: getEnv("CURRENT_SEASON", DefaultSeason(time.Now())),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		SeedFile: getEnv("SEED_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("invalid FETCH_MODE %q", c.FetchMode)
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("BOLT_PATH is required for the bolt store")
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}

	if c.Sync.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.Sync.Delay < 0 || c.Sync.RatePerMinute < 0 {
		return fmt.Errorf("SYNC_DELAY and SYNC_RATE_PER_MINUTE must not be negative")
	}
	return nil
}

// DefaultSeason labels the season running at now. Seasons start in July.
func DefaultSeason(now time.Time) string {
	start := now.Year()
	if now.Month() < time.July {
		start--
	}
	return fmt.Sprintf("%d/%d", start, start+1)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer, using default")
		return defaultValue
	}
	return parsed
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid boolean, using default")
		return defaultValue
	}
	return parsed
}

// getEnvAsDuration accepts Go durations ("90s") or plain milliseconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
		return defaultValue
	}
	return parsed
}
