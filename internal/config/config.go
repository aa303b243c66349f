// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the SQLite databases (always absolute)
	Port     int
	DevMode  bool
	LogLevel string

	// CORS origins for the dashboard frontend (comma-separated env value)
	AllowedOrigins string

	// External collaborators
	BolnaBaseURL  string
	BolnaAPIKey   string
	BolnaAgentID  string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	CalComBaseURL string
	CalComAPIKey  string
	CalComEventID int

	// Transcript archive (optional; disabled when bucket is empty)
	ArchiveBucket string
	ArchiveRegion string

	// Pipeline tunables
	ScheduleDelay    time.Duration // buffer added to requested call time (default 5m)
	BatchCallGap     time.Duration // inter-call gap in batch scheduling (default 0)
	CooldownMin      time.Duration // min age before a completed call is screened (default 10m)
	CooldownMax      time.Duration // lookback window cap (default 60m)
	MaxRetries       int           // per-record retry budget (default 3)
	MatchTopK        int           // directional match list cap (default 20)
	MatchMinScore    float64       // similarity floor (default 0.5)
	TickItemDelay    time.Duration // sequential per-item delay inside a tick (default 200ms)
	ScreeningCron    string        // default every minute
	AssignmentCron   string        // default every minute
	MatchRefreshCron string        // default every 5 minutes
	SweepCron        string        // dead-letter sweep, default hourly
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("HIREWIRE_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("PORT", 8080),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		BolnaBaseURL:  getEnv("BOLNA_BASE_URL", "https://api.bolna.dev"),
		BolnaAPIKey:   getEnv("BOLNA_API_KEY", ""),
		BolnaAgentID:  getEnv("BOLNA_AGENT_ID", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		CalComBaseURL: getEnv("CALCOM_BASE_URL", "https://api.cal.com"),
		CalComAPIKey:  getEnv("CALCOM_API_KEY", ""),
		CalComEventID: getEnvAsInt("CALCOM_EVENT_TYPE_ID", 0),

		ArchiveBucket: getEnv("TRANSCRIPT_ARCHIVE_BUCKET", ""),
		ArchiveRegion: getEnv("TRANSCRIPT_ARCHIVE_REGION", "us-east-1"),

		ScheduleDelay:    getEnvAsDuration("CALL_SCHEDULE_DELAY", 5*time.Minute),
		BatchCallGap:     getEnvAsDuration("BATCH_CALL_GAP", 0),
		CooldownMin:      getEnvAsDuration("SCREENING_COOLDOWN_MIN", 10*time.Minute),
		CooldownMax:      getEnvAsDuration("SCREENING_COOLDOWN_MAX", 60*time.Minute),
		MaxRetries:       getEnvAsInt("MAX_RETRIES", 3),
		MatchTopK:        getEnvAsInt("MATCH_TOP_K", 20),
		MatchMinScore:    getEnvAsFloat("MATCH_MIN_SCORE", 0.5),
		TickItemDelay:    getEnvAsDuration("TICK_ITEM_DELAY", 200*time.Millisecond),
		ScreeningCron:    getEnv("SCREENING_CRON", "0 * * * * *"),
		AssignmentCron:   getEnv("ASSIGNMENT_CRON", "30 * * * * *"),
		MatchRefreshCron: getEnv("MATCH_REFRESH_CRON", "0 */5 * * * *"),
		SweepCron:        getEnv("SWEEP_CRON", "0 0 * * * *"),
	}

	if cfg.CooldownMin >= cfg.CooldownMax {
		return nil, fmt.Errorf("screening cooldown window is empty: min %s >= max %s", cfg.CooldownMin, cfg.CooldownMax)
	}

	return cfg, nil
}

// CoreDBPath returns the path to the core database.
func (c *Config) CoreDBPath() string {
	return filepath.Join(c.DataDir, "core.db")
}

// IndexDBPath returns the path to the match index database.
func (c *Config) IndexDBPath() string {
	return filepath.Join(c.DataDir, "index.db")
}

// ArchiveEnabled reports whether transcript archival is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
