package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	TimeZone             string
	DailySummarySchedule string
	CleanupSchedule      string

	// History storage: "sqlite" or "azure"
	HistoryBackend   string
	SQLitePath       string
	StorageAccount   string
	StorageContainer string

	// Throttle storage: "memory" or "redis"
	ThrottleBackend string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Notification configuration
	TeamsWebhookURL  string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFrom        string
	DashboardBaseURL string

	// Staff directory entries, each "role:id:name:email"
	StaffContacts []string

	// Screening engine
	LexiconPath               string
	HistoryWindowDays         int
	RedThrottle               time.Duration
	OrangeThrottle            time.Duration
	YellowThrottle            time.Duration
	EmailThrottle             time.Duration
	NotificationRetentionDays int
	EnableEncouragement       bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Debug:                getBoolEnv("DEBUG", false),
		TimeZone:             getEnv("TIMEZONE", "UTC"),
		DailySummarySchedule: getEnv("DAILY_SUMMARY_SCHEDULE", "0 0 17 * * *"),
		CleanupSchedule:      getEnv("CLEANUP_SCHEDULE", "0 30 3 * * *"),

		HistoryBackend:   getEnv("HISTORY_BACKEND", "sqlite"),
		SQLitePath:       getEnv("SQLITE_PATH", "wellbot.db"),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "wellness"),

		ThrottleBackend: getEnv("THROTTLE_BACKEND", "memory"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getIntEnv("REDIS_DB", 0),

		TeamsWebhookURL:  getEnv("TEAMS_WEBHOOK_URL", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getIntEnv("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFrom:        getEnv("EMAIL_FROM", ""),
		DashboardBaseURL: getEnv("DASHBOARD_BASE_URL", "http://localhost:3000"),

		StaffContacts: getSliceEnv("STAFF_CONTACTS", nil),

		LexiconPath:               getEnv("LEXICON_PATH", ""),
		HistoryWindowDays:         getIntEnv("HISTORY_WINDOW_DAYS", 30),
		RedThrottle:               getDurationEnv("RED_THROTTLE", 2*time.Hour),
		OrangeThrottle:            getDurationEnv("ORANGE_THROTTLE", 6*time.Hour),
		YellowThrottle:            getDurationEnv("YELLOW_THROTTLE", 24*time.Hour),
		EmailThrottle:             getDurationEnv("EMAIL_THROTTLE", 2*time.Hour),
		NotificationRetentionDays: getIntEnv("NOTIFICATION_RETENTION_DAYS", 30),
		EnableEncouragement:       getBoolEnv("ENABLE_ENCOURAGEMENT", true),
	}

	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.SMTPUsername
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.HistoryBackend {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when HISTORY_BACKEND is 'sqlite'")
		}
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when HISTORY_BACKEND is 'azure'")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be 'sqlite' or 'azure'")
	}

	switch c.ThrottleBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when THROTTLE_BACKEND is 'redis'")
		}
	default:
		return fmt.Errorf("THROTTLE_BACKEND must be 'memory' or 'redis'")
	}

	if c.SMTPHost != "" && c.EmailFrom == "" {
		return fmt.Errorf("EMAIL_FROM or SMTP_USERNAME is required when SMTP_HOST is set")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}

	if c.RedThrottle <= 0 || c.OrangeThrottle <= 0 || c.YellowThrottle <= 0 {
		return fmt.Errorf("RED_THROTTLE, ORANGE_THROTTLE and YELLOW_THROTTLE must be positive")
	}
	if c.RedThrottle > c.OrangeThrottle || c.OrangeThrottle > c.YellowThrottle {
		return fmt.Errorf("throttle windows must not decrease with severity (red <= orange <= yellow)")
	}

	if c.HistoryWindowDays <= 0 {
		return fmt.Errorf("HISTORY_WINDOW_DAYS must be positive")
	}
	if c.NotificationRetentionDays <= 0 {
		return fmt.Errorf("NOTIFICATION_RETENTION_DAYS must be positive")
	}

	return nil
}

// HistoryWindow is the look-back used for trends and history queries
func (c *Config) HistoryWindow() time.Duration {
	return time.Duration(c.HistoryWindowDays) * 24 * time.Hour
}

// NotificationRetention is how long read notifications are kept
func (c *Config) NotificationRetention() time.Duration {
	return time.Duration(c.NotificationRetentionDays) * 24 * time.Hour
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
