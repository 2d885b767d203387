// Package config handles configuration loading from environment variables and optional YAML files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	RateLimits RateLimitsConfig
	Logging    LoggingConfig
	Display    DisplayConfig
	Booking    BookingConfig
	Retention  RetentionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path          string
	BusyTimeoutMs int
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	SecretKey     string
	AdminPassword string
}

// TierLimit defines rate limits for a specific tier.
type TierLimit struct {
	RequestsPerMinute int
	Burst             int
}

// RateLimitsConfig holds rate limiting settings per tier.
type RateLimitsConfig struct {
	Read  TierLimit
	Write TierLimit
	Admin TierLimit
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// DisplayConfig holds display formatting settings.
type DisplayConfig struct {
	Timezone       string
	DateFormat     string
	TimeFormat     string
	DatetimeFormat string
}

// BookingConfig holds availability slot settings.
type BookingConfig struct {
	SlotMinutes int
}

// RetentionConfig holds data retention settings.
type RetentionConfig struct {
	Enabled            bool
	DeclinedSharesDays int
	CompletedTasksDays int
	AuditLogDays       int
	Schedule           string // cron expression
}

// Load reads configuration from environment variables with defaults,
// then overlays the optional YAML config file.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Server = ServerConfig{
		Host:         getEnv("HOST", DefaultHost),
		Port:         getEnvInt("PORT", DefaultPort),
		BaseURL:      getEnv("BASE_URL", DefaultBaseURL),
		ReadTimeout:  getEnvDuration("READ_TIMEOUT", DefaultReadTimeout),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", DefaultWriteTimeout),
	}

	cfg.Database = DatabaseConfig{
		Path:          getEnv("DATA_DIR", DefaultDataDir) + "/calendard.db",
		BusyTimeoutMs: DefaultBusyTimeoutMs,
	}

	cfg.Auth = AuthConfig{
		SecretKey:     getEnv("SECRET_KEY", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	cfg.RateLimits = RateLimitsConfig{
		Read:  TierLimit{RequestsPerMinute: 120, Burst: 20},
		Write: TierLimit{RequestsPerMinute: 60, Burst: 10},
		Admin: TierLimit{RequestsPerMinute: 120, Burst: 20},
	}

	cfg.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", DefaultLogLevel),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	cfg.Display = DisplayConfig{
		Timezone:       getEnv("DISPLAY_TIMEZONE", DefaultTimezone),
		DateFormat:     "Jan 2, 2006",
		TimeFormat:     "3:04 PM",
		DatetimeFormat: "Jan 2, 2006 at 3:04 PM",
	}

	cfg.Booking = BookingConfig{
		SlotMinutes: getEnvInt("BOOKING_SLOT_MINUTES", DefaultSlotMinutes),
	}

	cfg.Retention = RetentionConfig{
		Enabled:            getEnvBool("RETENTION_ENABLED", true),
		DeclinedSharesDays: getEnvInt("RETENTION_DECLINED_SHARES_DAYS", DefaultDeclinedSharesDays),
		CompletedTasksDays: getEnvInt("RETENTION_COMPLETED_TASKS_DAYS", DefaultCompletedTasksDays),
		AuditLogDays:       getEnvInt("RETENTION_AUDIT_DAYS", DefaultAuditLogDays),
		Schedule:           getEnv("RETENTION_SCHEDULE", DefaultRetentionSchedule),
	}

	if err := loadConfigFile(cfg, GetConfigFilePath()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration fields are set.
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY environment variable is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Booking.SlotMinutes <= 0 {
		return fmt.Errorf("booking slot minutes must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
