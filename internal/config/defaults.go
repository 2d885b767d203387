// Package config provides default values for configuration.
package config

import "time"

// Server defaults
const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8080
	DefaultBaseURL      = "http://localhost:8080"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Database defaults
const (
	DefaultDataDir       = "/data"
	DefaultBusyTimeoutMs = 5000
)

// Logging defaults
const (
	DefaultLogLevel = "info"
)

// Display defaults
const (
	DefaultTimezone = "UTC"
)

// Booking defaults
const (
	DefaultSlotMinutes = 30
)

// Retention defaults
const (
	DefaultDeclinedSharesDays = 30
	DefaultCompletedTasksDays = 90
	DefaultAuditLogDays       = 365
	DefaultRetentionSchedule  = "0 3 * * *"
)
