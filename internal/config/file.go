package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type fileDuration time.Duration

func (d *fileDuration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!int" {
			var seconds int64
			if err := value.Decode(&seconds); err != nil {
				return err
			}
			*d = fileDuration(time.Duration(seconds) * time.Second)
			return nil
		}
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = fileDuration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration type")
	}
}

// ConfigFile mirrors Config with optional fields so the YAML overlay
// only overrides what it mentions.
type ConfigFile struct {
	Server    *ServerConfigFile    `yaml:"server"`
	Database  *DatabaseConfigFile  `yaml:"database"`
	Auth      *AuthConfigFile      `yaml:"auth"`
	Logging   *LoggingConfigFile   `yaml:"logging"`
	Display   *DisplayConfigFile   `yaml:"display"`
	Booking   *BookingConfigFile   `yaml:"booking"`
	Retention *RetentionConfigFile `yaml:"retention"`
}

type ServerConfigFile struct {
	Host         *string       `yaml:"host"`
	Port         *int          `yaml:"port"`
	BaseURL      *string       `yaml:"base_url"`
	ReadTimeout  *fileDuration `yaml:"read_timeout"`
	WriteTimeout *fileDuration `yaml:"write_timeout"`
}

type DatabaseConfigFile struct {
	Path          *string `yaml:"path"`
	BusyTimeoutMs *int    `yaml:"busy_timeout_ms"`
}

type AuthConfigFile struct {
	SecretKey     *string `yaml:"secret_key"`
	AdminPassword *string `yaml:"admin_password"`
}

type LoggingConfigFile struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

type DisplayConfigFile struct {
	Timezone       *string `yaml:"timezone"`
	DateFormat     *string `yaml:"date_format"`
	TimeFormat     *string `yaml:"time_format"`
	DatetimeFormat *string `yaml:"datetime_format"`
}

type BookingConfigFile struct {
	SlotMinutes *int `yaml:"slot_minutes"`
}

type RetentionConfigFile struct {
	Enabled            *bool   `yaml:"enabled"`
	DeclinedSharesDays *int    `yaml:"declined_shares_days"`
	CompletedTasksDays *int    `yaml:"completed_tasks_days"`
	AuditLogDays       *int    `yaml:"audit_log_days"`
	Schedule           *string `yaml:"schedule"`
}

func loadConfigFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyConfigFile(cfg, &file)
	return nil
}

func applyConfigFile(cfg *Config, file *ConfigFile) {
	if cfg == nil || file == nil {
		return
	}

	if file.Server != nil {
		if file.Server.Host != nil {
			cfg.Server.Host = *file.Server.Host
		}
		if file.Server.Port != nil {
			cfg.Server.Port = *file.Server.Port
		}
		if file.Server.BaseURL != nil {
			cfg.Server.BaseURL = *file.Server.BaseURL
		}
		if file.Server.ReadTimeout != nil {
			cfg.Server.ReadTimeout = time.Duration(*file.Server.ReadTimeout)
		}
		if file.Server.WriteTimeout != nil {
			cfg.Server.WriteTimeout = time.Duration(*file.Server.WriteTimeout)
		}
	}

	if file.Database != nil {
		if file.Database.Path != nil {
			cfg.Database.Path = filepath.Clean(*file.Database.Path)
		}
		if file.Database.BusyTimeoutMs != nil {
			cfg.Database.BusyTimeoutMs = *file.Database.BusyTimeoutMs
		}
	}

	if file.Auth != nil {
		if file.Auth.SecretKey != nil {
			cfg.Auth.SecretKey = *file.Auth.SecretKey
		}
		if file.Auth.AdminPassword != nil {
			cfg.Auth.AdminPassword = *file.Auth.AdminPassword
		}
	}

	if file.Logging != nil {
		if file.Logging.Level != nil {
			cfg.Logging.Level = *file.Logging.Level
		}
		if file.Logging.Format != nil {
			cfg.Logging.Format = *file.Logging.Format
		}
	}

	if file.Display != nil {
		if file.Display.Timezone != nil {
			cfg.Display.Timezone = *file.Display.Timezone
		}
		if file.Display.DateFormat != nil {
			cfg.Display.DateFormat = *file.Display.DateFormat
		}
		if file.Display.TimeFormat != nil {
			cfg.Display.TimeFormat = *file.Display.TimeFormat
		}
		if file.Display.DatetimeFormat != nil {
			cfg.Display.DatetimeFormat = *file.Display.DatetimeFormat
		}
	}

	if file.Booking != nil {
		if file.Booking.SlotMinutes != nil {
			cfg.Booking.SlotMinutes = *file.Booking.SlotMinutes
		}
	}

	if file.Retention != nil {
		if file.Retention.Enabled != nil {
			cfg.Retention.Enabled = *file.Retention.Enabled
		}
		if file.Retention.DeclinedSharesDays != nil {
			cfg.Retention.DeclinedSharesDays = *file.Retention.DeclinedSharesDays
		}
		if file.Retention.CompletedTasksDays != nil {
			cfg.Retention.CompletedTasksDays = *file.Retention.CompletedTasksDays
		}
		if file.Retention.AuditLogDays != nil {
			cfg.Retention.AuditLogDays = *file.Retention.AuditLogDays
		}
		if file.Retention.Schedule != nil {
			cfg.Retention.Schedule = *file.Retention.Schedule
		}
	}
}

// GetConfigFilePath returns the path to the config file based on environment variables.
func GetConfigFilePath() string {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return path
	}
	return filepath.Join(dataDir, "config.yaml")
}
