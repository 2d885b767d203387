package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret-at-least-16-bytes")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Port: got %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Booking.SlotMinutes != DefaultSlotMinutes {
		t.Errorf("SlotMinutes: got %d, want %d", cfg.Booking.SlotMinutes, DefaultSlotMinutes)
	}
	if !cfg.Retention.Enabled {
		t.Error("Retention should be enabled by default")
	}
	if cfg.Retention.Schedule != DefaultRetentionSchedule {
		t.Errorf("Retention schedule: got %q", cfg.Retention.Schedule)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret-at-least-16-bytes")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("READ_TIMEOUT", "10s")
	t.Setenv("RETENTION_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Log level: got %q", cfg.Logging.Level)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout: got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Retention.Enabled {
		t.Error("Retention should be disabled via env")
	}
}

func TestLoad_RequiresSecretKey(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	os.Unsetenv("SECRET_KEY")

	if _, err := Load(); err == nil {
		t.Error("Load without SECRET_KEY should fail")
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECRET_KEY", "test-secret-at-least-16-bytes")
	t.Setenv("DATA_DIR", dir)

	yaml := `
server:
  port: 7070
  read_timeout: 5s
booking:
  slot_minutes: 15
retention:
  declined_shares_days: 7
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Port from file: got %d, want 7070", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout from file: got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Booking.SlotMinutes != 15 {
		t.Errorf("SlotMinutes from file: got %d", cfg.Booking.SlotMinutes)
	}
	if cfg.Retention.DeclinedSharesDays != 7 {
		t.Errorf("DeclinedSharesDays from file: got %d", cfg.Retention.DeclinedSharesDays)
	}
	// Unmentioned fields keep their defaults.
	if cfg.Retention.AuditLogDays != DefaultAuditLogDays {
		t.Errorf("AuditLogDays should stay default, got %d", cfg.Retention.AuditLogDays)
	}
}

func TestValidate(t *testing.T) {
	base := &Config{
		Server:  ServerConfig{Port: 8080},
		Auth:    AuthConfig{SecretKey: "secret"},
		Booking: BookingConfig{SlotMinutes: 30},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Valid config rejected: %v", err)
	}

	bad := *base
	bad.Server.Port = 0
	if err := bad.Validate(); err == nil {
		t.Error("Zero port should be rejected")
	}

	bad = *base
	bad.Booking.SlotMinutes = 0
	if err := bad.Validate(); err == nil {
		t.Error("Zero slot minutes should be rejected")
	}
}
