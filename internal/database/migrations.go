// Package database handles database migrations.
package database

import (
	"fmt"
)

// migrate runs all database migrations.
func (db *DB) migrate() error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, m := range getAllMigrations() {
		if m.version > currentVersion {
			if err := db.runMigration(m); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
		}
	}

	return nil
}

type migration struct {
	version int
	sql     string
}

func (db *DB) runMigration(m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

func getAllMigrations() []migration {
	return []migration{
		{
			version: 1,
			sql:     migration001InitialSchema,
		},
		{
			version: 2,
			sql:     migration002ShareActivePair,
		},
	}
}

const migration001InitialSchema = `
-- API Keys table
-- Keys act on behalf of a CRM user; values stored as HMAC-SHA256 hashes
CREATE TABLE IF NOT EXISTS api_keys (
    id TEXT PRIMARY KEY,
    key_hash TEXT UNIQUE NOT NULL,          -- HMAC-SHA256(server_secret, full_key)
    key_prefix TEXT NOT NULL,               -- First 12 chars for display
    name TEXT NOT NULL,
    user_id TEXT NOT NULL,                  -- CRM user this key acts as
    user_name TEXT NOT NULL,
    tier TEXT NOT NULL CHECK (tier IN ('read', 'write', 'admin')),
    created_at TEXT DEFAULT (datetime('now')),
    last_used_at TEXT,
    revoked_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash);
CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id) WHERE revoked_at IS NULL;


-- Calendars table
-- The virtual "default" calendar is never stored here
CREATE TABLE IF NOT EXISTS calendars (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '#4285f4',
    owner_id TEXT NOT NULL,
    owner_name TEXT NOT NULL,
    is_default INTEGER NOT NULL DEFAULT 0,
    is_visible INTEGER NOT NULL DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_calendars_owner ON calendars(owner_id);


-- Entries table
-- calendar_id '' means the owner's virtual default calendar
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    starts_at TEXT NOT NULL,
    ends_at TEXT,
    type TEXT NOT NULL DEFAULT 'meeting' CHECK (type IN (
        'meeting', 'task', 'follow_up', 'reminder', 'booking'
    )),
    calendar_id TEXT NOT NULL DEFAULT '',
    owner_id TEXT NOT NULL,
    owner_name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    linked_task_id TEXT,
    completed INTEGER NOT NULL DEFAULT 0,
    repeat_rule TEXT NOT NULL DEFAULT '',
    repeat_until TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_entries_owner ON entries(owner_id);
CREATE INDEX IF NOT EXISTS idx_entries_calendar ON entries(calendar_id);
CREATE INDEX IF NOT EXISTS idx_entries_starts ON entries(starts_at);


-- Shares table
-- pending/accepted/declined lifecycle; re-sharing creates a new row
CREATE TABLE IF NOT EXISTS shares (
    id TEXT PRIMARY KEY,
    calendar_id TEXT NOT NULL REFERENCES calendars(id),
    calendar_name TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    owner_name TEXT NOT NULL,
    shared_with_id TEXT NOT NULL,
    shared_with_name TEXT NOT NULL,
    shared_with_email TEXT NOT NULL DEFAULT '',
    permission TEXT NOT NULL CHECK (permission IN ('view', 'edit', 'full')),
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN (
        'pending', 'accepted', 'declined'
    )),
    created_at TEXT DEFAULT (datetime('now')),
    responded_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_shares_recipient ON shares(shared_with_id, status);
CREATE INDEX IF NOT EXISTS idx_shares_calendar ON shares(calendar_id);


-- User schedules table
-- One row per user; working hours and blocked dates stored as JSON
CREATE TABLE IF NOT EXISTS user_schedules (
    id TEXT PRIMARY KEY,
    user_id TEXT UNIQUE NOT NULL,
    user_name TEXT NOT NULL,
    timezone TEXT NOT NULL DEFAULT 'UTC',
    working_hours TEXT NOT NULL,            -- JSON: 7 weekday entries
    buffer_minutes INTEGER NOT NULL DEFAULT 15,
    minimum_notice_hours INTEGER NOT NULL DEFAULT 24,
    blocked_dates TEXT NOT NULL DEFAULT '[]', -- JSON: ISO dates
    updated_at TEXT DEFAULT (datetime('now'))
);


-- Audit Log table
-- Append-only log of all mutations
CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT DEFAULT (datetime('now')),
    event_type TEXT NOT NULL,
    target_id TEXT,
    api_key_id TEXT REFERENCES api_keys(id),
    actor TEXT,
    details TEXT,                           -- JSON: event-specific data
    ip_address TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_log(event_type);


-- Settings table
-- Key-value store: per-user view preferences and runtime state
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,                    -- JSON
    updated_at TEXT DEFAULT (datetime('now'))
);


-- Admin Password Hash table
CREATE TABLE IF NOT EXISTS admin_auth (
    id TEXT PRIMARY KEY DEFAULT 'admin',
    password_hash TEXT NOT NULL,            -- bcrypt hash
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);
`

const migration002ShareActivePair = `
-- At most one active (pending or accepted) share per calendar/recipient
-- pair. Declined shares stay around for the retention worker, so the
-- index skips them.
CREATE UNIQUE INDEX IF NOT EXISTS idx_shares_active_pair
    ON shares(calendar_id, shared_with_id)
    WHERE status != 'declined';
`
