// Package prefs stores per-user view preferences in the settings table.
package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/view"
)

// Preferences holds a user's view settings. VisibleCalendarIDs maps a
// calendar ID (including the "default" sentinel) to its visibility
// toggle; a calendar absent from the map is visible.
type Preferences struct {
	VisibleCalendarIDs map[string]bool `json:"visible_calendar_ids"`
	ShowCompletedTasks bool            `json:"show_completed_tasks"`
	DefaultView        string          `json:"default_view"`
}

// DefaultPreferences is what a user sees before saving anything.
func DefaultPreferences() *Preferences {
	return &Preferences{
		VisibleCalendarIDs: map[string]bool{},
		ShowCompletedTasks: true,
		DefaultView:        string(view.ModeWeek),
	}
}

// Store reads and writes preferences.
type Store struct {
	db *database.DB
}

// NewStore creates a preferences store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func key(userID string) string {
	return "prefs:" + userID
}

// Get retrieves a user's preferences, falling back to defaults when
// none are stored or the stored blob is corrupt.
func (s *Store) Get(ctx context.Context, userID string) (*Preferences, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM settings WHERE key = ?
	`, key(userID)).Scan(&raw)

	if err == sql.ErrNoRows {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	p := DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), p); err != nil {
		return DefaultPreferences(), nil
	}
	if p.VisibleCalendarIDs == nil {
		p.VisibleCalendarIDs = map[string]bool{}
	}
	return p, nil
}

// Save stores a user's preferences, replacing any previous version.
func (s *Store) Save(ctx context.Context, userID string, p *Preferences) error {
	if p.DefaultView != "" {
		if _, err := view.ParseMode(p.DefaultView); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key(userID), string(raw))

	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
