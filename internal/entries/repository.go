// Package entries provides entry storage and recurrence expansion.
package entries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// Repository handles entry storage and retrieval.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new entry repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// CreateEntry contains the data needed to create an entry.
type CreateEntry struct {
	Title        string
	StartsAt     time.Time
	EndsAt       *time.Time
	Type         string
	CalendarID   string // empty targets the owner's default calendar
	OwnerID      string
	OwnerName    string
	Description  string
	Location     string
	LinkedTaskID string
	RepeatRule   string
	RepeatUntil  *time.Time
}

func validType(t string) bool {
	switch t {
	case database.EntryMeeting, database.EntryTask, database.EntryFollowUp,
		database.EntryReminder, database.EntryBooking:
		return true
	}
	return false
}

// Create stores a new entry.
func (r *Repository) Create(ctx context.Context, req *CreateEntry) (*database.Entry, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("entry title is required")
	}
	if req.StartsAt.IsZero() {
		return nil, fmt.Errorf("entry start time is required")
	}
	if !validType(req.Type) {
		return nil, fmt.Errorf("invalid entry type: %s", req.Type)
	}
	if req.EndsAt != nil {
		if err := util.ValidateTimeRange(req.StartsAt, *req.EndsAt); err != nil {
			return nil, err
		}
	}
	if req.RepeatRule != "" {
		if err := ValidateRule(req.RepeatRule); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, title, starts_at, ends_at, type, calendar_id,
		                     owner_id, owner_name, description, location,
		                     linked_task_id, completed, repeat_rule, repeat_until)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, id, util.SanitizeString(req.Title), util.SQLiteTimestamp(req.StartsAt),
		nullTimestamp(req.EndsAt), req.Type, req.CalendarID,
		req.OwnerID, req.OwnerName, req.Description, req.Location,
		nullString(req.LinkedTaskID), req.RepeatRule, nullTimestamp(req.RepeatUntil))

	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves an entry by its ID. Returns nil without error when
// no such entry exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*database.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, starts_at, ends_at, type, calendar_id,
		       owner_id, owner_name, description, location,
		       linked_task_id, completed, repeat_rule, repeat_until, created_at
		FROM entries
		WHERE id = ?
	`, id)

	return scanEntry(row)
}

// ListForOwners retrieves entries owned by any of the given users that
// can produce an occurrence in the half-open window [start, end): plain
// entries starting inside it, plus recurring entries whose repetition
// has not ended before it. Callers expand recurrences afterwards.
func (r *Repository) ListForOwners(ctx context.Context, ownerIDs []string, start, end time.Time) ([]database.Entry, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	placeholders := "?" + strings.Repeat(",?", len(ownerIDs)-1)
	args := make([]any, 0, len(ownerIDs)+4)
	for _, id := range ownerIDs {
		args = append(args, id)
	}
	args = append(args,
		util.SQLiteTimestamp(start), util.SQLiteTimestamp(end),
		util.SQLiteTimestamp(end), util.SQLiteTimestamp(start))

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, starts_at, ends_at, type, calendar_id,
		       owner_id, owner_name, description, location,
		       linked_task_id, completed, repeat_rule, repeat_until, created_at
		FROM entries
		WHERE owner_id IN (`+placeholders+`)
		AND (
			(repeat_rule = '' AND starts_at >= ? AND starts_at < ?)
			OR
			(repeat_rule != '' AND starts_at < ?
			 AND (repeat_until IS NULL OR repeat_until >= ?))
		)
		ORDER BY starts_at ASC, id ASC
	`, args...)

	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListAllForOwner retrieves every entry a user owns, for feeds and
// exports.
func (r *Repository) ListAllForOwner(ctx context.Context, ownerID string) ([]database.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, starts_at, ends_at, type, calendar_id,
		       owner_id, owner_name, description, location,
		       linked_task_id, completed, repeat_rule, repeat_until, created_at
		FROM entries
		WHERE owner_id = ?
		ORDER BY starts_at ASC, id ASC
	`, ownerID)

	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// UpdateEntry contains the mutable entry fields.
type UpdateEntry struct {
	Title       string
	StartsAt    time.Time
	EndsAt      *time.Time
	Type        string
	CalendarID  string
	Description string
	Location    string
	RepeatRule  string
	RepeatUntil *time.Time
}

// Update modifies an entry. Only the owner may update; ownership is
// enforced in the WHERE clause.
func (r *Repository) Update(ctx context.Context, id, ownerID string, req *UpdateEntry) (*database.Entry, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("entry title is required")
	}
	if !validType(req.Type) {
		return nil, fmt.Errorf("invalid entry type: %s", req.Type)
	}
	if req.EndsAt != nil {
		if err := util.ValidateTimeRange(req.StartsAt, *req.EndsAt); err != nil {
			return nil, err
		}
	}
	if req.RepeatRule != "" {
		if err := ValidateRule(req.RepeatRule); err != nil {
			return nil, err
		}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET title = ?, starts_at = ?, ends_at = ?, type = ?, calendar_id = ?,
		    description = ?, location = ?, repeat_rule = ?, repeat_until = ?
		WHERE id = ? AND owner_id = ?
	`, util.SanitizeString(req.Title), util.SQLiteTimestamp(req.StartsAt),
		nullTimestamp(req.EndsAt), req.Type, req.CalendarID,
		req.Description, req.Location, req.RepeatRule, nullTimestamp(req.RepeatUntil),
		id, ownerID)

	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("entry not found or not owned by this user")
	}

	return r.GetByID(ctx, id)
}

// SetCompleted toggles the completion flag on a task-like entry.
func (r *Repository) SetCompleted(ctx context.Context, id, ownerID string, completed bool) (*database.Entry, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET completed = ?
		WHERE id = ? AND owner_id = ? AND type IN (?, ?)
	`, completed, id, ownerID, database.EntryTask, database.EntryFollowUp)

	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("entry not found, not owned by this user, or not completable")
	}

	return r.GetByID(ctx, id)
}

// Delete removes an entry. Only the owner may delete.
func (r *Repository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM entries WHERE id = ? AND owner_id = ?
	`, id, ownerID)

	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("entry not found or not owned by this user")
	}

	return nil
}

// PurgeCompletedTasks deletes completed one-shot tasks that started
// more than the given number of days ago. Returns the number of rows
// removed.
func (r *Repository) PurgeCompletedTasks(ctx context.Context, olderThanDays int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM entries
		WHERE type = ? AND completed = 1 AND repeat_rule = ''
		AND starts_at < datetime('now', ?)
	`, database.EntryTask, fmt.Sprintf("-%d days", olderThanDays))

	if err != nil {
		return 0, fmt.Errorf("failed to purge completed tasks: %w", err)
	}

	n, _ := result.RowsAffected()
	return n, nil
}

// Helper functions

func nullTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return util.SQLiteTimestamp(*t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanEntry(row *sql.Row) (*database.Entry, error) {
	var (
		e            database.Entry
		startsAt     string
		endsAt       sql.NullString
		linkedTaskID sql.NullString
		repeatUntil  sql.NullString
		createdAt    string
	)

	err := row.Scan(
		&e.ID, &e.Title, &startsAt, &endsAt, &e.Type, &e.CalendarID,
		&e.OwnerID, &e.OwnerName, &e.Description, &e.Location,
		&linkedTaskID, &e.Completed, &e.RepeatRule, &repeatUntil, &createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	fillEntryTimes(&e, startsAt, endsAt, linkedTaskID, repeatUntil, createdAt)
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]database.Entry, error) {
	var entries []database.Entry

	for rows.Next() {
		var (
			e            database.Entry
			startsAt     string
			endsAt       sql.NullString
			linkedTaskID sql.NullString
			repeatUntil  sql.NullString
			createdAt    string
		)

		err := rows.Scan(
			&e.ID, &e.Title, &startsAt, &endsAt, &e.Type, &e.CalendarID,
			&e.OwnerID, &e.OwnerName, &e.Description, &e.Location,
			&linkedTaskID, &e.Completed, &e.RepeatRule, &repeatUntil, &createdAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		fillEntryTimes(&e, startsAt, endsAt, linkedTaskID, repeatUntil, createdAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func fillEntryTimes(e *database.Entry, startsAt string, endsAt, linkedTaskID, repeatUntil sql.NullString, createdAt string) {
	e.StartsAt, _ = util.ParseSQLiteTimestamp(startsAt)
	if endsAt.Valid {
		t, _ := util.ParseSQLiteTimestamp(endsAt.String)
		e.EndsAt = sql.NullTime{Time: t, Valid: true}
	}
	e.LinkedTaskID = linkedTaskID
	if repeatUntil.Valid {
		t, _ := util.ParseSQLiteTimestamp(repeatUntil.String)
		e.RepeatUntil = sql.NullTime{Time: t, Valid: true}
	}
	e.CreatedAt, _ = util.ParseSQLiteTimestamp(createdAt)
}
