// Package shares provides calendar share storage and the invite workflow.
package shares

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// Repository handles share storage and retrieval.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new share repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// CreateShare contains the data needed to invite a user to a calendar.
type CreateShare struct {
	CalendarID      string
	CalendarName    string
	OwnerID         string
	OwnerName       string
	SharedWithID    string
	SharedWithName  string
	SharedWithEmail string
	Permission      string
}

// Create stores a new share in the pending state. A calendar can have
// at most one active (pending or accepted) share per recipient; only
// after a decline may the owner invite the same user again.
func (r *Repository) Create(ctx context.Context, req *CreateShare) (*database.Share, error) {
	switch req.Permission {
	case database.PermissionView, database.PermissionEdit, database.PermissionFull:
	default:
		return nil, fmt.Errorf("invalid permission: %s (must be view, edit, or full)", req.Permission)
	}
	if req.SharedWithID == req.OwnerID {
		return nil, fmt.Errorf("cannot share a calendar with its owner")
	}

	var active int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM shares
		WHERE calendar_id = ? AND shared_with_id = ? AND status != ?
	`, req.CalendarID, req.SharedWithID, database.ShareDeclined).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing shares: %w", err)
	}
	if active > 0 {
		return nil, ErrDuplicate
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shares (id, calendar_id, calendar_name, owner_id, owner_name,
		                    shared_with_id, shared_with_name, shared_with_email,
		                    permission, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, req.CalendarID, req.CalendarName, req.OwnerID, req.OwnerName,
		req.SharedWithID, req.SharedWithName, req.SharedWithEmail,
		req.Permission, database.SharePending)

	if err != nil {
		return nil, fmt.Errorf("failed to insert share: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a share by its ID. Returns nil without error when
// no such share exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*database.Share, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, calendar_id, calendar_name, owner_id, owner_name,
		       shared_with_id, shared_with_name, shared_with_email,
		       permission, status, created_at, responded_at
		FROM shares
		WHERE id = ?
	`, id)

	return scanShare(row)
}

// AcceptedForUser retrieves the accepted shares granted to a user, in
// grant order.
func (r *Repository) AcceptedForUser(ctx context.Context, userID string) ([]database.Share, error) {
	return r.forUser(ctx, userID, database.ShareAccepted)
}

// PendingForUser retrieves the invites a user has not yet answered.
func (r *Repository) PendingForUser(ctx context.Context, userID string) ([]database.Share, error) {
	return r.forUser(ctx, userID, database.SharePending)
}

func (r *Repository) forUser(ctx context.Context, userID, status string) ([]database.Share, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, calendar_id, calendar_name, owner_id, owner_name,
		       shared_with_id, shared_with_name, shared_with_email,
		       permission, status, created_at, responded_at
		FROM shares
		WHERE shared_with_id = ? AND status = ?
		ORDER BY created_at ASC, id ASC
	`, userID, status)

	if err != nil {
		return nil, fmt.Errorf("failed to query shares: %w", err)
	}
	defer rows.Close()

	return scanShares(rows)
}

// ListForCalendar retrieves every share of a calendar regardless of status.
func (r *Repository) ListForCalendar(ctx context.Context, calendarID string) ([]database.Share, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, calendar_id, calendar_name, owner_id, owner_name,
		       shared_with_id, shared_with_name, shared_with_email,
		       permission, status, created_at, responded_at
		FROM shares
		WHERE calendar_id = ?
		ORDER BY created_at ASC, id ASC
	`, calendarID)

	if err != nil {
		return nil, fmt.Errorf("failed to query calendar shares: %w", err)
	}
	defer rows.Close()

	return scanShares(rows)
}

// DeleteForCalendar removes all shares of a calendar. Used when the
// calendar itself is deleted.
func (r *Repository) DeleteForCalendar(ctx context.Context, calendarID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE calendar_id = ?`, calendarID)
	if err != nil {
		return fmt.Errorf("failed to delete calendar shares: %w", err)
	}
	return nil
}

// PurgeDeclined deletes declined shares answered more than the given
// number of days ago. Returns the number of rows removed.
func (r *Repository) PurgeDeclined(ctx context.Context, olderThanDays int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM shares
		WHERE status = ?
		AND responded_at < datetime('now', ?)
	`, database.ShareDeclined, fmt.Sprintf("-%d days", olderThanDays))

	if err != nil {
		return 0, fmt.Errorf("failed to purge declined shares: %w", err)
	}

	n, _ := result.RowsAffected()
	return n, nil
}

// Helper functions

func scanShare(row *sql.Row) (*database.Share, error) {
	var (
		s           database.Share
		createdAt   string
		respondedAt sql.NullString
	)

	err := row.Scan(
		&s.ID, &s.CalendarID, &s.CalendarName, &s.OwnerID, &s.OwnerName,
		&s.SharedWithID, &s.SharedWithName, &s.SharedWithEmail,
		&s.Permission, &s.Status, &createdAt, &respondedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan share: %w", err)
	}

	s.CreatedAt, _ = util.ParseSQLiteTimestamp(createdAt)
	if respondedAt.Valid {
		t, _ := util.ParseSQLiteTimestamp(respondedAt.String)
		s.RespondedAt = sql.NullTime{Time: t, Valid: true}
	}

	return &s, nil
}

func scanShares(rows *sql.Rows) ([]database.Share, error) {
	var shares []database.Share

	for rows.Next() {
		var (
			s           database.Share
			createdAt   string
			respondedAt sql.NullString
		)

		err := rows.Scan(
			&s.ID, &s.CalendarID, &s.CalendarName, &s.OwnerID, &s.OwnerName,
			&s.SharedWithID, &s.SharedWithName, &s.SharedWithEmail,
			&s.Permission, &s.Status, &createdAt, &respondedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}

		s.CreatedAt, _ = util.ParseSQLiteTimestamp(createdAt)
		if respondedAt.Valid {
			t, _ := util.ParseSQLiteTimestamp(respondedAt.String)
			s.RespondedAt = sql.NullTime{Time: t, Valid: true}
		}

		shares = append(shares, s)
	}

	return shares, rows.Err()
}
