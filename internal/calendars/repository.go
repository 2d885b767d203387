// Package calendars provides calendar storage and management.
package calendars

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// DefaultColor is applied when a calendar is created without one.
const DefaultColor = "#4285f4"

// Repository handles calendar storage and retrieval.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new calendar repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// CreateCalendar contains the data needed to create a calendar.
type CreateCalendar struct {
	Name      string
	Color     string
	OwnerID   string
	OwnerName string
}

// Create stores a new calendar. The first persisted calendar a user
// creates becomes their default, replacing the virtual one.
func (r *Repository) Create(ctx context.Context, req *CreateCalendar) (*database.Calendar, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("calendar name is required")
	}
	color := req.Color
	if color == "" {
		color = DefaultColor
	}
	if err := util.ValidateHexColor(color); err != nil {
		return nil, err
	}

	var owned int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM calendars WHERE owner_id = ?
	`, req.OwnerID).Scan(&owned); err != nil {
		return nil, fmt.Errorf("failed to count calendars: %w", err)
	}

	id := uuid.NewString()
	isDefault := 0
	if owned == 0 {
		isDefault = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO calendars (id, name, color, owner_id, owner_name, is_default, is_visible)
		VALUES (?, ?, ?, ?, ?, ?, 1)
	`, id, req.Name, color, req.OwnerID, req.OwnerName, isDefault)

	if err != nil {
		return nil, fmt.Errorf("failed to insert calendar: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a calendar by its ID. Returns nil without error
// when no such calendar exists.
func (r *Repository) GetByID(ctx context.Context, id string) (*database.Calendar, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, color, owner_id, owner_name, is_default, is_visible, created_at
		FROM calendars
		WHERE id = ?
	`, id)

	return scanCalendar(row)
}

// ListForOwner retrieves a user's calendars in creation order.
func (r *Repository) ListForOwner(ctx context.Context, ownerID string) ([]database.Calendar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color, owner_id, owner_name, is_default, is_visible, created_at
		FROM calendars
		WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC
	`, ownerID)

	if err != nil {
		return nil, fmt.Errorf("failed to query calendars: %w", err)
	}
	defer rows.Close()

	return scanCalendars(rows)
}

// GetByIDs retrieves the calendars with the given IDs, in creation order.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]database.Calendar, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, color, owner_id, owner_name, is_default, is_visible, created_at
		FROM calendars
		WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)
		ORDER BY created_at ASC, id ASC
	`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendars: %w", err)
	}
	defer rows.Close()

	return scanCalendars(rows)
}

// UpdateCalendar contains the mutable calendar fields.
type UpdateCalendar struct {
	Name      string
	Color     string
	IsVisible bool
}

// Update modifies a calendar's name, color and visibility. Only the
// owner may update; ownership is enforced in the WHERE clause.
func (r *Repository) Update(ctx context.Context, id, ownerID string, req *UpdateCalendar) (*database.Calendar, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("calendar name is required")
	}
	if err := util.ValidateHexColor(req.Color); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE calendars
		SET name = ?, color = ?, is_visible = ?
		WHERE id = ? AND owner_id = ?
	`, req.Name, req.Color, req.IsVisible, id, ownerID)

	if err != nil {
		return nil, fmt.Errorf("failed to update calendar: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("calendar not found or not owned by this user")
	}

	return r.GetByID(ctx, id)
}

// Delete removes a calendar along with its shares, moving its entries
// to the owner's virtual default calendar so nothing is orphaned. The
// three steps run in one transaction.
func (r *Repository) Delete(ctx context.Context, id, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT owner_id FROM calendars WHERE id = ?`, id).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != ownerID) {
		return fmt.Errorf("calendar not found or not owned by this user")
	}
	if err != nil {
		return fmt.Errorf("failed to load calendar: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE entries SET calendar_id = '' WHERE calendar_id = ?
	`, id); err != nil {
		return fmt.Errorf("failed to reassign entries: %w", err)
	}

	// Shares go first so the foreign key on calendar_id stays satisfied.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM shares WHERE calendar_id = ?
	`, id); err != nil {
		return fmt.Errorf("failed to delete calendar shares: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM calendars WHERE id = ?
	`, id); err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}

	return tx.Commit()
}

// Helper functions

func scanCalendar(row *sql.Row) (*database.Calendar, error) {
	var (
		c         database.Calendar
		createdAt string
	)

	err := row.Scan(
		&c.ID, &c.Name, &c.Color, &c.OwnerID, &c.OwnerName,
		&c.IsDefault, &c.IsVisible, &createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan calendar: %w", err)
	}

	c.CreatedAt, _ = util.ParseSQLiteTimestamp(createdAt)
	return &c, nil
}

func scanCalendars(rows *sql.Rows) ([]database.Calendar, error) {
	var calendars []database.Calendar

	for rows.Next() {
		var (
			c         database.Calendar
			createdAt string
		)

		err := rows.Scan(
			&c.ID, &c.Name, &c.Color, &c.OwnerID, &c.OwnerName,
			&c.IsDefault, &c.IsVisible, &createdAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar: %w", err)
		}

		c.CreatedAt, _ = util.ParseSQLiteTimestamp(createdAt)
		calendars = append(calendars, c)
	}

	return calendars, rows.Err()
}
