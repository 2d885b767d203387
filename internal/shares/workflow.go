package shares

import (
	"context"
	"errors"
	"fmt"

	"github.com/crmsuite/calendard/internal/database"
)

// Workflow errors. Handlers map these to distinct response codes, so
// callers can tell a stale invite from a stolen one.
var (
	// ErrNotFound means no share with the given ID exists.
	ErrNotFound = errors.New("share not found")

	// ErrWrongActor means the responder is not the invited user.
	ErrWrongActor = errors.New("share can only be answered by its recipient")

	// ErrNotPending means the invite was already accepted or declined.
	ErrNotPending = errors.New("share has already been answered")

	// ErrDuplicate means the recipient already has a pending or
	// accepted share of the calendar.
	ErrDuplicate = errors.New("user already has an active share of this calendar")
)

// Respond records the recipient's answer to a pending invite, moving it
// to accepted or declined. Only the invited user may answer, and only
// once: a second answer, or a concurrent one that loses the race, gets
// ErrNotPending. The owner cannot answer their own invite.
func (r *Repository) Respond(ctx context.Context, id, actorID string, accept bool) (*database.Share, error) {
	share, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if share == nil {
		return nil, ErrNotFound
	}
	if share.SharedWithID != actorID {
		return nil, ErrWrongActor
	}
	if share.Status != database.SharePending {
		return nil, ErrNotPending
	}

	newStatus := database.ShareDeclined
	if accept {
		newStatus = database.ShareAccepted
	}

	// Compare-and-set on the pending status so two concurrent answers
	// cannot both win.
	result, err := r.db.ExecContext(ctx, `
		UPDATE shares
		SET status = ?, responded_at = datetime('now')
		WHERE id = ? AND status = ?
	`, newStatus, id, database.SharePending)

	if err != nil {
		return nil, fmt.Errorf("failed to update share status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, ErrNotPending
	}

	return r.GetByID(ctx, id)
}
