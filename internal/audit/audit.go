// Package audit provides append-only mutation logging.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// Logger handles audit log entries. Writes are best effort: a failed
// audit insert is logged but never fails the mutation it describes.
type Logger struct {
	db *database.DB
}

// NewLogger creates a new audit logger.
func NewLogger(db *database.DB) *Logger {
	return &Logger{db: db}
}

// Log records an audit event.
func (a *Logger) Log(ctx context.Context, eventType, targetID, apiKeyID, actor string, details map[string]interface{}) {
	a.LogWithIP(ctx, eventType, targetID, apiKeyID, actor, "", details)
}

// LogWithIP records an audit event with the caller's IP address.
func (a *Logger) LogWithIP(ctx context.Context, eventType, targetID, apiKeyID, actor, ipAddress string, details map[string]interface{}) {
	var detailsJSON []byte
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, target_id, api_key_id, actor, details, ip_address)
		VALUES (?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, NULLIF(?, ''))
	`, eventType, targetID, apiKeyID, actor, string(detailsJSON), ipAddress)

	if err != nil {
		util.Error("Failed to write audit log", "error", err, "event_type", eventType)
	}
}

// GetRecent retrieves recent audit entries, newest first.
func (a *Logger) GetRecent(ctx context.Context, limit int) ([]database.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, timestamp, event_type, target_id, api_key_id, actor, details, ip_address
		FROM audit_log
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetByTargetID retrieves the audit trail of a single record.
func (a *Logger) GetByTargetID(ctx context.Context, targetID string) ([]database.AuditLogEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, timestamp, event_type, target_id, api_key_id, actor, details, ip_address
		FROM audit_log
		WHERE target_id = ?
		ORDER BY timestamp ASC, id ASC
	`, targetID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteOlderThan removes audit entries older than the specified number
// of days. Returns the number of rows removed.
func (a *Logger) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := a.db.ExecContext(ctx, `
		DELETE FROM audit_log
		WHERE timestamp < datetime('now', ?)
	`, fmt.Sprintf("-%d days", days))

	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]database.AuditLogEntry, error) {
	var entries []database.AuditLogEntry
	for rows.Next() {
		var (
			entry       database.AuditLogEntry
			timestamp   string
			detailsJSON []byte
		)

		if err := rows.Scan(
			&entry.ID, &timestamp, &entry.EventType,
			&entry.TargetID, &entry.APIKeyID, &entry.Actor,
			&detailsJSON, &entry.IPAddress,
		); err != nil {
			return nil, err
		}

		entry.Timestamp, _ = util.ParseSQLiteTimestamp(timestamp)
		if len(detailsJSON) > 0 {
			entry.Details = detailsJSON
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
