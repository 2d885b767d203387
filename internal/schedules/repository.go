// Package schedules provides availability template storage.
package schedules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// Defaults applied when a user has no stored template yet.
const (
	DefaultTimezone      = "UTC"
	DefaultBufferMinutes = 15
	DefaultNoticeHours   = 24
	DefaultStartTime     = "09:00"
	DefaultEndTime       = "17:00"
)

// Repository handles schedule storage and retrieval.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new schedule repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// DefaultWorkingHours returns the out-of-the-box template: Monday to
// Friday, 09:00 to 17:00, no breaks.
func DefaultWorkingHours() []database.WorkingHours {
	hours := make([]database.WorkingHours, 7)
	for day := 0; day < 7; day++ {
		hours[day] = database.WorkingHours{
			Day:          day,
			IsWorkingDay: day >= 1 && day <= 5,
			StartTime:    DefaultStartTime,
			EndTime:      DefaultEndTime,
		}
	}
	return hours
}

// GetOrCreate retrieves a user's schedule, materializing the default
// template on first access.
func (r *Repository) GetOrCreate(ctx context.Context, userID, userName string) (*database.UserSchedule, error) {
	sched, err := r.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sched != nil {
		return sched, nil
	}

	hours, err := json.Marshal(DefaultWorkingHours())
	if err != nil {
		return nil, fmt.Errorf("failed to encode working hours: %w", err)
	}

	// A concurrent first access may have inserted already; the unique
	// user_id constraint makes this a no-op in that case.
	_, err = r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_schedules
			(id, user_id, user_name, timezone, working_hours, buffer_minutes, minimum_notice_hours, blocked_dates)
		VALUES (?, ?, ?, ?, ?, ?, ?, '[]')
	`, uuid.NewString(), userID, userName, DefaultTimezone, string(hours),
		DefaultBufferMinutes, DefaultNoticeHours)

	if err != nil {
		return nil, fmt.Errorf("failed to insert schedule: %w", err)
	}

	return r.get(ctx, userID)
}

// Save replaces a user's schedule wholesale after validating it, so a
// half-updated template can never be observed.
func (r *Repository) Save(ctx context.Context, sched *database.UserSchedule) (*database.UserSchedule, error) {
	if err := Validate(sched); err != nil {
		return nil, err
	}

	hours, err := json.Marshal(sched.WorkingHours)
	if err != nil {
		return nil, fmt.Errorf("failed to encode working hours: %w", err)
	}
	blocked, err := json.Marshal(sched.BlockedDates)
	if err != nil {
		return nil, fmt.Errorf("failed to encode blocked dates: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE user_schedules
		SET timezone = ?, working_hours = ?, buffer_minutes = ?,
		    minimum_notice_hours = ?, blocked_dates = ?, updated_at = datetime('now')
		WHERE user_id = ?
	`, sched.Timezone, string(hours), sched.BufferBetweenMeetings,
		sched.MinimumNotice, string(blocked), sched.UserID)

	if err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("schedule not found for user %s", sched.UserID)
	}

	return r.get(ctx, sched.UserID)
}

// Validate checks a schedule template for structural soundness: a known
// timezone, exactly one entry per weekday, parseable clock values with
// end after start, breaks inside the working window, and well-formed
// blocked dates.
func Validate(sched *database.UserSchedule) error {
	if _, err := util.LoadLocation(sched.Timezone); err != nil {
		return err
	}
	if sched.BufferBetweenMeetings < 0 {
		return fmt.Errorf("buffer between meetings cannot be negative")
	}
	if sched.MinimumNotice < 0 {
		return fmt.Errorf("minimum notice cannot be negative")
	}

	if len(sched.WorkingHours) != 7 {
		return fmt.Errorf("working hours must cover all 7 weekdays, got %d", len(sched.WorkingHours))
	}
	seen := make(map[int]bool, 7)
	for _, wh := range sched.WorkingHours {
		if wh.Day < 0 || wh.Day > 6 {
			return fmt.Errorf("invalid weekday %d", wh.Day)
		}
		if seen[wh.Day] {
			return fmt.Errorf("duplicate working-hours entry for weekday %d", wh.Day)
		}
		seen[wh.Day] = true

		if !wh.IsWorkingDay {
			continue
		}
		start, err := util.ParseClock(wh.StartTime)
		if err != nil {
			return fmt.Errorf("weekday %d: %w", wh.Day, err)
		}
		end, err := util.ParseClock(wh.EndTime)
		if err != nil {
			return fmt.Errorf("weekday %d: %w", wh.Day, err)
		}
		if end <= start {
			return fmt.Errorf("weekday %d: working hours end must be after start", wh.Day)
		}
		for _, br := range wh.Breaks {
			bs, err := util.ParseClock(br.Start)
			if err != nil {
				return fmt.Errorf("weekday %d break: %w", wh.Day, err)
			}
			be, err := util.ParseClock(br.End)
			if err != nil {
				return fmt.Errorf("weekday %d break: %w", wh.Day, err)
			}
			if be <= bs {
				return fmt.Errorf("weekday %d: break end must be after start", wh.Day)
			}
			if bs < start || be > end {
				return fmt.Errorf("weekday %d: break must fall inside working hours", wh.Day)
			}
		}
	}

	for _, d := range sched.BlockedDates {
		if err := util.ValidateISODate(d); err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) get(ctx context.Context, userID string) (*database.UserSchedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, user_name, timezone, working_hours,
		       buffer_minutes, minimum_notice_hours, blocked_dates, updated_at
		FROM user_schedules
		WHERE user_id = ?
	`, userID)

	var (
		s         database.UserSchedule
		hours     string
		blocked   string
		updatedAt string
	)

	err := row.Scan(&s.ID, &s.UserID, &s.UserName, &s.Timezone, &hours,
		&s.BufferBetweenMeetings, &s.MinimumNotice, &blocked, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}

	if err := json.Unmarshal([]byte(hours), &s.WorkingHours); err != nil {
		return nil, fmt.Errorf("corrupt working hours for user %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(blocked), &s.BlockedDates); err != nil {
		return nil, fmt.Errorf("corrupt blocked dates for user %s: %w", userID, err)
	}
	s.UpdatedAt, _ = util.ParseSQLiteTimestamp(updatedAt)

	return &s, nil
}
