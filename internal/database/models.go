// Package database provides shared model structs used across the application.
package database

import (
	"database/sql"
	"time"
)

// DefaultCalendarID is the sentinel id of the per-user virtual default
// calendar. It is never stored as a Calendar row; see internal/access.
const DefaultCalendarID = "default"

// Calendar is a named, colored container for entries.
type Calendar struct {
	ID        string
	Name      string
	Color     string
	OwnerID   string
	OwnerName string
	IsDefault bool
	IsVisible bool
	CreatedAt time.Time
}

// Entry is a schedulable calendar item.
type Entry struct {
	ID           string
	Title        string
	StartsAt     time.Time
	EndsAt       sql.NullTime
	Type         string
	CalendarID   string // empty means the owner's default calendar
	OwnerID      string
	OwnerName    string
	Description  string
	Location     string
	LinkedTaskID sql.NullString
	Completed    bool
	RepeatRule   string // RRULE, empty for single-shot entries
	RepeatUntil  sql.NullTime
	CreatedAt    time.Time
}

// EffectiveCalendarID returns the calendar the entry belongs to,
// falling back to the virtual default when none is set.
func (e *Entry) EffectiveCalendarID() string {
	if e.CalendarID == "" {
		return DefaultCalendarID
	}
	return e.CalendarID
}

// Entry type constants
const (
	EntryMeeting  = "meeting"
	EntryTask     = "task"
	EntryFollowUp = "follow_up"
	EntryReminder = "reminder"
	EntryBooking  = "booking"
)

// Share is a sharing grant from a calendar's owner to another user.
type Share struct {
	ID              string
	CalendarID      string
	CalendarName    string
	OwnerID         string
	OwnerName       string
	SharedWithID    string
	SharedWithName  string
	SharedWithEmail string
	Permission      string
	Status          string
	CreatedAt       time.Time
	RespondedAt     sql.NullTime
}

// Share status constants
const (
	SharePending  = "pending"
	ShareAccepted = "accepted"
	ShareDeclined = "declined"
)

// Share permission constants
const (
	PermissionView = "view"
	PermissionEdit = "edit"
	PermissionFull = "full"
)

// WorkingHours describes availability for one weekday (0=Sunday..6=Saturday).
type WorkingHours struct {
	Day          int         `json:"day"`
	IsWorkingDay bool        `json:"is_working_day"`
	StartTime    string      `json:"start_time"` // "HH:MM" local to the schedule timezone
	EndTime      string      `json:"end_time"`
	Breaks       []BreakSlot `json:"breaks,omitempty"`
}

// BreakSlot is a sub-interval within a working day that is not bookable.
type BreakSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// UserSchedule defines a user's bookable availability template.
type UserSchedule struct {
	ID                    string
	UserID                string
	UserName              string
	Timezone              string
	WorkingHours          []WorkingHours
	BufferBetweenMeetings int      // minutes
	MinimumNotice         int      // hours
	BlockedDates          []string // ISO calendar dates, "2006-01-02"
	UpdatedAt             time.Time
}

// APIKey represents an API key record bound to a CRM user identity.
type APIKey struct {
	ID         string
	KeyHash    string
	KeyPrefix  string
	Name       string
	UserID     string
	UserName   string
	Tier       string
	CreatedAt  time.Time
	LastUsedAt sql.NullTime
	RevokedAt  sql.NullTime
}

// Tier constants
const (
	TierRead  = "read"
	TierWrite = "write"
	TierAdmin = "admin"
)

// AuditLogEntry represents an audit log record.
type AuditLogEntry struct {
	ID        int64
	Timestamp time.Time
	EventType string
	TargetID  sql.NullString
	APIKeyID  sql.NullString
	Actor     sql.NullString
	Details   []byte
	IPAddress sql.NullString
}

// Audit event types
const (
	AuditCalendarCreated = "calendar_created"
	AuditCalendarUpdated = "calendar_updated"
	AuditCalendarDeleted = "calendar_deleted"
	AuditEntryCreated    = "entry_created"
	AuditEntryUpdated    = "entry_updated"
	AuditEntryDeleted    = "entry_deleted"
	AuditShareCreated    = "share_created"
	AuditShareAccepted   = "share_accepted"
	AuditShareDeclined   = "share_declined"
	AuditScheduleSaved   = "schedule_saved"
	AuditPrefsSaved      = "prefs_saved"
	AuditAPIKeyCreated   = "api_key_created"
	AuditAPIKeyRevoked   = "api_key_revoked"
)
