package api

import (
	"time"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// JSON shapes for API responses. Database models carry sql.Null types
// that serialize poorly, so every response goes through these.

type calendarJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name,omitempty"`
	IsDefault bool      `json:"is_default"`
	IsVisible bool      `json:"is_visible"`
	Virtual   bool      `json:"virtual,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func toCalendarJSON(c *database.Calendar) calendarJSON {
	return calendarJSON{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		OwnerID:   c.OwnerID,
		OwnerName: c.OwnerName,
		IsDefault: c.IsDefault,
		IsVisible: c.IsVisible,
		CreatedAt: c.CreatedAt,
	}
}

type entryJSON struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	StartsAt        time.Time  `json:"starts_at"`
	StartsAtDisplay string     `json:"starts_at_display"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	EndsAtDisplay   string     `json:"ends_at_display,omitempty"`
	Type            string     `json:"type"`
	CalendarID      string     `json:"calendar_id"`
	OwnerID         string     `json:"owner_id"`
	OwnerName       string     `json:"owner_name,omitempty"`
	Description     string     `json:"description,omitempty"`
	Location        string     `json:"location,omitempty"`
	LinkedTaskID    string     `json:"linked_task_id,omitempty"`
	Completed       bool       `json:"completed"`
	RepeatRule      string     `json:"repeat_rule,omitempty"`
	RepeatUntil     *time.Time `json:"repeat_until,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toEntryJSON(e *database.Entry) entryJSON {
	format := util.GetDefaultFormatter()
	out := entryJSON{
		ID:              e.ID,
		Title:           e.Title,
		StartsAt:        e.StartsAt,
		StartsAtDisplay: format.FormatDateTime(e.StartsAt),
		Type:            e.Type,
		CalendarID:      e.EffectiveCalendarID(),
		OwnerID:         e.OwnerID,
		OwnerName:       e.OwnerName,
		Description:     e.Description,
		Location:        e.Location,
		Completed:       e.Completed,
		RepeatRule:      e.RepeatRule,
		CreatedAt:       e.CreatedAt,
	}
	if e.EndsAt.Valid {
		t := e.EndsAt.Time
		out.EndsAt = &t
		out.EndsAtDisplay = format.FormatTime(t)
	}
	if e.LinkedTaskID.Valid {
		out.LinkedTaskID = e.LinkedTaskID.String
	}
	if e.RepeatUntil.Valid {
		t := e.RepeatUntil.Time
		out.RepeatUntil = &t
	}
	return out
}

func toEntriesJSON(list []database.Entry) []entryJSON {
	out := make([]entryJSON, 0, len(list))
	for i := range list {
		out = append(out, toEntryJSON(&list[i]))
	}
	return out
}

type shareJSON struct {
	ID              string     `json:"id"`
	CalendarID      string     `json:"calendar_id"`
	CalendarName    string     `json:"calendar_name"`
	OwnerID         string     `json:"owner_id"`
	OwnerName       string     `json:"owner_name,omitempty"`
	SharedWithID    string     `json:"shared_with_id"`
	SharedWithName  string     `json:"shared_with_name,omitempty"`
	SharedWithEmail string     `json:"shared_with_email,omitempty"`
	Permission      string     `json:"permission"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
}

func toShareJSON(s *database.Share) shareJSON {
	out := shareJSON{
		ID:              s.ID,
		CalendarID:      s.CalendarID,
		CalendarName:    s.CalendarName,
		OwnerID:         s.OwnerID,
		OwnerName:       s.OwnerName,
		SharedWithID:    s.SharedWithID,
		SharedWithName:  s.SharedWithName,
		SharedWithEmail: s.SharedWithEmail,
		Permission:      s.Permission,
		Status:          s.Status,
		CreatedAt:       s.CreatedAt,
	}
	if s.RespondedAt.Valid {
		t := s.RespondedAt.Time
		out.RespondedAt = &t
	}
	return out
}

func toSharesJSON(list []database.Share) []shareJSON {
	out := make([]shareJSON, 0, len(list))
	for i := range list {
		out = append(out, toShareJSON(&list[i]))
	}
	return out
}

type scheduleJSON struct {
	UserID                string                  `json:"user_id"`
	UserName              string                  `json:"user_name,omitempty"`
	Timezone              string                  `json:"timezone"`
	WorkingHours          []database.WorkingHours `json:"working_hours"`
	BufferBetweenMeetings int                     `json:"buffer_between_meetings"`
	MinimumNotice         int                     `json:"minimum_notice"`
	BlockedDates          []string                `json:"blocked_dates"`
	UpdatedAt             time.Time               `json:"updated_at"`
}

func toScheduleJSON(s *database.UserSchedule) scheduleJSON {
	blocked := s.BlockedDates
	if blocked == nil {
		blocked = []string{}
	}
	return scheduleJSON{
		UserID:                s.UserID,
		UserName:              s.UserName,
		Timezone:              s.Timezone,
		WorkingHours:          s.WorkingHours,
		BufferBetweenMeetings: s.BufferBetweenMeetings,
		MinimumNotice:         s.MinimumNotice,
		BlockedDates:          blocked,
		UpdatedAt:             s.UpdatedAt,
	}
}

type apiKeyJSON struct {
	ID         string     `json:"id"`
	KeyPrefix  string     `json:"key_prefix"`
	Name       string     `json:"name"`
	UserID     string     `json:"user_id"`
	UserName   string     `json:"user_name,omitempty"`
	Tier       string     `json:"tier"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

func toAPIKeyJSON(k *database.APIKey) apiKeyJSON {
	out := apiKeyJSON{
		ID:        k.ID,
		KeyPrefix: k.KeyPrefix,
		Name:      k.Name,
		UserID:    k.UserID,
		UserName:  k.UserName,
		Tier:      k.Tier,
		CreatedAt: k.CreatedAt,
	}
	if k.LastUsedAt.Valid {
		t := k.LastUsedAt.Time
		out.LastUsedAt = &t
	}
	if k.RevokedAt.Valid {
		t := k.RevokedAt.Time
		out.RevokedAt = &t
	}
	return out
}
