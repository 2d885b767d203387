// Package util provides utility functions for the application.
package util

import (
	"fmt"
	"time"
	// Embed timezone database for containers without tzdata
	_ "time/tzdata"
)

// ISODate is the layout for calendar dates without a time component.
const ISODate = "2006-01-02"

// DisplayFormatter handles timezone-aware display formatting.
type DisplayFormatter struct {
	Location       *time.Location
	DateFormat     string
	TimeFormat     string
	DatetimeFormat string
}

// NewDisplayFormatter creates a formatter for the specified timezone.
func NewDisplayFormatter(timezone string, dateFormat, timeFormat, datetimeFormat string) (*DisplayFormatter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	if dateFormat == "" {
		dateFormat = "Jan 2, 2006"
	}
	if timeFormat == "" {
		timeFormat = "3:04 PM"
	}
	if datetimeFormat == "" {
		datetimeFormat = "Jan 2, 2006 at 3:04 PM"
	}

	return &DisplayFormatter{
		Location:       loc,
		DateFormat:     dateFormat,
		TimeFormat:     timeFormat,
		DatetimeFormat: datetimeFormat,
	}, nil
}

// FormatDate formats a time as date only in local timezone.
func (f *DisplayFormatter) FormatDate(t time.Time) string {
	return t.In(f.Location).Format(f.DateFormat)
}

// FormatTime formats a time as time only in local timezone.
func (f *DisplayFormatter) FormatTime(t time.Time) string {
	return t.In(f.Location).Format(f.TimeFormat)
}

// FormatDateTime formats a time as full datetime in local timezone.
func (f *DisplayFormatter) FormatDateTime(t time.Time) string {
	return t.In(f.Location).Format(f.DatetimeFormat)
}

var defaultFormatter = &DisplayFormatter{
	Location:       time.UTC,
	DateFormat:     "Jan 2, 2006",
	TimeFormat:     "3:04 PM",
	DatetimeFormat: "Jan 2, 2006 at 3:04 PM",
}

// SetDefaultFormatter installs the formatter used for display strings
// in API responses.
func SetDefaultFormatter(f *DisplayFormatter) {
	if f != nil {
		defaultFormatter = f
	}
}

// GetDefaultFormatter returns the installed display formatter. Before
// SetDefaultFormatter runs it formats in UTC with the default layouts.
func GetDefaultFormatter() *DisplayFormatter {
	return defaultFormatter
}

// LoadLocation resolves an IANA timezone name.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// DateOf truncates an instant to its calendar date in the given location.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ParseRFC3339 parses an RFC3339 timestamp.
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// FormatRFC3339 formats a time as RFC3339.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// SQLiteTimestamp formats a time for SQLite (ISO8601).
func SQLiteTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// ParseSQLiteTimestamp parses a SQLite timestamp.
func ParseSQLiteTimestamp(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", s)
}
