// Package util provides input validation utilities.
package util

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Validation errors
var (
	ErrEmptyField     = fmt.Errorf("field cannot be empty")
	ErrInvalidEmail   = fmt.Errorf("invalid email address")
	ErrInvalidClock   = fmt.Errorf("invalid time of day (expected HH:MM)")
	ErrInvalidColor   = fmt.Errorf("invalid color (expected #RRGGBB)")
	ErrEndBeforeStart = fmt.Errorf("end time must be after start time")
	ErrInvalidDate    = fmt.Errorf("invalid date (expected YYYY-MM-DD)")
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateEmail checks if a string is a valid email address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyField
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateHexColor checks a display color like "#4285f4".
func ValidateHexColor(color string) error {
	if color == "" {
		return nil // Optional, repositories apply a default
	}
	if !hexColorRegex.MatchString(color) {
		return ErrInvalidColor
	}
	return nil
}

// ParseClock parses an "HH:MM" 24-hour wall-clock time into minutes
// after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateISODate checks a calendar date like "2026-03-14".
func ValidateISODate(s string) error {
	if _, err := time.Parse(ISODate, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}

// ValidateTimeRange validates start and end instants.
func ValidateTimeRange(start, end time.Time) error {
	if !end.After(start) {
		return ErrEndBeforeStart
	}
	return nil
}

// SanitizeString removes leading/trailing whitespace and normalizes internal whitespace.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// TruncateString truncates a string to max length, adding ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
