package entries

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/crmsuite/calendard/internal/database"
)

// maxOccurrencesPerEntry caps expansion so a runaway rule cannot flood
// a view.
const maxOccurrencesPerEntry = 500

// ValidateRule checks that a repeat rule parses as an RRULE.
func ValidateRule(rule string) error {
	if _, err := rrule.StrToRRule(rule); err != nil {
		return fmt.Errorf("invalid repeat rule %q: %w", rule, err)
	}
	return nil
}

// Expand materializes the occurrences of the given entries inside the
// half-open window [start, end). Plain entries pass through when their
// start falls inside the window; recurring ones are fanned out into
// copies with shifted times, preserving the original duration. Entries
// with unparseable rules are skipped rather than failing the whole
// view, since they were validated on write.
func Expand(list []database.Entry, start, end time.Time) []database.Entry {
	var out []database.Entry

	for _, e := range list {
		if e.RepeatRule == "" {
			if !e.StartsAt.Before(start) && e.StartsAt.Before(end) {
				out = append(out, e)
			}
			continue
		}

		r, err := rrule.StrToRRule(e.RepeatRule)
		if err != nil {
			continue
		}
		r.DTStart(e.StartsAt)

		windowEnd := end
		if e.RepeatUntil.Valid && e.RepeatUntil.Time.Before(windowEnd) {
			windowEnd = e.RepeatUntil.Time
		}
		if !windowEnd.After(start) {
			continue
		}

		// Between is inclusive on both ends; back off the window end so
		// the occurrence set stays half-open like everything else.
		times := r.Between(start, windowEnd.Add(-time.Second), true)
		if len(times) > maxOccurrencesPerEntry {
			times = times[:maxOccurrencesPerEntry]
		}

		var duration time.Duration
		if e.EndsAt.Valid {
			duration = e.EndsAt.Time.Sub(e.StartsAt)
		}

		for _, occStart := range times {
			occ := e
			occ.StartsAt = occStart
			if e.EndsAt.Valid {
				occ.EndsAt.Time = occStart.Add(duration)
			}
			out = append(out, occ)
		}
	}

	return out
}
