// Package ics renders entries as an iCalendar feed.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/crmsuite/calendard/internal/database"
)

// defaultEventLength pads entries without an explicit end so consumers
// render something visible.
const defaultEventLength = 30 * time.Minute

// Export serializes the given entries into a VCALENDAR document. The
// caller decides which entries to include; this package only formats.
func Export(entries []database.Entry, calendarName string) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//crmsuite//calendard//EN")
	if calendarName != "" {
		cal.SetXWRCalName(calendarName)
	}

	for i := range entries {
		e := &entries[i]

		ev := cal.AddEvent(e.ID + "@calendard")
		ev.SetDtStampTime(e.CreatedAt)
		ev.SetCreatedTime(e.CreatedAt)
		ev.SetStartAt(e.StartsAt)
		if e.EndsAt.Valid {
			ev.SetEndAt(e.EndsAt.Time)
		} else {
			ev.SetEndAt(e.StartsAt.Add(defaultEventLength))
		}

		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.RepeatRule != "" {
			ev.AddRrule(e.RepeatRule)
		}
		if e.Type == database.EntryTask && e.Completed {
			ev.SetStatus(ical.ObjectStatusCancelled)
		}
	}

	return cal.Serialize()
}
