// Package availability answers whether an instant is bookable under a
// user's schedule template: working hours, breaks, blocked dates and
// the minimum-notice window. All evaluation happens in the schedule's
// declared timezone; conflict detection against existing entries is a
// caller composition, see Slots.
package availability

import (
	"fmt"
	"time"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// Bookable reports whether candidate satisfies the schedule template.
// The working window is half-open: the end time itself is not bookable.
//
// A structurally broken schedule (bad timezone, missing weekday entry,
// unparseable clock value) fails closed: the error describes the defect
// and the result is always false.
func Bookable(sched *database.UserSchedule, candidate, now time.Time) (bool, error) {
	loc, err := util.LoadLocation(sched.Timezone)
	if err != nil {
		return false, fmt.Errorf("schedule %s: %w", sched.UserID, err)
	}

	// Minimum notice is measured from "now", both on the schedule's clock.
	notice := time.Duration(sched.MinimumNotice) * time.Hour
	if candidate.Before(now.Add(notice)) {
		return false, nil
	}

	local := candidate.In(loc)
	date := local.Format(util.ISODate)
	for _, blocked := range sched.BlockedDates {
		if blocked == date {
			return false, nil
		}
	}

	rule, err := ruleFor(sched, int(local.Weekday()))
	if err != nil {
		return false, err
	}
	if !rule.IsWorkingDay {
		return false, nil
	}

	start, err := util.ParseClock(rule.StartTime)
	if err != nil {
		return false, fmt.Errorf("schedule %s day %d: %w", sched.UserID, rule.Day, err)
	}
	end, err := util.ParseClock(rule.EndTime)
	if err != nil {
		return false, fmt.Errorf("schedule %s day %d: %w", sched.UserID, rule.Day, err)
	}

	minute := local.Hour()*60 + local.Minute()
	if minute < start || minute >= end {
		return false, nil
	}

	for _, br := range rule.Breaks {
		bs, err := util.ParseClock(br.Start)
		if err != nil {
			return false, fmt.Errorf("schedule %s day %d break: %w", sched.UserID, rule.Day, err)
		}
		be, err := util.ParseClock(br.End)
		if err != nil {
			return false, fmt.Errorf("schedule %s day %d break: %w", sched.UserID, rule.Day, err)
		}
		if minute >= bs && minute < be {
			return false, nil
		}
	}

	return true, nil
}

// ruleFor finds the working-hours entry for a weekday. The template
// invariant is exactly one entry per day 0-6; a gap is a data-integrity
// defect, not a normal miss.
func ruleFor(sched *database.UserSchedule, weekday int) (*database.WorkingHours, error) {
	for i := range sched.WorkingHours {
		if sched.WorkingHours[i].Day == weekday {
			return &sched.WorkingHours[i], nil
		}
	}
	return nil, fmt.Errorf("schedule %s: no working-hours entry for weekday %d", sched.UserID, weekday)
}
