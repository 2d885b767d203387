package availability

import (
	"fmt"
	"time"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// Interval is a half-open [Start, End) span of time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Slots computes the bookable slots of length slotLen on the given
// calendar date, skipping anything that collides with the supplied busy
// intervals padded by the schedule's buffer-between-meetings. The busy
// set comes from the caller's visible entries; this engine only owns
// the template and buffer arithmetic.
func Slots(sched *database.UserSchedule, date time.Time, slotLen time.Duration, busy []Interval, now time.Time) ([]Interval, error) {
	if slotLen <= 0 {
		return nil, fmt.Errorf("slot length must be positive, got %v", slotLen)
	}

	loc, err := util.LoadLocation(sched.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", sched.UserID, err)
	}

	day := util.DateOf(date, loc)
	rule, err := ruleFor(sched, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	if !rule.IsWorkingDay {
		return nil, nil
	}

	start, err := util.ParseClock(rule.StartTime)
	if err != nil {
		return nil, fmt.Errorf("schedule %s day %d: %w", sched.UserID, rule.Day, err)
	}
	end, err := util.ParseClock(rule.EndTime)
	if err != nil {
		return nil, fmt.Errorf("schedule %s day %d: %w", sched.UserID, rule.Day, err)
	}

	buffer := time.Duration(sched.BufferBetweenMeetings) * time.Minute
	padded := make([]Interval, len(busy))
	for i, b := range busy {
		padded[i] = Interval{Start: b.Start.Add(-buffer), End: b.End.Add(buffer)}
	}

	step := int(slotLen / time.Minute)
	var out []Interval
	for minute := start; minute+step <= end; minute += step {
		slotStart := day.Add(time.Duration(minute) * time.Minute)
		slot := Interval{Start: slotStart, End: slotStart.Add(slotLen)}

		ok, err := Bookable(sched, slotStart, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		// The whole slot must stay inside the working window and clear
		// of breaks, not just its first minute.
		lastMinute := slot.End.Add(-time.Minute)
		ok, err = Bookable(sched, lastMinute, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		conflict := false
		for _, b := range padded {
			if slot.Overlaps(b) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		out = append(out, slot)
	}

	return out, nil
}
