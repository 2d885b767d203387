package view

import "time"

// Next advances the cursor by one view-dependent unit.
func Next(cursor time.Time, mode Mode) time.Time {
	return navigate(cursor, mode, 1)
}

// Prev moves the cursor back by one view-dependent unit.
func Prev(cursor time.Time, mode Mode) time.Time {
	return navigate(cursor, mode, -1)
}

func navigate(cursor time.Time, mode Mode, dir int) time.Time {
	switch mode {
	case ModeDay:
		return cursor.AddDate(0, 0, dir)
	case Mode4Day:
		return cursor.AddDate(0, 0, 4*dir)
	case ModeWeek, ModeSchedule:
		return cursor.AddDate(0, 0, 7*dir)
	case ModeMonth:
		return addMonthsClamped(cursor, dir)
	case ModeYear:
		return addMonthsClamped(cursor, 12*dir)
	}
	return cursor
}

// addMonthsClamped shifts the cursor by whole months, clamping the day
// of month to the last valid day of the target month so Jan 31 + 1
// month yields Feb 28 (or 29), not Mar 3.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)
	lastDay := time.Date(firstOfTarget.Year(), firstOfTarget.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()

	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
