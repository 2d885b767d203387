// Package view projects a filtered entry list onto a requested
// calendar view window, producing date-bucketed groupings ready for
// rendering. Pure functions over the entries supplied by the caller.
package view

import (
	"fmt"
	"sort"
	"time"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/util"
)

// Mode selects the view window shape.
type Mode string

// View modes
const (
	ModeDay      Mode = "day"
	Mode4Day     Mode = "4day"
	ModeWeek     Mode = "week"
	ModeMonth    Mode = "month"
	ModeYear     Mode = "year"
	ModeSchedule Mode = "schedule"
)

// ScheduleCap limits the flat schedule listing.
const ScheduleCap = 50

// ParseMode validates a view mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDay, Mode4Day, ModeWeek, ModeMonth, ModeYear, ModeSchedule:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid view mode: %q", s)
}

// DayColumn is one date column in the day/4day/week views, with
// entries bucketed by hour of day (0-23).
type DayColumn struct {
	Date  time.Time
	Hours map[int][]database.Entry
}

// MonthCell is one cell of the month grid. Leading/trailing cells of
// the grid are nil placeholders so every week has exactly 7 columns.
type MonthCell struct {
	Day     int
	Date    time.Time
	Entries []database.Entry
}

// Buckets is the projection result. Only the fields for the requested
// mode are populated.
type Buckets struct {
	Mode   Mode
	Cursor time.Time
	Title  string

	Days        []DayColumn  // day, 4day, week
	MonthWeeks  [][]*MonthCell // month
	MonthCounts [12]int      // year: entry counts per month 0-11
	Upcoming    []database.Entry // schedule
}

// Project buckets entries for the view window anchored at cursor.
// Entries outside the window are ignored. Empty input yields empty
// buckets, never an error; only an invalid mode is rejected.
func Project(entries []database.Entry, cursor time.Time, mode Mode, now time.Time, loc *time.Location) (*Buckets, error) {
	if loc == nil {
		loc = time.UTC
	}
	cursor = cursor.In(loc)

	b := &Buckets{
		Mode:   mode,
		Cursor: cursor,
		Title:  Title(cursor, mode),
	}

	switch mode {
	case ModeDay:
		b.Days = bucketDays(entries, util.DateOf(cursor, loc), 1, loc)
	case Mode4Day:
		b.Days = bucketDays(entries, util.DateOf(cursor, loc), 4, loc)
	case ModeWeek:
		b.Days = bucketDays(entries, WeekStart(cursor, loc), 7, loc)
	case ModeMonth:
		b.MonthWeeks = bucketMonth(entries, cursor, loc)
	case ModeYear:
		b.MonthCounts = bucketYear(entries, cursor.Year(), loc)
	case ModeSchedule:
		b.Upcoming = upcoming(entries, now, loc)
	default:
		return nil, fmt.Errorf("invalid view mode: %q", mode)
	}

	return b, nil
}

// Window returns the half-open [start, end) query range covered by the
// view anchored at cursor. Schedule mode looks ahead one year from the
// start of today.
func Window(cursor time.Time, mode Mode, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	cursor = cursor.In(loc)

	switch mode {
	case ModeDay:
		start := util.DateOf(cursor, loc)
		return start, start.AddDate(0, 0, 1), nil
	case Mode4Day:
		start := util.DateOf(cursor, loc)
		return start, start.AddDate(0, 0, 4), nil
	case ModeWeek:
		start := WeekStart(cursor, loc)
		return start, start.AddDate(0, 0, 7), nil
	case ModeMonth:
		start := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0), nil
	case ModeYear:
		start := time.Date(cursor.Year(), 1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0), nil
	case ModeSchedule:
		start := util.DateOf(now, loc)
		return start, start.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid view mode: %q", mode)
}

// WeekStart returns the Sunday on or before t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	d := util.DateOf(t, loc)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func bucketDays(entries []database.Entry, start time.Time, count int, loc *time.Location) []DayColumn {
	cols := make([]DayColumn, count)
	index := make(map[string]int, count)
	for i := 0; i < count; i++ {
		date := start.AddDate(0, 0, i)
		cols[i] = DayColumn{Date: date, Hours: make(map[int][]database.Entry)}
		index[date.Format(util.ISODate)] = i
	}

	for i := range entries {
		e := &entries[i]
		local := e.StartsAt.In(loc)
		col, ok := index[local.Format(util.ISODate)]
		if !ok {
			continue
		}
		hour := local.Hour()
		cols[col].Hours[hour] = append(cols[col].Hours[hour], *e)
	}

	return cols
}

func bucketMonth(entries []database.Entry, cursor time.Time, loc *time.Location) [][]*MonthCell {
	first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, loc)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	byDay := make(map[int][]database.Entry)
	for i := range entries {
		local := entries[i].StartsAt.In(loc)
		if local.Year() == first.Year() && local.Month() == first.Month() {
			byDay[local.Day()] = append(byDay[local.Day()], entries[i])
		}
	}

	// Leading placeholders so day 1 lands on its weekday (week starts
	// Sunday), trailing placeholders to complete the final week.
	cells := make([]*MonthCell, 0, 42)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, nil)
	}
	for day := 1; day <= daysInMonth; day++ {
		cells = append(cells, &MonthCell{
			Day:     day,
			Date:    first.AddDate(0, 0, day-1),
			Entries: byDay[day],
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	weeks := make([][]*MonthCell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

func bucketYear(entries []database.Entry, year int, loc *time.Location) [12]int {
	var counts [12]int
	for i := range entries {
		local := entries[i].StartsAt.In(loc)
		if local.Year() == year {
			counts[int(local.Month())-1]++
		}
	}
	return counts
}

func upcoming(entries []database.Entry, now time.Time, loc *time.Location) []database.Entry {
	startOfToday := util.DateOf(now, loc)

	out := make([]database.Entry, 0, ScheduleCap)
	for i := range entries {
		if !entries[i].StartsAt.Before(startOfToday) {
			out = append(out, entries[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})

	if len(out) > ScheduleCap {
		out = out[:ScheduleCap]
	}
	return out
}

// Title returns the heading for the view window anchored at cursor.
func Title(cursor time.Time, mode Mode) string {
	switch mode {
	case ModeDay:
		return cursor.Format("Monday, Jan 2, 2006")
	case Mode4Day:
		end := cursor.AddDate(0, 0, 3)
		return rangeTitle(cursor, end)
	case ModeWeek:
		start := cursor.AddDate(0, 0, -int(cursor.Weekday()))
		return rangeTitle(start, start.AddDate(0, 0, 6))
	case ModeMonth:
		return cursor.Format("January 2006")
	case ModeYear:
		return cursor.Format("2006")
	case ModeSchedule:
		return "Schedule"
	}
	return ""
}

func rangeTitle(start, end time.Time) string {
	if start.Month() == end.Month() && start.Year() == end.Year() {
		return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("2, 2006"))
	}
	if start.Year() == end.Year() {
		return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	}
	return fmt.Sprintf("%s – %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
}
