package view

import (
	"testing"
	"time"

	"github.com/crmsuite/calendard/internal/database"
)

func entryAt(id string, startsAt time.Time) database.Entry {
	return database.Entry{
		ID:       id,
		Title:    id,
		OwnerID:  "alice",
		Type:     database.EntryMeeting,
		StartsAt: startsAt,
	}
}

func TestProject_DayBucketsByHour(t *testing.T) {
	cursor := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	entries := []database.Entry{
		entryAt("morning", time.Date(2026, 4, 15, 9, 30, 0, 0, time.UTC)),
		entryAt("also-morning", time.Date(2026, 4, 15, 9, 45, 0, 0, time.UTC)),
		entryAt("evening", time.Date(2026, 4, 15, 18, 0, 0, 0, time.UTC)),
		entryAt("other-day", time.Date(2026, 4, 16, 9, 0, 0, 0, time.UTC)),
	}

	b, err := Project(entries, cursor, ModeDay, cursor, time.UTC)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if len(b.Days) != 1 {
		t.Fatalf("Expected 1 day column, got %d", len(b.Days))
	}
	if got := len(b.Days[0].Hours[9]); got != 2 {
		t.Errorf("Hour 9 bucket: got %d entries, want 2", got)
	}
	if got := len(b.Days[0].Hours[18]); got != 1 {
		t.Errorf("Hour 18 bucket: got %d entries, want 1", got)
	}
	total := 0
	for _, es := range b.Days[0].Hours {
		total += len(es)
	}
	if total != 3 {
		t.Errorf("Other-day entry leaked into day view: total %d", total)
	}
}

func TestProject_WeekStartsSunday(t *testing.T) {
	// 2026-04-15 is a Wednesday; the week should start Sunday 2026-04-12.
	cursor := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)

	b, err := Project(nil, cursor, ModeWeek, cursor, time.UTC)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if len(b.Days) != 7 {
		t.Fatalf("Expected 7 columns, got %d", len(b.Days))
	}
	if b.Days[0].Date.Weekday() != time.Sunday {
		t.Errorf("Week should start on Sunday, got %s", b.Days[0].Date.Weekday())
	}
	if b.Days[0].Date.Day() != 12 {
		t.Errorf("Week start: got day %d, want 12", b.Days[0].Date.Day())
	}
}

func TestProject_FourDayStartsAtCursor(t *testing.T) {
	cursor := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

	b, err := Project(nil, cursor, Mode4Day, cursor, time.UTC)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if len(b.Days) != 4 {
		t.Fatalf("Expected 4 columns, got %d", len(b.Days))
	}
	for i, col := range b.Days {
		if col.Date.Day() != 15+i {
			t.Errorf("Column %d: got day %d, want %d", i, col.Date.Day(), 15+i)
		}
	}
}

func TestProject_MonthGridPadding(t *testing.T) {
	// April 2026 has 30 days and starts on a Wednesday: 3 leading
	// placeholders (Sun, Mon, Tue) and 2 trailing ones.
	cursor := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	entries := []database.Entry{
		entryAt("e1", time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)),
		entryAt("e2", time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC)),
		entryAt("outside", time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
	}

	b, err := Project(entries, cursor, ModeMonth, cursor, time.UTC)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	for i, week := range b.MonthWeeks {
		if len(week) != 7 {
			t.Errorf("Week %d has %d cells, want 7", i, len(week))
		}
	}

	first := b.MonthWeeks[0]
	for i := 0; i < 3; i++ {
		if first[i] != nil {
			t.Errorf("Leading cell %d should be a placeholder", i)
		}
	}
	if first[3] == nil || first[3].Day != 1 {
		t.Fatal("Day 1 should sit in the Wednesday column")
	}

	last := b.MonthWeeks[len(b.MonthWeeks)-1]
	if last[4] == nil || last[4].Day != 30 {
		t.Errorf("Day 30 misplaced in final week")
	}
	if last[5] != nil || last[6] != nil {
		t.Error("Trailing cells should be placeholders")
	}

	// Entry counts per day sum to the month's filtered total.
	total := 0
	for _, week := range b.MonthWeeks {
		for _, cell := range week {
			if cell != nil {
				total += len(cell.Entries)
			}
		}
	}
	if total != 2 {
		t.Errorf("Month entry total: got %d, want 2", total)
	}
}

func TestProject_YearCounts(t *testing.T) {
	cursor := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	entries := []database.Entry{
		entryAt("jan", time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)),
		entryAt("jan2", time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)),
		entryAt("dec", time.Date(2026, 12, 31, 9, 0, 0, 0, time.UTC)),
		entryAt("other-year", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
	}

	b, err := Project(entries, cursor, ModeYear, cursor, time.UTC)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if b.MonthCounts[0] != 2 {
		t.Errorf("January count: got %d, want 2", b.MonthCounts[0])
	}
	if b.MonthCounts[11] != 1 {
		t.Errorf("December count: got %d, want 1", b.MonthCounts[11])
	}
	if b.MonthCounts[5] != 0 {
		t.Errorf("June count: got %d, want 0", b.MonthCounts[5])
	}
}

func TestProject_ScheduleCapAndCutoff(t *testing.T) {
	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)

	var entries []database.Entry
	entries = append(entries, entryAt("yesterday", now.AddDate(0, 0, -1)))
	// Earlier today, before "now": still listed (cutoff is start of today).
	entries = append(entries, entryAt("this-morning", time.Date(2026, 4, 15, 8, 0, 0, 0, time.UTC)))
	for i := 0; i < 60; i++ {
		entries = append(entries, entryAt("future", now.Add(time.Duration(i+1)*time.Hour)))
	}

	b, err := Project(entries, now, ModeSchedule, now, time.UTC)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if len(b.Upcoming) != ScheduleCap {
		t.Fatalf("Schedule list: got %d, want cap of %d", len(b.Upcoming), ScheduleCap)
	}
	if b.Upcoming[0].ID != "this-morning" {
		t.Errorf("First entry should be this morning's, got %s", b.Upcoming[0].ID)
	}
	for _, e := range b.Upcoming {
		if e.ID == "yesterday" {
			t.Error("Past entries must not appear in the schedule view")
		}
	}
}

func TestProject_EmptyInput(t *testing.T) {
	cursor := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	for _, mode := range []Mode{ModeDay, Mode4Day, ModeWeek, ModeMonth, ModeYear, ModeSchedule} {
		b, err := Project(nil, cursor, mode, cursor, time.UTC)
		if err != nil {
			t.Errorf("Project(%s) on empty input: %v", mode, err)
		}
		if b == nil {
			t.Errorf("Project(%s) returned nil buckets", mode)
		}
	}
}

func TestWindow_HalfOpenRanges(t *testing.T) {
	cursor := time.Date(2026, 4, 15, 14, 30, 0, 0, time.UTC)
	now := cursor

	tests := []struct {
		mode       Mode
		wantStart  time.Time
		wantEnd    time.Time
	}{
		{ModeDay, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC)},
		{Mode4Day, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 19, 0, 0, 0, 0, time.UTC)},
		{ModeWeek, time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 19, 0, 0, 0, 0, time.UTC)},
		{ModeMonth, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ModeYear, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ModeSchedule, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), time.Date(2027, 4, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		start, end, err := Window(cursor, tt.mode, now, time.UTC)
		if err != nil {
			t.Errorf("Window(%s): %v", tt.mode, err)
			continue
		}
		if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
			t.Errorf("Window(%s): got [%v, %v), want [%v, %v)",
				tt.mode, start, end, tt.wantStart, tt.wantEnd)
		}
	}

	if _, _, err := Window(cursor, Mode("fortnight"), now, time.UTC); err == nil {
		t.Error("Expected error for invalid mode")
	}
}

func TestParseMode_Invalid(t *testing.T) {
	if _, err := ParseMode("fortnight"); err == nil {
		t.Error("Expected error for invalid mode")
	}
}

func TestNavigate_WeekRoundTrip(t *testing.T) {
	cursor := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	back := Prev(Next(cursor, ModeWeek), ModeWeek)
	if !back.Equal(cursor) {
		t.Errorf("Week next/prev round trip: got %v, want %v", back, cursor)
	}
}

func TestNavigate_MonthClampsToLastDay(t *testing.T) {
	jan31 := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	feb := Next(jan31, ModeMonth)
	if feb.Month() != time.February || feb.Day() != 28 {
		t.Errorf("Jan 31 + 1 month: got %v, want Feb 28", feb)
	}

	// Round trip lands in the same month, though the day is clamped.
	back := Prev(feb, ModeMonth)
	if back.Month() != time.January || back.Year() != 2026 {
		t.Errorf("Round trip month: got %v, want January 2026", back)
	}
}

func TestNavigate_MonthLeapYear(t *testing.T) {
	jan31 := time.Date(2028, 1, 31, 0, 0, 0, 0, time.UTC)
	feb := Next(jan31, ModeMonth)
	if feb.Day() != 29 {
		t.Errorf("Jan 31 2028 + 1 month: got day %d, want 29", feb.Day())
	}
}

func TestNavigate_YearRollover(t *testing.T) {
	dec := time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)
	next := Next(dec, ModeMonth)
	if next.Year() != 2027 || next.Month() != time.January {
		t.Errorf("Dec + 1 month: got %v, want Jan 2027", next)
	}

	feb29 := time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)
	y := Next(feb29, ModeYear)
	if y.Year() != 2029 || y.Day() != 28 {
		t.Errorf("Feb 29 + 1 year: got %v, want Feb 28 2029", y)
	}
}

func TestNavigate_DayAndFourDay(t *testing.T) {
	cursor := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	if got := Next(cursor, ModeDay); got.Month() != time.May || got.Day() != 1 {
		t.Errorf("Day next over month boundary: got %v", got)
	}
	if got := Next(cursor, Mode4Day); got.Day() != 4 || got.Month() != time.May {
		t.Errorf("4day next: got %v, want May 4", got)
	}
}
