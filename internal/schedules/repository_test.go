package schedules

import (
	"context"
	"testing"

	"github.com/crmsuite/calendard/internal/database"
)

func setupTestRepo(t *testing.T) (*Repository, *database.DB) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return NewRepository(db), db
}

func TestRepository_GetOrCreateDefaults(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()
	ctx := context.Background()

	sched, err := repo.GetOrCreate(ctx, "alice", "Alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if sched.Timezone != DefaultTimezone {
		t.Errorf("Timezone: got %q, want %q", sched.Timezone, DefaultTimezone)
	}
	if sched.BufferBetweenMeetings != DefaultBufferMinutes {
		t.Errorf("Buffer: got %d, want %d", sched.BufferBetweenMeetings, DefaultBufferMinutes)
	}
	if sched.MinimumNotice != DefaultNoticeHours {
		t.Errorf("Notice: got %d, want %d", sched.MinimumNotice, DefaultNoticeHours)
	}
	if len(sched.WorkingHours) != 7 {
		t.Fatalf("Working hours: got %d entries, want 7", len(sched.WorkingHours))
	}
	for _, wh := range sched.WorkingHours {
		wantWorking := wh.Day >= 1 && wh.Day <= 5
		if wh.IsWorkingDay != wantWorking {
			t.Errorf("Weekday %d working: got %v, want %v", wh.Day, wh.IsWorkingDay, wantWorking)
		}
	}
	if len(sched.BlockedDates) != 0 {
		t.Errorf("Blocked dates should start empty, got %v", sched.BlockedDates)
	}

	// Second call returns the same row, not a new one.
	again, err := repo.GetOrCreate(ctx, "alice", "Alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if again.ID != sched.ID {
		t.Error("GetOrCreate should be idempotent")
	}
}

func TestRepository_SaveRoundTrip(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()
	ctx := context.Background()

	sched, err := repo.GetOrCreate(ctx, "alice", "Alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	sched.Timezone = "America/New_York"
	sched.BufferBetweenMeetings = 30
	sched.MinimumNotice = 48
	sched.BlockedDates = []string{"2026-12-24", "2026-12-25"}
	sched.WorkingHours[1].Breaks = []database.BreakSlot{{Start: "12:00", End: "13:00"}}
	sched.WorkingHours[6] = database.WorkingHours{
		Day: 6, IsWorkingDay: true, StartTime: "10:00", EndTime: "14:00",
	}

	saved, err := repo.Save(ctx, sched)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if saved.Timezone != "America/New_York" || saved.MinimumNotice != 48 {
		t.Errorf("Save round trip lost fields: %+v", saved)
	}
	if len(saved.BlockedDates) != 2 {
		t.Errorf("Blocked dates: got %v", saved.BlockedDates)
	}
	if len(saved.WorkingHours[1].Breaks) != 1 {
		t.Error("Monday break lost in round trip")
	}
	if !saved.WorkingHours[6].IsWorkingDay {
		t.Error("Saturday hours lost in round trip")
	}
}

func TestRepository_SaveUnknownUser(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()

	sched := &database.UserSchedule{
		UserID:       "ghost",
		Timezone:     "UTC",
		WorkingHours: DefaultWorkingHours(),
	}
	if _, err := repo.Save(context.Background(), sched); err == nil {
		t.Error("Saving a schedule that was never created should fail")
	}
}

func TestValidate(t *testing.T) {
	base := func() *database.UserSchedule {
		return &database.UserSchedule{
			UserID:       "alice",
			Timezone:     "UTC",
			WorkingHours: DefaultWorkingHours(),
		}
	}

	if err := Validate(base()); err != nil {
		t.Fatalf("Default template should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*database.UserSchedule)
	}{
		{"bad timezone", func(s *database.UserSchedule) { s.Timezone = "Mars/Olympus" }},
		{"negative buffer", func(s *database.UserSchedule) { s.BufferBetweenMeetings = -1 }},
		{"negative notice", func(s *database.UserSchedule) { s.MinimumNotice = -1 }},
		{"missing weekday", func(s *database.UserSchedule) { s.WorkingHours = s.WorkingHours[:6] }},
		{"duplicate weekday", func(s *database.UserSchedule) { s.WorkingHours[0].Day = 1 }},
		{"bad clock", func(s *database.UserSchedule) { s.WorkingHours[1].StartTime = "9am" }},
		{"end before start", func(s *database.UserSchedule) {
			s.WorkingHours[1].StartTime = "17:00"
			s.WorkingHours[1].EndTime = "09:00"
		}},
		{"break outside hours", func(s *database.UserSchedule) {
			s.WorkingHours[1].Breaks = []database.BreakSlot{{Start: "08:00", End: "09:30"}}
		}},
		{"inverted break", func(s *database.UserSchedule) {
			s.WorkingHours[1].Breaks = []database.BreakSlot{{Start: "13:00", End: "12:00"}}
		}},
		{"bad blocked date", func(s *database.UserSchedule) { s.BlockedDates = []string{"next tuesday"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			if err := Validate(s); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
