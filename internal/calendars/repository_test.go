package calendars

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

func TestRepository_Create(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()
	ctx := context.Background()

	cal, err := repo.Create(ctx, &CreateCalendar{
		Name:      "Work",
		OwnerID:   "alice",
		OwnerName: "Alice",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if cal.Color != DefaultColor {
		t.Errorf("Color default: got %q, want %q", cal.Color, DefaultColor)
	}
	if !cal.IsDefault {
		t.Error("First calendar should become the owner's default")
	}
	if !cal.IsVisible {
		t.Error("New calendar should start visible")
	}

	second, err := repo.Create(ctx, &CreateCalendar{
		Name:      "Personal",
		Color:     "#ff5722",
		OwnerID:   "alice",
		OwnerName: "Alice",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if second.IsDefault {
		t.Error("Second calendar must not be a default")
	}
}

func TestRepository_CreateValidation(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := repo.Create(ctx, &CreateCalendar{OwnerID: "alice"}); err == nil {
		t.Error("Empty name should be rejected")
	}
	if _, err := repo.Create(ctx, &CreateCalendar{Name: "Work", Color: "blue", OwnerID: "alice"}); err == nil {
		t.Error("Non-hex color should be rejected")
	}
}

func TestRepository_ListForOwner(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()
	ctx := context.Background()

	for _, name := range []string{"Work", "Personal", "Projects"} {
		if _, err := repo.Create(ctx, &CreateCalendar{Name: name, OwnerID: "alice", OwnerName: "Alice"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := repo.Create(ctx, &CreateCalendar{Name: "Other", OwnerID: "bob", OwnerName: "Bob"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.ListForOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForOwner failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Calendars for alice: got %d, want 3", len(got))
	}
	if got[0].Name != "Work" {
		t.Errorf("Creation order not preserved: first is %q", got[0].Name)
	}
}

func TestRepository_Update(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()
	ctx := context.Background()

	cal, err := repo.Create(ctx, &CreateCalendar{Name: "Work", OwnerID: "alice", OwnerName: "Alice"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := repo.Update(ctx, cal.ID, "alice", &UpdateCalendar{
		Name:      "Client Work",
		Color:     "#00897b",
		IsVisible: false,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Client Work" || updated.Color != "#00897b" || updated.IsVisible {
		t.Errorf("Update not applied: %+v", updated)
	}

	// A non-owner cannot update.
	if _, err := repo.Update(ctx, cal.ID, "bob", &UpdateCalendar{Name: "Hijacked", Color: "#000000"}); err == nil {
		t.Error("Update by non-owner should fail")
	}
}

func TestRepository_DeleteReassignsEntries(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()
	ctx := context.Background()

	cal, err := repo.Create(ctx, &CreateCalendar{Name: "Work", OwnerID: "alice", OwnerName: "Alice"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO entries (id, title, starts_at, calendar_id, owner_id, owner_name)
		VALUES ('e1', 'Standup', '2026-04-06 09:00:00', ?, 'alice', 'Alice')
	`, cal.ID)
	if err != nil {
		t.Fatalf("Seed entry failed: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO shares (id, calendar_id, calendar_name, owner_id, owner_name,
		                    shared_with_id, shared_with_name, permission)
		VALUES ('s1', ?, 'Work', 'alice', 'Alice', 'bob', 'Bob', 'view')
	`, cal.ID)
	if err != nil {
		t.Fatalf("Seed share failed: %v", err)
	}

	if err := repo.Delete(ctx, cal.ID, "alice"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := repo.GetByID(ctx, cal.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Error("Calendar should be gone")
	}

	var calendarID string
	if err := db.QueryRow(`SELECT calendar_id FROM entries WHERE id = 'e1'`).Scan(&calendarID); err != nil {
		t.Fatalf("Entry lookup failed: %v", err)
	}
	if calendarID != "" {
		t.Errorf("Entry should move to the default calendar, got calendar_id %q", calendarID)
	}

	var shareCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM shares WHERE calendar_id = ?`, cal.ID).Scan(&shareCount); err != nil {
		t.Fatalf("Share count failed: %v", err)
	}
	if shareCount != 0 {
		t.Error("Shares of a deleted calendar should be removed")
	}
}

func TestRepository_DeleteByNonOwner(t *testing.T) {
	repo, db := setupTestRepo(t)
	defer db.Close()
	ctx := context.Background()

	cal, err := repo.Create(ctx, &CreateCalendar{Name: "Work", OwnerID: "alice", OwnerName: "Alice"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, cal.ID, "bob"); err == nil {
		t.Error("Delete by non-owner should fail")
	}
	if got, _ := repo.GetByID(ctx, cal.ID); got == nil {
		t.Error("Calendar should survive a rejected delete")
	}
}
