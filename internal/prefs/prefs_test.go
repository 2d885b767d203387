package prefs

import (
	"context"
	"testing"

	"github.com/crmsuite/calendard/internal/database"
)

func setupStore(t *testing.T) (*Store, *database.DB) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return NewStore(db), db
}

func TestStore_GetDefaults(t *testing.T) {
	store, db := setupStore(t)
	defer db.Close()

	p, err := store.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !p.ShowCompletedTasks {
		t.Error("Completed tasks should be shown by default")
	}
	if p.DefaultView != "week" {
		t.Errorf("Default view: got %q, want week", p.DefaultView)
	}
	if len(p.VisibleCalendarIDs) != 0 {
		t.Error("No calendar toggles should exist by default")
	}
}

func TestStore_SaveRoundTrip(t *testing.T) {
	store, db := setupStore(t)
	defer db.Close()
	ctx := context.Background()

	p := &Preferences{
		VisibleCalendarIDs: map[string]bool{
			"default":  false,
			"cal_work": true,
		},
		ShowCompletedTasks: false,
		DefaultView:        "month",
	}
	if err := store.Save(ctx, "alice", p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ShowCompletedTasks {
		t.Error("ShowCompletedTasks lost in round trip")
	}
	if got.DefaultView != "month" {
		t.Errorf("DefaultView: got %q", got.DefaultView)
	}
	if got.VisibleCalendarIDs["default"] {
		t.Error("Default calendar toggle lost in round trip")
	}

	// Another user's preferences are untouched.
	other, err := store.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !other.ShowCompletedTasks {
		t.Error("Other users should still see defaults")
	}
}

func TestStore_SaveRejectsBadView(t *testing.T) {
	store, db := setupStore(t)
	defer db.Close()

	p := DefaultPreferences()
	p.DefaultView = "fortnight"
	if err := store.Save(context.Background(), "alice", p); err == nil {
		t.Error("Unknown view mode should be rejected")
	}
}

func TestStore_CorruptBlobFallsBack(t *testing.T) {
	store, db := setupStore(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO settings (key, value) VALUES ('prefs:alice', '{not json')`); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	p, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.DefaultView != "week" {
		t.Error("Corrupt preferences should fall back to defaults")
	}
}
