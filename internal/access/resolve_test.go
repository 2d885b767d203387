package access

import (
	"reflect"
	"testing"

	"github.com/crmsuite/calendard/internal/database"
)

func cal(id, owner string) database.Calendar {
	return database.Calendar{
		ID:        id,
		Name:      "Calendar " + id,
		OwnerID:   owner,
		OwnerName: "User " + owner,
		IsVisible: true,
	}
}

func acceptedShare(calendarID, owner, recipient string) database.Share {
	return database.Share{
		ID:           "share_" + calendarID + "_" + recipient,
		CalendarID:   calendarID,
		OwnerID:      owner,
		SharedWithID: recipient,
		Permission:   database.PermissionView,
		Status:       database.ShareAccepted,
	}
}

func TestResolve_OwnedFirst(t *testing.T) {
	calendars := []database.Calendar{
		cal("c1", "alice"),
		cal("c2", "bob"),
		cal("c3", "alice"),
	}
	shares := []database.Share{
		acceptedShare("c2", "bob", "alice"),
	}

	refs := Resolve("alice", "Alice", calendars, shares)

	got := make([]string, len(refs))
	for i, r := range refs {
		got[i] = r.ID()
	}
	want := []string{"c1", "c3", "c2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve order mismatch: got %v, want %v", got, want)
	}
}

func TestResolve_SynthesizesDefaultWhenNoOwned(t *testing.T) {
	calendars := []database.Calendar{cal("c1", "bob")}
	shares := []database.Share{acceptedShare("c1", "bob", "alice")}

	refs := Resolve("alice", "Alice", calendars, shares)

	if len(refs) != 2 {
		t.Fatalf("Expected 2 refs, got %d", len(refs))
	}
	if !refs[0].Virtual {
		t.Error("First ref should be the virtual default")
	}
	if refs[0].ID() != database.DefaultCalendarID {
		t.Errorf("Virtual ref id: got %q, want %q", refs[0].ID(), database.DefaultCalendarID)
	}
	if refs[0].Owner() != "alice" {
		t.Errorf("Virtual ref owner: got %q, want alice", refs[0].Owner())
	}
	if !refs[0].Calendar.IsDefault {
		t.Error("Synthesized calendar should be marked default")
	}
	if refs[1].ID() != "c1" {
		t.Errorf("Shared calendar should follow: got %q", refs[1].ID())
	}
}

func TestResolve_Deterministic(t *testing.T) {
	calendars := []database.Calendar{cal("c1", "bob")}
	shares := []database.Share{acceptedShare("c1", "bob", "alice")}

	first := Resolve("alice", "Alice", calendars, shares)
	second := Resolve("alice", "Alice", calendars, shares)

	if !reflect.DeepEqual(first, second) {
		t.Error("Resolve should be deterministic for identical inputs")
	}
}

func TestResolve_CollapsesDuplicateGrants(t *testing.T) {
	calendars := []database.Calendar{cal("c1", "bob")}
	first := acceptedShare("c1", "bob", "alice")
	second := acceptedShare("c1", "bob", "alice")
	second.ID = "share_c1_alice_again"

	refs := Resolve("alice", "Alice", calendars, []database.Share{first, second})

	count := 0
	for _, r := range refs {
		if r.ID() == "c1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Calendar c1 appears %d times in the accessible set, want 1", count)
	}
}

func TestResolve_IgnoresPendingAndDeclinedShares(t *testing.T) {
	calendars := []database.Calendar{
		cal("c1", "bob"),
		cal("c2", "bob"),
	}
	pending := acceptedShare("c1", "bob", "alice")
	pending.Status = database.SharePending
	declined := acceptedShare("c2", "bob", "alice")
	declined.Status = database.ShareDeclined

	refs := Resolve("alice", "Alice", calendars, []database.Share{pending, declined})

	// Only the synthesized default remains.
	if len(refs) != 1 || !refs[0].Virtual {
		t.Fatalf("Expected only the virtual default, got %d refs", len(refs))
	}
}

func TestResolve_DropsShareForDeletedCalendar(t *testing.T) {
	shares := []database.Share{acceptedShare("gone", "bob", "alice")}

	refs := Resolve("alice", "Alice", nil, shares)

	if len(refs) != 1 || !refs[0].Virtual {
		t.Fatalf("Share to a deleted calendar should be dropped, got %d refs", len(refs))
	}
}

func TestEntryVisible_DefaultCalendarIsolation(t *testing.T) {
	entryA := database.Entry{ID: "e1", OwnerID: "alice"}
	entryB := database.Entry{ID: "e2", OwnerID: "bob"}

	refs := Resolve("alice", "Alice", nil, nil)

	if !EntryVisible(&entryA, refs, "alice") {
		t.Error("Alice should see her own default-calendar entry")
	}
	if EntryVisible(&entryB, refs, "alice") {
		t.Error("Alice must never see Bob's default-calendar entry")
	}
}

func TestEntryVisible_SharedCalendarShowsOwnerEntries(t *testing.T) {
	shared := cal("c1", "bob")
	refs := []Ref{PersistedRef(&shared)}

	ownerEntry := database.Entry{ID: "e1", CalendarID: "c1", OwnerID: "bob"}
	strangerEntry := database.Entry{ID: "e2", CalendarID: "c1", OwnerID: "carol"}

	if !EntryVisible(&ownerEntry, refs, "alice") {
		t.Error("Shared calendar should show the calendar owner's entries")
	}
	if EntryVisible(&strangerEntry, refs, "alice") {
		t.Error("Shared calendar should not show a third party's entries")
	}
}

func TestEntryVisible_OwnedCalendarShowsOwnEntries(t *testing.T) {
	owned := cal("c1", "alice")
	refs := []Ref{PersistedRef(&owned)}

	mine := database.Entry{ID: "e1", CalendarID: "c1", OwnerID: "alice"}
	if !EntryVisible(&mine, refs, "alice") {
		t.Error("Owned calendar should show the current user's entries")
	}
}

func TestEntryVisible_OrphanedCalendarFallsBackToOwner(t *testing.T) {
	entry := database.Entry{ID: "e1", CalendarID: "deleted", OwnerID: "alice"}

	if !EntryVisible(&entry, nil, "alice") {
		t.Error("Owner should still see an entry on an inaccessible calendar")
	}
	if EntryVisible(&entry, nil, "bob") {
		t.Error("Non-owner should not see an entry on an inaccessible calendar")
	}
}
