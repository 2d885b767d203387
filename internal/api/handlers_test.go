package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crmsuite/calendard/internal/apikeys"
	"github.com/crmsuite/calendard/internal/audit"
	"github.com/crmsuite/calendard/internal/calendars"
	"github.com/crmsuite/calendard/internal/config"
	"github.com/crmsuite/calendard/internal/crypto"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/entries"
	"github.com/crmsuite/calendard/internal/prefs"
	"github.com/crmsuite/calendard/internal/schedules"
	"github.com/crmsuite/calendard/internal/server/middleware"
	"github.com/crmsuite/calendard/internal/shares"
)

func setupHandler(t *testing.T) (*Handler, *database.DB) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	hasher, err := crypto.NewAPIKeyHasher("test-secret-key-for-handler-tests")
	if err != nil {
		t.Fatalf("Failed to create hasher: %v", err)
	}

	cfg := &config.Config{
		Display: config.DisplayConfig{Timezone: "UTC"},
		Booking: config.BookingConfig{SlotMinutes: 30},
	}

	h := NewHandler(
		cfg,
		calendars.NewRepository(db),
		entries.NewRepository(db),
		shares.NewRepository(db),
		schedules.NewRepository(db),
		apikeys.NewRepository(db, hasher),
		prefs.NewStore(db),
		audit.NewLogger(db),
	)

	return h, db
}

func authed(r *http.Request, userID, tier string) *http.Request {
	key := &apikeys.AuthenticatedKey{
		ID:     "key_" + userID,
		UserID: userID,
		Tier:   tier,
	}
	ctx := context.WithValue(r.Context(), middleware.ContextKeyAPIKey, key)
	return r.WithContext(ctx)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func TestGetView_DefaultCalendarIsolation(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()
	ctx := context.Background()

	starts := time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC)
	if _, err := h.entryRepo.Create(ctx, &entries.CreateEntry{
		Title:    "Private standup",
		StartsAt: starts,
		Type:     database.EntryMeeting,
		OwnerID:  "alice",
	}); err != nil {
		t.Fatalf("Create entry failed: %v", err)
	}

	cursor := starts.Format(time.RFC3339)

	// Alice sees her default-calendar entry.
	req := httptest.NewRequest("GET", "/api/view?mode=day&cursor="+cursor, nil)
	rr := httptest.NewRecorder()
	h.GetView(rr, authed(req, "alice", "read"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Private standup") {
		t.Error("Owner should see their default-calendar entry")
	}

	// Bob must not, even though his own default has the same id.
	req = httptest.NewRequest("GET", "/api/view?mode=day&cursor="+cursor, nil)
	rr = httptest.NewRecorder()
	h.GetView(rr, authed(req, "bob", "read"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "Private standup") {
		t.Error("Default-calendar entries must never cross users")
	}
}

func TestGetView_InvalidMode(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()

	req := httptest.NewRequest("GET", "/api/view?mode=fortnight", nil)
	rr := httptest.NewRecorder()
	h.GetView(rr, authed(req, "alice", "read"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}

func TestGetView_ReadTierRequired(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()

	req := httptest.NewRequest("GET", "/api/view", nil)
	rr := httptest.NewRecorder()
	h.GetView(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without auth, got %d", rr.Code)
	}
}

func TestShareWorkflowOverHTTP(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()
	ctx := context.Background()

	cal, err := h.calendarRepo.Create(ctx, &calendars.CreateCalendar{
		Name: "Work", OwnerID: "alice", OwnerName: "Alice",
	})
	if err != nil {
		t.Fatalf("Create calendar failed: %v", err)
	}

	// Alice invites Bob.
	body := strings.NewReader(`{"shared_with_id": "bob", "permission": "view"}`)
	req := httptest.NewRequest("POST", "/api/calendars/"+cal.ID+"/shares", body)
	req.SetPathValue("calendarId", cal.ID)
	rr := httptest.NewRecorder()
	h.CreateShare(rr, authed(req, "alice", "write"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	shareID := decodeBody(t, rr)["id"].(string)

	// Mallory cannot answer Bob's invite.
	req = httptest.NewRequest("POST", "/api/shares/"+shareID+"/accept", nil)
	req.SetPathValue("shareId", shareID)
	rr = httptest.NewRecorder()
	h.AcceptShare(rr, authed(req, "mallory", "write"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for wrong actor, got %d", rr.Code)
	}

	// Bob accepts.
	req = httptest.NewRequest("POST", "/api/shares/"+shareID+"/accept", nil)
	req.SetPathValue("shareId", shareID)
	rr = httptest.NewRecorder()
	h.AcceptShare(rr, authed(req, "bob", "write"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if status := decodeBody(t, rr)["status"]; status != "accepted" {
		t.Errorf("Status: got %v, want accepted", status)
	}

	// A second answer conflicts.
	req = httptest.NewRequest("POST", "/api/shares/"+shareID+"/decline", nil)
	req.SetPathValue("shareId", shareID)
	rr = httptest.NewRecorder()
	h.DeclineShare(rr, authed(req, "bob", "write"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for answered share, got %d", rr.Code)
	}

	// Unknown share id is a 404.
	req = httptest.NewRequest("POST", "/api/shares/nope/accept", nil)
	req.SetPathValue("shareId", "nope")
	rr = httptest.NewRecorder()
	h.AcceptShare(rr, authed(req, "bob", "write"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown share, got %d", rr.Code)
	}
}

func TestCreateShare_VirtualDefaultRejected(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()

	body := strings.NewReader(`{"shared_with_id": "bob", "permission": "view"}`)
	req := httptest.NewRequest("POST", "/api/calendars/default/shares", body)
	req.SetPathValue("calendarId", "default")
	rr := httptest.NewRecorder()
	h.CreateShare(rr, authed(req, "alice", "write"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Sharing the virtual default should 404, got %d", rr.Code)
	}
}

func TestCreateShare_DuplicateConflict(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()
	ctx := context.Background()

	cal, err := h.calendarRepo.Create(ctx, &calendars.CreateCalendar{
		Name: "Work", OwnerID: "alice", OwnerName: "Alice",
	})
	if err != nil {
		t.Fatalf("Create calendar failed: %v", err)
	}

	invite := func() *httptest.ResponseRecorder {
		body := strings.NewReader(`{"shared_with_id": "bob", "permission": "view"}`)
		req := httptest.NewRequest("POST", "/api/calendars/"+cal.ID+"/shares", body)
		req.SetPathValue("calendarId", cal.ID)
		rr := httptest.NewRecorder()
		h.CreateShare(rr, authed(req, "alice", "write"))
		return rr
	}

	if rr := invite(); rr.Code != http.StatusCreated {
		t.Fatalf("First invite: expected 201, got %d", rr.Code)
	}
	if rr := invite(); rr.Code != http.StatusConflict {
		t.Fatalf("Second invite for the same pair: expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateShare_InvalidEmailRejected(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()
	ctx := context.Background()

	cal, err := h.calendarRepo.Create(ctx, &calendars.CreateCalendar{
		Name: "Work", OwnerID: "alice",
	})
	if err != nil {
		t.Fatalf("Create calendar failed: %v", err)
	}

	body := strings.NewReader(`{"shared_with_id": "bob", "shared_with_email": "not-an-email", "permission": "view"}`)
	req := httptest.NewRequest("POST", "/api/calendars/"+cal.ID+"/shares", body)
	req.SetPathValue("calendarId", cal.ID)
	rr := httptest.NewRecorder()
	h.CreateShare(rr, authed(req, "alice", "write"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a bad email, got %d", rr.Code)
	}
}

func TestAdminRoutes_TierEnforced(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("GET", "/api/admin/keys", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authed(req, "alice", "write"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("Write tier on an admin route: expected 403, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/admin/keys", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authed(req, "root", "admin"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Admin tier on an admin route: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateEntry_ResponseCarriesDisplayTimes(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()

	body := strings.NewReader(`{"title": "Call", "starts_at": "2026-04-06T09:00:00Z", "type": "meeting"}`)
	req := httptest.NewRequest("POST", "/api/entries", body)
	rr := httptest.NewRecorder()
	h.CreateEntry(rr, authed(req, "alice", "write"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	display, _ := decodeBody(t, rr)["starts_at_display"].(string)
	if display == "" {
		t.Error("Entry response should carry a formatted start time")
	}
}

func TestCreateEntry_WriteTierRequired(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()

	body := strings.NewReader(`{"title": "Call", "starts_at": "2026-04-06T09:00:00Z", "type": "meeting"}`)
	req := httptest.NewRequest("POST", "/api/entries", body)
	rr := httptest.NewRecorder()
	h.CreateEntry(rr, authed(req, "alice", "read"))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for read tier, got %d", rr.Code)
	}
}

func TestCreateEntry_ForeignCalendarRejected(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()
	ctx := context.Background()

	cal, err := h.calendarRepo.Create(ctx, &calendars.CreateCalendar{
		Name: "Bob's", OwnerID: "bob",
	})
	if err != nil {
		t.Fatalf("Create calendar failed: %v", err)
	}

	body := strings.NewReader(`{"title": "Sneaky", "starts_at": "2026-04-06T09:00:00Z", "type": "meeting", "calendar_id": "` + cal.ID + `"}`)
	req := httptest.NewRequest("POST", "/api/entries", body)
	rr := httptest.NewRecorder()
	h.CreateEntry(rr, authed(req, "alice", "write"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for someone else's calendar, got %d", rr.Code)
	}
}

func TestScheduleRoundTripOverHTTP(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()

	req := httptest.NewRequest("GET", "/api/schedule", nil)
	rr := httptest.NewRecorder()
	h.GetSchedule(rr, authed(req, "alice", "read"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if tz := decodeBody(t, rr)["timezone"]; tz != "UTC" {
		t.Errorf("Default timezone: got %v, want UTC", tz)
	}

	// A malformed template is rejected.
	body := strings.NewReader(`{"timezone": "Neverland/Nowhere", "working_hours": []}`)
	req = httptest.NewRequest("PUT", "/api/schedule", body)
	rr = httptest.NewRecorder()
	h.SaveSchedule(rr, authed(req, "alice", "write"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for bad timezone, got %d", rr.Code)
	}
}

func TestListSlots_NonWorkingDayEmpty(t *testing.T) {
	h, db := setupHandler(t)
	defer db.Close()

	// 2026-04-05 is a Sunday; the default template has no weekend hours.
	req := httptest.NewRequest("GET", "/api/availability/slots?date=2026-04-05", nil)
	rr := httptest.NewRecorder()
	h.ListSlots(rr, authed(req, "alice", "read"))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	slots, ok := decodeBody(t, rr)["slots"].([]interface{})
	if !ok {
		t.Fatal("Response should carry a slots array")
	}
	if len(slots) != 0 {
		t.Errorf("Sunday should have no slots, got %d", len(slots))
	}
}
