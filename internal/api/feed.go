package api

import (
	"net/http"

	"github.com/crmsuite/calendard/internal/access"
	"github.com/crmsuite/calendard/internal/ics"
	"github.com/crmsuite/calendard/internal/response"
)

// ExportFeed serves the caller's visible entries as an iCalendar feed.
// Recurring entries keep their RRULE rather than being expanded, so
// consumers handle recurrence natively.
func (h *Handler) ExportFeed(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	ctx := r.Context()
	refs, err := h.accessibleRefs(ctx, authKey)
	if err != nil {
		response.WriteInternalError(w, "failed to resolve calendars")
		return
	}

	raw, err := h.entryRepo.ListAllForOwner(ctx, authKey.UserID)
	if err != nil {
		response.WriteInternalError(w, "failed to load entries")
		return
	}

	filtered := access.Filter(raw, authKey.UserID, refs, access.FilterOptions{
		VisibleCalendarIDs: access.AllVisible(refs),
		ShowCompletedTasks: true,
	})

	name := authKey.UserName
	if name == "" {
		name = authKey.UserID
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ics.Export(filtered, name)))
}
