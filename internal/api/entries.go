package api

import (
	"net/http"
	"time"

	"github.com/crmsuite/calendard/internal/access"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/entries"
	"github.com/crmsuite/calendard/internal/response"
)

// ListEntries returns visible entries in a time window, recurring
// entries expanded into occurrences. Query parameters: from, to
// (RFC3339; default now to now+1 month).
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	ctx := r.Context()
	q := r.URL.Query()

	var from, to time.Time
	var err error

	if s := q.Get("from"); s != "" {
		from, err = time.Parse(time.RFC3339, s)
		if err != nil {
			response.WriteValidationError(w, "invalid from format (use RFC3339)", nil)
			return
		}
	} else {
		from = time.Now()
	}

	if s := q.Get("to"); s != "" {
		to, err = time.Parse(time.RFC3339, s)
		if err != nil {
			response.WriteValidationError(w, "invalid to format (use RFC3339)", nil)
			return
		}
	} else {
		to = from.AddDate(0, 1, 0)
	}

	if !to.After(from) {
		response.WriteValidationError(w, "to must be after from", nil)
		return
	}

	refs, err := h.accessibleRefs(ctx, authKey)
	if err != nil {
		response.WriteInternalError(w, "failed to resolve calendars")
		return
	}

	raw, err := h.entryRepo.ListForOwners(ctx, refOwners(refs), from, to)
	if err != nil {
		response.WriteInternalError(w, "failed to load entries")
		return
	}

	occurrences := entries.Expand(raw, from, to)
	filtered := access.Filter(occurrences, authKey.UserID, refs, access.FilterOptions{
		VisibleCalendarIDs: access.AllVisible(refs),
		ShowCompletedTasks: true,
	})

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"entries": toEntriesJSON(filtered),
	})
}

type entryRequest struct {
	Title        string     `json:"title"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Type         string     `json:"type"`
	CalendarID   string     `json:"calendar_id"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	LinkedTaskID string     `json:"linked_task_id"`
	RepeatRule   string     `json:"repeat_rule"`
	RepeatUntil  *time.Time `json:"repeat_until"`
}

// normalizeCalendarID maps the "default" sentinel to the empty storage
// value and verifies any persisted target belongs to the caller.
func (h *Handler) normalizeCalendarID(r *http.Request, calendarID, ownerID string) (string, bool) {
	if calendarID == "" || calendarID == database.DefaultCalendarID {
		return "", true
	}
	cal, err := h.calendarRepo.GetByID(r.Context(), calendarID)
	if err != nil || cal == nil || cal.OwnerID != ownerID {
		return "", false
	}
	return calendarID, true
}

// CreateEntry creates an entry owned by the caller.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	var req entryRequest
	if err := parseJSON(r, &req); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}

	calendarID, ok := h.normalizeCalendarID(r, req.CalendarID, authKey.UserID)
	if !ok {
		response.WriteNotFound(w, "calendar")
		return
	}

	ctx := r.Context()
	entry, err := h.entryRepo.Create(ctx, &entries.CreateEntry{
		Title:        req.Title,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Type:         req.Type,
		CalendarID:   calendarID,
		OwnerID:      authKey.UserID,
		OwnerName:    authKey.UserName,
		Description:  req.Description,
		Location:     req.Location,
		LinkedTaskID: req.LinkedTaskID,
		RepeatRule:   req.RepeatRule,
		RepeatUntil:  req.RepeatUntil,
	})
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditEntryCreated, entry.ID, authKey.ID,
		authKey.UserID, clientIP(r), map[string]interface{}{"title": entry.Title})

	response.JSON(w, http.StatusCreated, toEntryJSON(entry))
}

// GetEntry returns a single entry if the caller may see it.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	ctx := r.Context()
	entry, err := h.entryRepo.GetByID(ctx, r.PathValue("entryId"))
	if err != nil {
		response.WriteInternalError(w, "failed to load entry")
		return
	}
	if entry == nil {
		response.WriteNotFound(w, "entry")
		return
	}

	refs, err := h.accessibleRefs(ctx, authKey)
	if err != nil {
		response.WriteInternalError(w, "failed to resolve calendars")
		return
	}
	if !access.EntryVisible(entry, refs, authKey.UserID) {
		response.WriteNotFound(w, "entry")
		return
	}

	response.JSON(w, http.StatusOK, toEntryJSON(entry))
}

// UpdateEntry modifies an entry owned by the caller.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	var req entryRequest
	if err := parseJSON(r, &req); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}

	calendarID, ok := h.normalizeCalendarID(r, req.CalendarID, authKey.UserID)
	if !ok {
		response.WriteNotFound(w, "calendar")
		return
	}

	ctx := r.Context()
	id := r.PathValue("entryId")
	entry, err := h.entryRepo.Update(ctx, id, authKey.UserID, &entries.UpdateEntry{
		Title:       req.Title,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Type:        req.Type,
		CalendarID:  calendarID,
		Description: req.Description,
		Location:    req.Location,
		RepeatRule:  req.RepeatRule,
		RepeatUntil: req.RepeatUntil,
	})
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditEntryUpdated, entry.ID, authKey.ID,
		authKey.UserID, clientIP(r), map[string]interface{}{"title": entry.Title})

	response.JSON(w, http.StatusOK, toEntryJSON(entry))
}

// DeleteEntry removes an entry owned by the caller.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	ctx := r.Context()
	id := r.PathValue("entryId")
	if err := h.entryRepo.Delete(ctx, id, authKey.UserID); err != nil {
		response.WriteNotFound(w, "entry")
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditEntryDeleted, id, authKey.ID,
		authKey.UserID, clientIP(r), nil)

	response.JSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

// CompleteEntry toggles completion on a task or follow-up. Body may
// carry {"completed": false} to un-complete; the default is true.
func (h *Handler) CompleteEntry(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	completed := true
	var req completeRequest
	if err := parseJSON(r, &req); err == nil && req.Completed != nil {
		completed = *req.Completed
	}

	ctx := r.Context()
	id := r.PathValue("entryId")
	entry, err := h.entryRepo.SetCompleted(ctx, id, authKey.UserID, completed)
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditEntryUpdated, entry.ID, authKey.ID,
		authKey.UserID, clientIP(r), map[string]interface{}{"completed": completed})

	response.JSON(w, http.StatusOK, toEntryJSON(entry))
}
