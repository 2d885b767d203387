package api

import (
	"net/http"

	"github.com/crmsuite/calendard/internal/calendars"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/response"
)

// ListCalendars returns every calendar the caller can see, the virtual
// default included when they own no persisted calendar.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	refs, err := h.accessibleRefs(r.Context(), authKey)
	if err != nil {
		response.WriteInternalError(w, "failed to resolve calendars")
		return
	}

	out := make([]calendarJSON, 0, len(refs))
	for _, ref := range refs {
		cj := toCalendarJSON(ref.Calendar)
		cj.Virtual = ref.Virtual
		out = append(out, cj)
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"calendars": out,
	})
}

type createCalendarRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateCalendar creates a calendar owned by the caller.
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	var req createCalendarRequest
	if err := parseJSON(r, &req); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}

	ctx := r.Context()
	cal, err := h.calendarRepo.Create(ctx, &calendars.CreateCalendar{
		Name:      req.Name,
		Color:     req.Color,
		OwnerID:   authKey.UserID,
		OwnerName: authKey.UserName,
	})
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditCalendarCreated, cal.ID, authKey.ID,
		authKey.UserID, clientIP(r), map[string]interface{}{"name": cal.Name})

	response.JSON(w, http.StatusCreated, toCalendarJSON(cal))
}

// GetCalendar returns a single calendar the caller can see.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	id := r.PathValue("calendarId")
	refs, err := h.accessibleRefs(r.Context(), authKey)
	if err != nil {
		response.WriteInternalError(w, "failed to resolve calendars")
		return
	}

	for _, ref := range refs {
		if ref.ID() == id {
			cj := toCalendarJSON(ref.Calendar)
			cj.Virtual = ref.Virtual
			response.JSON(w, http.StatusOK, cj)
			return
		}
	}

	response.WriteNotFound(w, "calendar")
}

type updateCalendarRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsVisible *bool  `json:"is_visible"`
}

// UpdateCalendar modifies a calendar owned by the caller.
func (h *Handler) UpdateCalendar(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	var req updateCalendarRequest
	if err := parseJSON(r, &req); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}

	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	ctx := r.Context()
	id := r.PathValue("calendarId")
	cal, err := h.calendarRepo.Update(ctx, id, authKey.UserID, &calendars.UpdateCalendar{
		Name:      req.Name,
		Color:     req.Color,
		IsVisible: visible,
	})
	if err != nil {
		response.WriteNotFound(w, "calendar")
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditCalendarUpdated, cal.ID, authKey.ID,
		authKey.UserID, clientIP(r), map[string]interface{}{"name": cal.Name})

	response.JSON(w, http.StatusOK, toCalendarJSON(cal))
}

// DeleteCalendar removes a calendar owned by the caller. Entries on it
// move to the owner's default calendar; its shares are revoked.
func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	ctx := r.Context()
	id := r.PathValue("calendarId")
	if err := h.calendarRepo.Delete(ctx, id, authKey.UserID); err != nil {
		response.WriteNotFound(w, "calendar")
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditCalendarDeleted, id, authKey.ID,
		authKey.UserID, clientIP(r), nil)

	response.JSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
