package api

import (
	"net/http"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/prefs"
	"github.com/crmsuite/calendard/internal/response"
)

// GetPrefs returns the caller's view preferences.
func (h *Handler) GetPrefs(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	p, err := h.prefsStore.Get(r.Context(), authKey.UserID)
	if err != nil {
		response.WriteInternalError(w, "failed to load preferences")
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// SavePrefs replaces the caller's view preferences.
func (h *Handler) SavePrefs(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	var p prefs.Preferences
	if err := parseJSON(r, &p); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}
	if p.VisibleCalendarIDs == nil {
		p.VisibleCalendarIDs = map[string]bool{}
	}

	ctx := r.Context()
	if err := h.prefsStore.Save(ctx, authKey.UserID, &p); err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditPrefsSaved, authKey.UserID, authKey.ID,
		authKey.UserID, clientIP(r), nil)

	response.JSON(w, http.StatusOK, &p)
}
