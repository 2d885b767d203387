package api

import (
	"errors"
	"net/http"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/response"
	"github.com/crmsuite/calendard/internal/shares"
	"github.com/crmsuite/calendard/internal/util"
)

type createShareRequest struct {
	SharedWithID    string `json:"shared_with_id"`
	SharedWithName  string `json:"shared_with_name"`
	SharedWithEmail string `json:"shared_with_email"`
	Permission      string `json:"permission"`
}

// CreateShare invites another user to a calendar the caller owns. The
// virtual default calendar has no row and cannot be shared.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	var req createShareRequest
	if err := parseJSON(r, &req); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}
	if req.SharedWithID == "" {
		response.WriteValidationError(w, "shared_with_id is required", nil)
		return
	}
	if req.SharedWithEmail != "" {
		if err := util.ValidateEmail(req.SharedWithEmail); err != nil {
			response.WriteValidationError(w, "shared_with_email: "+err.Error(), nil)
			return
		}
	}

	ctx := r.Context()
	calendarID := r.PathValue("calendarId")

	cal, err := h.calendarRepo.GetByID(ctx, calendarID)
	if err != nil {
		response.WriteInternalError(w, "failed to load calendar")
		return
	}
	if cal == nil || cal.OwnerID != authKey.UserID {
		response.WriteNotFound(w, "calendar")
		return
	}

	share, err := h.shareRepo.Create(ctx, &shares.CreateShare{
		CalendarID:      cal.ID,
		CalendarName:    cal.Name,
		OwnerID:         cal.OwnerID,
		OwnerName:       cal.OwnerName,
		SharedWithID:    req.SharedWithID,
		SharedWithName:  req.SharedWithName,
		SharedWithEmail: req.SharedWithEmail,
		Permission:      req.Permission,
	})
	if errors.Is(err, shares.ErrDuplicate) {
		response.WriteError(w, http.StatusConflict, "SHARE_EXISTS", err.Error())
		return
	}
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditShareCreated, share.ID, authKey.ID,
		authKey.UserID, clientIP(r), map[string]interface{}{
			"calendar_id":    share.CalendarID,
			"shared_with_id": share.SharedWithID,
		})

	response.JSON(w, http.StatusCreated, toShareJSON(share))
}

// ListShares returns every share of a calendar the caller owns.
func (h *Handler) ListShares(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	ctx := r.Context()
	calendarID := r.PathValue("calendarId")

	cal, err := h.calendarRepo.GetByID(ctx, calendarID)
	if err != nil {
		response.WriteInternalError(w, "failed to load calendar")
		return
	}
	if cal == nil || cal.OwnerID != authKey.UserID {
		response.WriteNotFound(w, "calendar")
		return
	}

	list, err := h.shareRepo.ListForCalendar(ctx, cal.ID)
	if err != nil {
		response.WriteInternalError(w, "failed to list shares")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"shares": toSharesJSON(list),
	})
}

// ListPendingShares returns invites awaiting the caller's answer.
func (h *Handler) ListPendingShares(w http.ResponseWriter, r *http.Request) {
	authKey := requireTier(w, r, "read")
	if authKey == nil {
		return
	}

	list, err := h.shareRepo.PendingForUser(r.Context(), authKey.UserID)
	if err != nil {
		response.WriteInternalError(w, "failed to list pending shares")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"shares": toSharesJSON(list),
	})
}

// AcceptShare accepts a pending invite addressed to the caller.
func (h *Handler) AcceptShare(w http.ResponseWriter, r *http.Request) {
	h.respondShare(w, r, true)
}

// DeclineShare declines a pending invite addressed to the caller.
func (h *Handler) DeclineShare(w http.ResponseWriter, r *http.Request) {
	h.respondShare(w, r, false)
}

func (h *Handler) respondShare(w http.ResponseWriter, r *http.Request, accept bool) {
	authKey := requireTier(w, r, "write")
	if authKey == nil {
		return
	}

	ctx := r.Context()
	id := r.PathValue("shareId")

	share, err := h.shareRepo.Respond(ctx, id, authKey.UserID, accept)
	if err != nil {
		switch {
		case errors.Is(err, shares.ErrNotFound):
			response.WriteNotFound(w, "share")
		case errors.Is(err, shares.ErrWrongActor):
			response.WriteWrongActor(w)
		case errors.Is(err, shares.ErrNotPending):
			status := ""
			if existing, getErr := h.shareRepo.GetByID(ctx, id); getErr == nil && existing != nil {
				status = existing.Status
			}
			response.WriteShareNotPending(w, status)
		default:
			response.WriteInternalError(w, "failed to answer share")
		}
		return
	}

	eventType := database.AuditShareAccepted
	if !accept {
		eventType = database.AuditShareDeclined
	}
	h.auditLogger.LogWithIP(ctx, eventType, share.ID, authKey.ID,
		authKey.UserID, clientIP(r), map[string]interface{}{
			"calendar_id": share.CalendarID,
		})

	response.JSON(w, http.StatusOK, toShareJSON(share))
}
