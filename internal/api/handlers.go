// Package api provides REST API handlers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/crmsuite/calendard/internal/apikeys"
	"github.com/crmsuite/calendard/internal/audit"
	"github.com/crmsuite/calendard/internal/calendars"
	"github.com/crmsuite/calendard/internal/config"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/entries"
	"github.com/crmsuite/calendard/internal/prefs"
	"github.com/crmsuite/calendard/internal/response"
	"github.com/crmsuite/calendard/internal/schedules"
	"github.com/crmsuite/calendard/internal/server/middleware"
	"github.com/crmsuite/calendard/internal/shares"
)

// Handler provides REST API handlers.
type Handler struct {
	config       *config.Config
	calendarRepo *calendars.Repository
	entryRepo    *entries.Repository
	shareRepo    *shares.Repository
	scheduleRepo *schedules.Repository
	apiKeyRepo   *apikeys.Repository
	prefsStore   *prefs.Store
	auditLogger  *audit.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	cfg *config.Config,
	calendarRepo *calendars.Repository,
	entryRepo *entries.Repository,
	shareRepo *shares.Repository,
	scheduleRepo *schedules.Repository,
	apiKeyRepo *apikeys.Repository,
	prefsStore *prefs.Store,
	auditLogger *audit.Logger,
) *Handler {
	return &Handler{
		config:       cfg,
		calendarRepo: calendarRepo,
		entryRepo:    entryRepo,
		shareRepo:    shareRepo,
		scheduleRepo: scheduleRepo,
		apiKeyRepo:   apiKeyRepo,
		prefsStore:   prefsStore,
		auditLogger:  auditLogger,
	}
}

// RegisterRoutes registers API routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check (no auth)
	mux.HandleFunc("GET /api/health", h.Health)

	// View projection (read tier)
	mux.HandleFunc("GET /api/view", h.GetView)

	// Calendars
	mux.HandleFunc("GET /api/calendars", h.ListCalendars)
	mux.HandleFunc("POST /api/calendars", h.CreateCalendar)
	mux.HandleFunc("GET /api/calendars/{calendarId}", h.GetCalendar)
	mux.HandleFunc("PUT /api/calendars/{calendarId}", h.UpdateCalendar)
	mux.HandleFunc("DELETE /api/calendars/{calendarId}", h.DeleteCalendar)

	// Shares
	mux.HandleFunc("POST /api/calendars/{calendarId}/shares", h.CreateShare)
	mux.HandleFunc("GET /api/calendars/{calendarId}/shares", h.ListShares)
	mux.HandleFunc("GET /api/shares/pending", h.ListPendingShares)
	mux.HandleFunc("POST /api/shares/{shareId}/accept", h.AcceptShare)
	mux.HandleFunc("POST /api/shares/{shareId}/decline", h.DeclineShare)

	// Entries
	mux.HandleFunc("GET /api/entries", h.ListEntries)
	mux.HandleFunc("POST /api/entries", h.CreateEntry)
	mux.HandleFunc("GET /api/entries/{entryId}", h.GetEntry)
	mux.HandleFunc("PUT /api/entries/{entryId}", h.UpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{entryId}", h.DeleteEntry)
	mux.HandleFunc("POST /api/entries/{entryId}/complete", h.CompleteEntry)

	// Schedule and availability
	mux.HandleFunc("GET /api/schedule", h.GetSchedule)
	mux.HandleFunc("PUT /api/schedule", h.SaveSchedule)
	mux.HandleFunc("GET /api/availability/check", h.CheckAvailability)
	mux.HandleFunc("GET /api/availability/slots", h.ListSlots)

	// Preferences
	mux.HandleFunc("GET /api/prefs", h.GetPrefs)
	mux.HandleFunc("PUT /api/prefs", h.SavePrefs)

	// iCalendar feed
	mux.HandleFunc("GET /api/feed.ics", h.ExportFeed)

	// Admin endpoints, gated to the admin tier as a whole
	adminOnly := middleware.RequireTier(database.TierAdmin)
	mux.Handle("GET /api/admin/keys", adminOnly(http.HandlerFunc(h.ListAPIKeys)))
	mux.Handle("POST /api/admin/keys", adminOnly(http.HandlerFunc(h.CreateAPIKey)))
	mux.Handle("POST /api/admin/keys/{keyId}/revoke", adminOnly(http.HandlerFunc(h.RevokeAPIKey)))
	mux.Handle("GET /api/admin/audit", adminOnly(http.HandlerFunc(h.GetAuditLog)))
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

// parseJSON decodes a JSON request body.
func parseJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// requireTier checks if the authenticated key has at least the required tier.
func requireTier(w http.ResponseWriter, r *http.Request, requiredTier string) *apikeys.AuthenticatedKey {
	authKey := middleware.GetAuthenticatedKey(r)
	if authKey == nil {
		response.WriteUnauthorized(w)
		return nil
	}

	tierRank := map[string]int{"read": 1, "write": 2, "admin": 3}
	if tierRank[authKey.Tier] < tierRank[requiredTier] {
		response.WriteInsufficientPermissions(w, authKey.Tier, r.URL.Path)
		return nil
	}

	return authKey
}

// parsePositiveInt parses a strictly positive integer.
func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive: %d", n)
	}
	return n, nil
}

// clientIP extracts the caller's address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
