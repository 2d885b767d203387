package api

import (
	"net/http"

	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/response"
	"github.com/crmsuite/calendard/internal/server/middleware"
)

// Admin handlers are registered behind middleware.RequireTier, so they
// only need the key for audit attribution.

// ListAPIKeys returns all API keys (admin tier).
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	authKey := middleware.GetAuthenticatedKey(r)
	if authKey == nil {
		response.WriteUnauthorized(w)
		return
	}

	keys, err := h.apiKeyRepo.List(r.Context())
	if err != nil {
		response.WriteInternalError(w, "failed to list API keys")
		return
	}

	out := make([]apiKeyJSON, 0, len(keys))
	for i := range keys {
		out = append(out, toAPIKeyJSON(&keys[i]))
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"keys": out,
	})
}

type createAPIKeyRequest struct {
	Name     string `json:"name"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Tier     string `json:"tier"`
}

// CreateAPIKey mints a new API key (admin tier). The full key is
// returned exactly once.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	authKey := middleware.GetAuthenticatedKey(r)
	if authKey == nil {
		response.WriteUnauthorized(w)
		return
	}

	var req createAPIKeyRequest
	if err := parseJSON(r, &req); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}

	ctx := r.Context()
	stored, fullKey, err := h.apiKeyRepo.Create(ctx, req.Name, req.UserID, req.UserName, req.Tier)
	if err != nil {
		response.WriteValidationError(w, err.Error(), nil)
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditAPIKeyCreated, stored.ID, authKey.ID,
		authKey.UserID, clientIP(r), map[string]interface{}{
			"name":    stored.Name,
			"user_id": stored.UserID,
			"tier":    stored.Tier,
		})

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"key":      toAPIKeyJSON(stored),
		"full_key": fullKey,
	})
}

// RevokeAPIKey revokes an API key (admin tier).
func (h *Handler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	authKey := middleware.GetAuthenticatedKey(r)
	if authKey == nil {
		response.WriteUnauthorized(w)
		return
	}

	ctx := r.Context()
	id := r.PathValue("keyId")
	if err := h.apiKeyRepo.Revoke(ctx, id); err != nil {
		response.WriteNotFound(w, "api_key")
		return
	}

	h.auditLogger.LogWithIP(ctx, database.AuditAPIKeyRevoked, id, authKey.ID,
		authKey.UserID, clientIP(r), nil)

	response.JSON(w, http.StatusOK, map[string]interface{}{"revoked": true})
}

// GetAuditLog returns recent audit entries (admin tier). Query
// parameters: limit, target_id.
func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	authKey := middleware.GetAuthenticatedKey(r)
	if authKey == nil {
		response.WriteUnauthorized(w)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()

	var (
		list []database.AuditLogEntry
		err  error
	)
	if targetID := q.Get("target_id"); targetID != "" {
		list, err = h.auditLogger.GetByTargetID(ctx, targetID)
	} else {
		limit := 100
		if s := q.Get("limit"); s != "" {
			if n, convErr := parsePositiveInt(s); convErr == nil {
				limit = n
			}
		}
		list, err = h.auditLogger.GetRecent(ctx, limit)
	}
	if err != nil {
		response.WriteInternalError(w, "failed to load audit log")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"entries": list,
	})
}
