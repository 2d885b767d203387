// Package server provides route registration for calendard.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/crmsuite/calendard/internal/crypto"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/response"
	"github.com/crmsuite/calendard/internal/server/middleware"
)

// setupRoutes registers all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/health", s.handleHealth)

	// API routes with API key authentication
	apiMux := http.NewServeMux()
	s.apiHandler.RegisterRoutes(apiMux)

	apiHandler := middleware.APIKeyAuth(s.apiKeyRepo, s.rateLimiter)(apiMux)
	s.router.Handle("/api/{path...}", apiHandler)

	// First-run bootstrap: trade the admin password for an admin API key
	s.router.HandleFunc("POST /auth/bootstrap", s.handleBootstrap)
}

type bootstrapRequest struct {
	Password string `json:"password"`
	Name     string `json:"name"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// handleBootstrap mints an admin API key after verifying the admin
// password. This is the only way to obtain a key before any exist.
func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	var req bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteValidationError(w, "invalid JSON body", nil)
		return
	}

	var hash string
	err := s.db.QueryRowContext(r.Context(), `
		SELECT password_hash FROM admin_auth WHERE id = 'admin'
	`).Scan(&hash)
	if err != nil || !crypto.VerifyPassword(req.Password, hash) {
		response.WriteUnauthorized(w)
		return
	}

	name := req.Name
	if name == "" {
		name = "bootstrap admin key"
	}
	userID := req.UserID
	if userID == "" {
		userID = "admin"
	}

	stored, fullKey, err := s.apiKeyRepo.Create(r.Context(), name, userID, req.UserName, database.TierAdmin)
	if err != nil {
		response.WriteInternalError(w, "failed to create API key")
		return
	}

	s.auditLogger.Log(r.Context(), database.AuditAPIKeyCreated, stored.ID, stored.ID,
		userID, map[string]interface{}{"bootstrap": true})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"key_id":   stored.ID,
		"tier":     stored.Tier,
		"full_key": fullKey,
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  "database unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
