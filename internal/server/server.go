// Package server provides the HTTP server and routing for calendard.
package server

import (
	"net/http"

	"github.com/crmsuite/calendard/internal/api"
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
	"github.com/crmsuite/calendard/internal/util"
	"github.com/crmsuite/calendard/internal/workers"
)

// Server is the main HTTP server for calendard.
type Server struct {
	config          *config.Config
	db              *database.DB
	router          *http.ServeMux
	apiKeyHasher    *crypto.APIKeyHasher
	apiKeyRepo      *apikeys.Repository
	calendarRepo    *calendars.Repository
	entryRepo       *entries.Repository
	shareRepo       *shares.Repository
	scheduleRepo    *schedules.Repository
	prefsStore      *prefs.Store
	auditLogger     *audit.Logger
	rateLimiter     *middleware.RateLimiter
	displayFormat   *util.DisplayFormatter
	apiHandler      *api.Handler
	retentionWorker *workers.RetentionWorker
}

// New creates a new Server instance.
func New(cfg *config.Config, db *database.DB) (*Server, error) {
	apiKeyHasher, err := crypto.NewAPIKeyHasher(cfg.Auth.SecretKey)
	if err != nil {
		return nil, err
	}

	displayFormat, err := util.NewDisplayFormatter(
		cfg.Display.Timezone,
		cfg.Display.DateFormat,
		cfg.Display.TimeFormat,
		cfg.Display.DatetimeFormat,
	)
	if err != nil {
		return nil, err
	}
	util.SetDefaultFormatter(displayFormat)

	apiKeyRepo := apikeys.NewRepository(db, apiKeyHasher)
	calendarRepo := calendars.NewRepository(db)
	entryRepo := entries.NewRepository(db)
	shareRepo := shares.NewRepository(db)
	scheduleRepo := schedules.NewRepository(db)
	prefsStore := prefs.NewStore(db)
	auditLogger := audit.NewLogger(db)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimits)

	apiHandler := api.NewHandler(
		cfg,
		calendarRepo,
		entryRepo,
		shareRepo,
		scheduleRepo,
		apiKeyRepo,
		prefsStore,
		auditLogger,
	)

	retentionWorker := workers.NewRetentionWorker(db, &cfg.Retention,
		shareRepo, entryRepo, auditLogger, rateLimiter)

	s := &Server{
		config:          cfg,
		db:              db,
		router:          http.NewServeMux(),
		apiKeyHasher:    apiKeyHasher,
		apiKeyRepo:      apiKeyRepo,
		calendarRepo:    calendarRepo,
		entryRepo:       entryRepo,
		shareRepo:       shareRepo,
		scheduleRepo:    scheduleRepo,
		prefsStore:      prefsStore,
		auditLogger:     auditLogger,
		rateLimiter:     rateLimiter,
		displayFormat:   displayFormat,
		apiHandler:      apiHandler,
		retentionWorker: retentionWorker,
	}

	if err := s.seedAdminPassword(); err != nil {
		return nil, err
	}

	s.setupRoutes()

	return s, nil
}

// seedAdminPassword stores the configured admin password hash so the
// bootstrap endpoint can verify against it.
func (s *Server) seedAdminPassword() error {
	if s.config.Auth.AdminPassword == "" {
		return nil
	}

	hash, err := crypto.HashPassword(s.config.Auth.AdminPassword)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO admin_auth (id, password_hash)
		VALUES ('admin', ?)
		ON CONFLICT(id) DO UPDATE SET password_hash = excluded.password_hash,
		                              updated_at = datetime('now')
	`, hash)
	return err
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	// Middleware chain, applied in reverse order
	var handler http.Handler = s.router

	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CORS(handler)
	handler = middleware.SecurityHeaders(handler)

	return handler
}

// StartBackgroundWorkers starts all background workers.
func (s *Server) StartBackgroundWorkers() error {
	if err := s.retentionWorker.Start(); err != nil {
		return err
	}

	util.Info("Background workers started")
	return nil
}

// Stop gracefully stops the server's background work.
func (s *Server) Stop() {
	s.retentionWorker.Stop()
}

// DB returns the database connection.
func (s *Server) DB() *database.DB {
	return s.db
}

// Config returns the server configuration.
func (s *Server) Config() *config.Config {
	return s.config
}

// APIKeyRepo returns the API key repository.
func (s *Server) APIKeyRepo() *apikeys.Repository {
	return s.apiKeyRepo
}
