// Package workers provides background maintenance jobs.
package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crmsuite/calendard/internal/audit"
	"github.com/crmsuite/calendard/internal/config"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/entries"
	"github.com/crmsuite/calendard/internal/server/middleware"
	"github.com/crmsuite/calendard/internal/shares"
	"github.com/crmsuite/calendard/internal/util"
)

// RetentionWorker purges aged data on a cron schedule: declined shares,
// completed tasks, old audit entries, and idle rate-limit buckets.
type RetentionWorker struct {
	cron        *cron.Cron
	db          *database.DB
	config      *config.RetentionConfig
	shareRepo   *shares.Repository
	entryRepo   *entries.Repository
	auditLogger *audit.Logger
	rateLimiter *middleware.RateLimiter
}

// NewRetentionWorker creates a retention worker.
func NewRetentionWorker(
	db *database.DB,
	cfg *config.RetentionConfig,
	shareRepo *shares.Repository,
	entryRepo *entries.Repository,
	auditLogger *audit.Logger,
	rateLimiter *middleware.RateLimiter,
) *RetentionWorker {
	return &RetentionWorker{
		cron:        cron.New(),
		db:          db,
		config:      cfg,
		shareRepo:   shareRepo,
		entryRepo:   entryRepo,
		auditLogger: auditLogger,
		rateLimiter: rateLimiter,
	}
}

// Start schedules the retention job and kicks off the cron loop.
func (w *RetentionWorker) Start() error {
	if !w.config.Enabled {
		util.Info("Retention worker disabled")
		return nil
	}

	if _, err := w.cron.AddFunc(w.config.Schedule, w.Run); err != nil {
		return err
	}

	w.cron.Start()
	util.Info("Retention worker started",
		"schedule", w.config.Schedule,
		"declined_shares_days", w.config.DeclinedSharesDays,
		"completed_tasks_days", w.config.CompletedTasksDays,
		"audit_days", w.config.AuditLogDays,
	)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (w *RetentionWorker) Stop() {
	<-w.cron.Stop().Done()
	util.Info("Retention worker stopped")
}

// Run performs one retention pass. Exported so operators can trigger it
// out of schedule.
func (w *RetentionWorker) Run() {
	ctx := context.Background()

	if n, err := w.shareRepo.PurgeDeclined(ctx, w.config.DeclinedSharesDays); err != nil {
		util.Error("Failed to purge declined shares", "error", err)
	} else if n > 0 {
		util.Info("Purged declined shares", "count", n)
	}

	if n, err := w.entryRepo.PurgeCompletedTasks(ctx, w.config.CompletedTasksDays); err != nil {
		util.Error("Failed to purge completed tasks", "error", err)
	} else if n > 0 {
		util.Info("Purged completed tasks", "count", n)
	}

	if n, err := w.auditLogger.DeleteOlderThan(ctx, w.config.AuditLogDays); err != nil {
		util.Error("Failed to purge audit log", "error", err)
	} else if n > 0 {
		util.Info("Purged audit entries", "count", n)
	}

	if w.rateLimiter != nil {
		w.rateLimiter.Cleanup(time.Hour)
	}

	w.maybeVacuum(ctx)
}

// maybeVacuum reclaims space at most once per day.
func (w *RetentionWorker) maybeVacuum(ctx context.Context) {
	var lastVacuum string
	err := w.db.QueryRowContext(ctx, `
		SELECT value FROM settings WHERE key = 'last_vacuum'
	`).Scan(&lastVacuum)

	if err == nil {
		lastTime, _ := time.Parse(time.RFC3339, lastVacuum)
		if time.Since(lastTime) < 24*time.Hour {
			return
		}
	}

	util.Info("Running database VACUUM")
	if err := w.db.Vacuum(); err != nil {
		util.Error("Failed to VACUUM database", "error", err)
		return
	}

	_, err = w.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value)
		VALUES ('last_vacuum', ?)
	`, time.Now().Format(time.RFC3339))

	if err != nil {
		util.Error("Failed to update last vacuum time", "error", err)
	}
}
