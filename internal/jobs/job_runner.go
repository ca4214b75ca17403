package jobs

import (
	"database/sql"

	"studyhub-backend/internal/config"
	"studyhub-backend/internal/logger"
	"studyhub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs. The jobs run cross-aggregate
// sweep queries straight against the database rather than through the
// per-aggregate repositories.
type JobRunner struct {
	db     *sql.DB
	email  service.EmailService
	config *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(db *sql.DB, email service.EmailService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		db:     db,
		email:  email,
		config: cfg,
	}
}

// Config exposes the configuration for the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.CompleteExpiredSessions()
	jr.RemindPendingApprovals()
}
