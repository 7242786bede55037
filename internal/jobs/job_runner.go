package jobs

import (
	"context"
	"time"

	"alumni-registry-backend/internal/config"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Notifications service.NotificationDispatcher
	Workflow      service.RegistrationWorkflow
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the configuration the jobs were built with.
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

// DeliverNotifications retries queued outbox messages that are due.
func (jr *JobRunner) DeliverNotifications() {
	jr.runWithRecovery("DeliverNotifications", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		batch, err := jr.services.Notifications.DeliverDue(ctx, int32(jr.config.Notification.BatchSize))
		if err != nil {
			logger.Error("Failed to deliver queued notifications", "error", err)
			return
		}
		logger.Info("Delivered queued notifications",
			"attempted", batch.Attempted,
			"sent", batch.Sent,
			"failed", batch.Failed,
		)
	})
}

// RepairIntakes finishes or compensates intakes stuck mid-way for longer than RepairAfter.
func (jr *JobRunner) RepairIntakes() {
	jr.runWithRecovery("RepairIntakes", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		cutoff := jr.now().Add(-jr.config.Registration.RepairAfter)
		report, err := jr.services.Workflow.RepairIntakes(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to repair intakes", "error", err)
			return
		}
		logger.Info("Repaired intakes",
			"scanned", report.Scanned,
			"completed", report.Completed,
			"compensated", report.Compensated,
			"failed", report.Failed,
		)
	})
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.RepairIntakes()
	jr.DeliverNotifications()
}
