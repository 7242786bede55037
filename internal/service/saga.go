package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/repository"
)

const repairBatchSize = 100

// advanceSaga persists the saga's new step.
func (w *registrationWorkflow) advanceSaga(ctx context.Context, op string, saga *domain.IntakeSaga) error {
	err := w.store(ctx, "intake_sagas.save", func(ctx context.Context) error {
		return w.Sagas.Save(ctx, saga)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to record intake step %s: %v", ErrIntakeFailed, saga.Step, err)
	}
	return nil
}

// saveSaga is advanceSaga for callers that can only log the failure.
func (w *registrationWorkflow) saveSaga(ctx context.Context, op string, saga *domain.IntakeSaga) {
	if err := w.advanceSaga(ctx, op, saga); err != nil {
		w.softFailure(op, "saga_save", err, nil, "sagaID", saga.ID, "step", saga.Step)
	}
}

// abortIntake compensates a failed intake and returns the hard error to report.
func (w *registrationWorkflow) abortIntake(ctx context.Context, saga *domain.IntakeSaga, cause error) error {
	w.Metrics.IncIntake("new", "failed")
	logger.Error("Intake failed, compensating", "sagaID", saga.ID, "step", saga.Step, "error", cause)

	// Compensation must run even when the caller's context is already done.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.StoreTimeout)
	defer cancel()

	saga.LastError = cause.Error()
	if err := w.compensate(cctx, saga); err != nil {
		w.softFailure("IntakeNew", "compensate", err, nil, "sagaID", saga.ID)
	}
	if errors.Is(cause, ErrIntakeFailed) {
		return cause
	}
	return fmt.Errorf("%w: %v", ErrIntakeFailed, cause)
}

// compensate undoes every row the saga recorded, newest first. On failure the
// saga keeps its step so RepairIntakes can try again.
func (w *registrationWorkflow) compensate(ctx context.Context, saga *domain.IntakeSaga) error {
	if saga.QueueID != nil {
		if err := w.store(ctx, "review_queue.delete", func(ctx context.Context) error {
			_, err := w.Queue.DeleteByIDs(ctx, []int32{*saga.QueueID})
			return err
		}); err != nil {
			w.saveSaga(ctx, "Compensate", saga)
			return fmt.Errorf("failed to delete review item %d: %w", *saga.QueueID, err)
		}
	}
	if saga.AlumniID != nil {
		if err := w.store(ctx, "alumni.delete", func(ctx context.Context) error {
			_, err := w.Alumni.DeleteByIDs(ctx, []string{*saga.AlumniID})
			return err
		}); err != nil {
			w.saveSaga(ctx, "Compensate", saga)
			return fmt.Errorf("failed to delete alumni %s: %w", *saga.AlumniID, err)
		}
	}
	if saga.AccountID != nil {
		err := w.store(ctx, "accounts.delete", func(ctx context.Context) error {
			return w.Authority.DeleteAccount(ctx, *saga.AccountID)
		})
		// Already gone (or linked by an approval) is fine.
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			w.saveSaga(ctx, "Compensate", saga)
			return fmt.Errorf("failed to delete account %d: %w", *saga.AccountID, err)
		}
	}

	saga.Step = domain.SagaStepCompensated
	w.saveSaga(ctx, "Compensate", saga)
	w.Metrics.IncSagaRepair("compensated")
	logger.WorkflowStep("Compensate", "compensated", "sagaID", saga.ID)
	return nil
}

// RepairIntakes finishes or rolls back intakes that stopped before completing.
// Sagas that got as far as the alumni record are finished; earlier ones are
// compensated. Every action is idempotent, so overlapping runs are safe.
func (w *registrationWorkflow) RepairIntakes(ctx context.Context, olderThan time.Time) (*RepairReport, error) {
	logger.EnterMethod("RegistrationWorkflow.RepairIntakes", "olderThan", olderThan)

	var open []domain.IntakeSaga
	err := w.store(ctx, "intake_sagas.list_open", func(ctx context.Context) error {
		var err error
		open, err = w.Sagas.ListOpen(ctx, olderThan, repairBatchSize)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open intakes: %w", err)
	}

	report := &RepairReport{Scanned: len(open)}
	for i := range open {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		saga := &open[i]
		switch saga.Step {
		case domain.SagaStepAlumniCreated, domain.SagaStepQueued:
			if err := w.finishIntake(ctx, saga); err != nil {
				report.Failed++
				w.Metrics.IncSagaRepair("failed")
				w.softFailure("RepairIntakes", "finish", err, nil, "sagaID", saga.ID)
				continue
			}
			report.Completed++
		default:
			saga.LastError = "abandoned before alumni record was created"
			if err := w.compensate(ctx, saga); err != nil {
				report.Failed++
				w.Metrics.IncSagaRepair("failed")
				w.softFailure("RepairIntakes", "compensate", err, nil, "sagaID", saga.ID)
				continue
			}
			report.Compensated++
		}
	}

	logger.ExitMethod("RegistrationWorkflow.RepairIntakes",
		"scanned", report.Scanned, "completed", report.Completed,
		"compensated", report.Compensated, "failed", report.Failed)
	return report, nil
}

func (w *registrationWorkflow) finishIntake(ctx context.Context, saga *domain.IntakeSaga) error {
	if saga.AlumniID == nil {
		return fmt.Errorf("saga %s at step %s has no alumni id", saga.ID, saga.Step)
	}

	var alumni *domain.Alumni
	err := w.store(ctx, "alumni.get", func(ctx context.Context) error {
		var err error
		alumni, err = w.Alumni.GetByID(ctx, *saga.AlumniID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		// The record was removed since; nothing left to finish.
		saga.AlumniID = nil
		saga.QueueID = nil
		return w.compensate(ctx, saga)
	}
	if err != nil {
		return fmt.Errorf("failed to load alumni: %w", err)
	}

	if saga.Step == domain.SagaStepAlumniCreated {
		item, err := w.adoptOrSubmit(ctx, alumni)
		if err != nil {
			return err
		}
		saga.QueueID = &item.ID
		saga.Step = domain.SagaStepQueued
		if err := w.advanceSaga(ctx, "RepairIntakes", saga); err != nil {
			return err
		}
	}

	school := &domain.School{}
	if s, err := w.Schools.GetByID(ctx, alumni.SchoolID); err == nil {
		school = s
	}
	// Keyed by saga id, so a message the original call already sent is not repeated.
	w.notifySubmission(ctx, alumni, school, "submission_received:"+saga.ID)

	saga.Step = domain.SagaStepCompleted
	saga.LastError = ""
	if err := w.advanceSaga(ctx, "RepairIntakes", saga); err != nil {
		return err
	}
	w.Metrics.IncSagaRepair("completed")
	logger.WorkflowStep("RepairIntakes", "completed", "sagaID", saga.ID, "alumniID", alumni.AlumniID)
	return nil
}

// adoptOrSubmit reuses an active item the interrupted intake already queued,
// so its first submission stays pending.
func (w *registrationWorkflow) adoptOrSubmit(ctx context.Context, alumni *domain.Alumni) (*domain.ReviewItem, error) {
	var active *domain.ReviewItem
	err := w.store(ctx, "review_queue.get_active", func(ctx context.Context) error {
		var err error
		active, err = w.Queue.GetActiveByAlumni(ctx, alumni.AlumniID)
		return err
	})
	switch {
	case err == nil:
		logger.WorkflowStep("RepairIntakes", "adopt_review_item", "queueID", active.ID, "alumniID", alumni.AlumniID)
		return active, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to look up review item: %w", err)
	}
	return w.submitReview(ctx, alumni.AlumniID, alumni.Email)
}
