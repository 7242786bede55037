package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/identity"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/metrics"
	"alumni-registry-backend/internal/repository"
)

type WorkflowConfig struct {
	StoreTimeout    time.Duration
	IdentityRetries int
	LoginURL        string
}

// WorkflowDeps groups the stores and collaborators the workflow coordinates.
type WorkflowDeps struct {
	Alumni      repository.AlumniRepository
	Schools     repository.SchoolRepository
	Queue       repository.ReviewQueueRepository
	Sagas       repository.IntakeSagaRepository
	Authority   AccountAuthority
	Provisioner AccountProvisioner
	Dispatcher  NotificationDispatcher
	Generator   *identity.Generator
	Metrics     *metrics.Metrics
}

type registrationWorkflow struct {
	WorkflowDeps
	cfg WorkflowConfig
}

func NewRegistrationWorkflow(deps WorkflowDeps, cfg WorkflowConfig) RegistrationWorkflow {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 10 * time.Second
	}
	if cfg.IdentityRetries <= 0 {
		cfg.IdentityRetries = 5
	}
	if deps.Generator == nil {
		deps.Generator = identity.NewGenerator(nil)
	}
	return &registrationWorkflow{WorkflowDeps: deps, cfg: cfg}
}

// store runs one store call under the per-call timeout.
func (w *registrationWorkflow) store(ctx context.Context, op string, fn func(context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
	defer cancel()
	start := time.Now()
	err := fn(sctx)
	w.Metrics.ObserveStoreLatency(op, time.Since(start))
	return err
}

// softFailure logs and counts an error the operation tolerates.
func (w *registrationWorkflow) softFailure(op, step string, err error, warnings *[]string, args ...any) {
	logger.SoftFailure(op, step, err, args...)
	w.Metrics.IncSoftFailure(op + "." + step)
	if warnings != nil {
		*warnings = append(*warnings, fmt.Sprintf("%s: %v", step, err))
	}
}

func (w *registrationWorkflow) loadSchool(ctx context.Context, schoolID int32) (*domain.School, error) {
	var school *domain.School
	err := w.store(ctx, "schools.get", func(ctx context.Context) error {
		var err error
		school, err = w.Schools.GetByID(ctx, schoolID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("school_id", "unknown school")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load school: %v", ErrIntakeFailed, err)
	}
	return school, nil
}

// IntakeNew registers a first-time applicant. Steps run in order and each
// completed step is recorded in the intake saga before the next one starts.
func (w *registrationWorkflow) IntakeNew(ctx context.Context, in NewApplicantIntake) (*IntakeResult, error) {
	const op = "IntakeNew"
	logger.EnterMethod("RegistrationWorkflow."+op, "email", in.Profile.Email)

	in.Profile = normalizeProfile(in.Profile)
	if err := ValidateNewIntake(in); err != nil {
		w.Metrics.IncIntake("new", "invalid")
		return nil, err
	}
	school, err := w.loadSchool(ctx, in.Profile.SchoolID)
	if err != nil {
		w.Metrics.IncIntake("new", "invalid")
		return nil, err
	}

	saga := &domain.IntakeSaga{
		Email:   in.Profile.Email,
		Step:    domain.SagaStepStarted,
		Payload: in.Profile,
	}
	if err := w.store(ctx, "intake_sagas.create", func(ctx context.Context) error {
		return w.Sagas.Create(ctx, saga)
	}); err != nil {
		w.Metrics.IncIntake("new", "failed")
		return nil, fmt.Errorf("%w: failed to start intake: %v", ErrIntakeFailed, err)
	}

	// (a) account
	var accountID int32
	err = w.store(ctx, "accounts.create", func(ctx context.Context) error {
		var err error
		accountID, err = w.Authority.CreateAccount(ctx, in.Profile.Email, in.Password)
		return err
	})
	if err != nil {
		saga.Step = domain.SagaStepCompensated
		saga.LastError = err.Error()
		w.saveSaga(ctx, op, saga)
		w.Metrics.IncIntake("new", "failed")
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to create account: %v", ErrIntakeFailed, err)
	}
	saga.AccountID = &accountID
	saga.Step = domain.SagaStepAccountCreated
	if err := w.advanceSaga(ctx, op, saga); err != nil {
		return nil, w.abortIntake(ctx, saga, err)
	}
	logger.WorkflowStep(op, "account_created", "accountID", accountID, "sagaID", saga.ID)

	// (b) + (c) identity key and alumni record
	alumni, err := w.createAlumni(ctx, school, in.Profile)
	if err != nil {
		return nil, w.abortIntake(ctx, saga, err)
	}
	saga.AlumniID = &alumni.AlumniID
	saga.Step = domain.SagaStepAlumniCreated
	if err := w.advanceSaga(ctx, op, saga); err != nil {
		return nil, w.abortIntake(ctx, saga, err)
	}
	logger.WorkflowStep(op, "alumni_created", "alumniID", alumni.AlumniID, "sagaID", saga.ID)

	// (d) review item
	item, err := w.submitReview(ctx, alumni.AlumniID, alumni.Email)
	if err != nil {
		return nil, w.abortIntake(ctx, saga, err)
	}
	saga.QueueID = &item.ID
	saga.Step = domain.SagaStepQueued
	// Every row exists now; a lost saga write only leaves work for the repair job.
	if err := w.advanceSaga(ctx, op, saga); err != nil {
		w.softFailure(op, "saga_queued", err, nil, "sagaID", saga.ID)
	}
	logger.WorkflowStep(op, "queued", "queueID", item.ID, "status", item.Status)

	// (e) notification
	report := w.notifySubmission(ctx, alumni, school, "submission_received:"+saga.ID)

	saga.Step = domain.SagaStepCompleted
	if err := w.advanceSaga(ctx, op, saga); err != nil {
		w.softFailure(op, "saga_completed", err, nil, "sagaID", saga.ID)
	}

	w.Metrics.IncIntake("new", "ok")
	logger.ExitMethod("RegistrationWorkflow."+op, "alumniID", alumni.AlumniID, "queueID", item.ID)
	return &IntakeResult{Alumni: alumni, Item: item, AccountID: accountID, Notification: report}, nil
}

// IntakeExisting resubmits an alumni record found via search. No account is created.
func (w *registrationWorkflow) IntakeExisting(ctx context.Context, in ExistingApplicantIntake) (*IntakeResult, error) {
	const op = "IntakeExisting"
	logger.EnterMethod("RegistrationWorkflow."+op, "alumniID", in.AlumniID)

	in.Profile = normalizeProfile(in.Profile)
	if err := ValidateExistingIntake(in); err != nil {
		w.Metrics.IncIntake("existing", "invalid")
		return nil, err
	}
	school, err := w.loadSchool(ctx, in.Profile.SchoolID)
	if err != nil {
		w.Metrics.IncIntake("existing", "invalid")
		return nil, err
	}

	var alumni *domain.Alumni
	err = w.store(ctx, "alumni.get", func(ctx context.Context) error {
		var err error
		alumni, err = w.Alumni.GetByID(ctx, in.AlumniID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		w.Metrics.IncIntake("existing", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrAlumniNotFound, in.AlumniID)
	}
	if err != nil {
		w.Metrics.IncIntake("existing", "failed")
		return nil, fmt.Errorf("%w: failed to load alumni: %v", ErrIntakeFailed, err)
	}

	// (a) update in place; the identity key is never rewritten
	alumni.ApplyProfile(in.Profile)
	if err := w.store(ctx, "alumni.update", func(ctx context.Context) error {
		return w.Alumni.Update(ctx, alumni)
	}); err != nil {
		w.Metrics.IncIntake("existing", "failed")
		return nil, fmt.Errorf("%w: failed to update alumni: %v", ErrIntakeFailed, err)
	}
	logger.WorkflowStep(op, "alumni_updated", "alumniID", alumni.AlumniID)

	// (b) review item
	item, err := w.submitReview(ctx, alumni.AlumniID, alumni.Email)
	if err != nil {
		w.Metrics.IncIntake("existing", "failed")
		return nil, err
	}
	logger.WorkflowStep(op, "queued", "queueID", item.ID, "status", item.Status)

	// (c) notification
	key := fmt.Sprintf("submission_received:%d:%s", item.ID, uuid.NewString())
	report := w.notifySubmission(ctx, alumni, school, key)

	w.Metrics.IncIntake("existing", "ok")
	logger.ExitMethod("RegistrationWorkflow."+op, "alumniID", alumni.AlumniID, "queueID", item.ID)
	return &IntakeResult{Alumni: alumni, Item: item, Notification: report}, nil
}

// createAlumni draws identity keys until an insert succeeds or retries run out.
func (w *registrationWorkflow) createAlumni(ctx context.Context, school *domain.School, p domain.Profile) (*domain.Alumni, error) {
	for attempt := 1; attempt <= w.cfg.IdentityRetries; attempt++ {
		key, err := w.Generator.Generate(school.Code, school.State, p.GraduationYear, school.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to generate alumni id: %v", ErrIntakeFailed, err)
		}
		alumni := &domain.Alumni{AlumniID: key}
		alumni.ApplyProfile(p)

		err = w.store(ctx, "alumni.create", func(ctx context.Context) error {
			return w.Alumni.Create(ctx, alumni)
		})
		if err == nil {
			return alumni, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: failed to create alumni: %v", ErrIntakeFailed, err)
		}
		logger.Warn("Alumni id collision, drawing again", "alumniID", key, "attempt", attempt)
	}
	return nil, fmt.Errorf("%w: %w", ErrIntakeFailed, ErrIdentityExhausted)
}

// submitReview keeps at most one active item per alumni: an active item is
// superseded in place, otherwise a new item is inserted. A concurrent insert
// that wins the unique index turns this call into a supersede.
func (w *registrationWorkflow) submitReview(ctx context.Context, alumniID, email string) (*domain.ReviewItem, error) {
	for attempt := 0; attempt < 3; attempt++ {
		var active *domain.ReviewItem
		err := w.store(ctx, "review_queue.get_active", func(ctx context.Context) error {
			var err error
			active, err = w.Queue.GetActiveByAlumni(ctx, alumniID)
			return err
		})
		switch {
		case err == nil:
			var item *domain.ReviewItem
			err = w.store(ctx, "review_queue.supersede", func(ctx context.Context) error {
				var err error
				item, err = w.Queue.Supersede(ctx, active.ID, email)
				return err
			})
			if err == nil {
				logger.Info("Superseded active review item", "queueID", item.ID, "alumniID", alumniID)
				return item, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: failed to supersede review item: %v", ErrIntakeFailed, err)
			}
			// Decided in the meantime; fall through to a fresh insert next round.
			continue
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: failed to look up review item: %v", ErrIntakeFailed, err)
		}

		status := domain.ReviewStatusPending
		var prior int32
		err = w.store(ctx, "review_queue.list", func(ctx context.Context) error {
			var err error
			_, prior, err = w.Queue.List(ctx, domain.ReviewFilter{AlumniID: alumniID, Limit: 1})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list review history: %v", ErrIntakeFailed, err)
		}
		if prior > 0 {
			status = domain.ReviewStatusPendingUpdate
		}

		item := &domain.ReviewItem{AlumniID: alumniID, Email: email, Status: status}
		err = w.store(ctx, "review_queue.create", func(ctx context.Context) error {
			return w.Queue.Create(ctx, item)
		})
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: failed to create review item: %v", ErrIntakeFailed, err)
		}
		logger.Debug("Concurrent submission won the active slot, superseding", "alumniID", alumniID)
	}
	return nil, fmt.Errorf("%w: review item for %s kept changing", ErrIntakeFailed, alumniID)
}

func (w *registrationWorkflow) notifySubmission(ctx context.Context, alumni *domain.Alumni, school *domain.School, key string) DeliveryReport {
	return w.Dispatcher.Send(ctx, domain.NotificationSubmissionReceived,
		domain.Recipient{Email: alumni.Email, Name: alumni.FullName},
		domain.NotificationContext{
			Name:        alumni.FullName,
			AlumniID:    alumni.AlumniID,
			SchoolName:  school.Name,
			LoginURL:    w.cfg.LoginURL,
			MessageKey:  key,
			SubmittedOn: alumni.UpdatedOn,
		})
}

// Approve moves an active item to approved, ensures the account and sends the
// approval message. See decide for how a zero-row update is handled.
func (w *registrationWorkflow) Approve(ctx context.Context, session *domain.AuthSession, queueID int32) (*DecisionResult, error) {
	return w.decide(ctx, session, queueID, domain.ReviewStatusApproved)
}

// Reject moves an active item to rejected and sends the rejection message.
func (w *registrationWorkflow) Reject(ctx context.Context, session *domain.AuthSession, queueID int32) (*DecisionResult, error) {
	return w.decide(ctx, session, queueID, domain.ReviewStatusRejected)
}

// decide applies a terminal status. When the conditional update matches zero
// rows, the item is re-read:
//   - already at the requested status: no state change, downstream steps re-run
//     idempotently (account ensure, keyed notification);
//   - at the opposite terminal status: no-op, downstream steps are skipped;
//   - still active, or the update failed or timed out: soft failure, continue.
func (w *registrationWorkflow) decide(ctx context.Context, session *domain.AuthSession, queueID int32, status domain.ReviewStatus) (*DecisionResult, error) {
	op := "Approve"
	if status == domain.ReviewStatusRejected {
		op = "Reject"
	}
	logger.EnterMethod("RegistrationWorkflow."+op, "queueID", queueID)

	var decidedBy int32
	if session != nil {
		decidedBy = session.AccountID
	}
	result := &DecisionResult{}

	var updated *domain.ReviewItem
	updateErr := w.store(ctx, "review_queue.decide", func(ctx context.Context) error {
		var err error
		updated, err = w.Queue.Decide(ctx, queueID, status, decidedBy)
		return err
	})

	if updateErr == nil {
		result.Item = updated
		result.Changed = true
		logger.WorkflowStep(op, "status_updated", "queueID", queueID, "status", status)
	} else {
		var current *domain.ReviewItem
		readErr := w.store(ctx, "review_queue.get", func(ctx context.Context) error {
			var err error
			current, err = w.Queue.GetByID(ctx, queueID)
			return err
		})
		if errors.Is(readErr, repository.ErrNotFound) {
			w.Metrics.IncDecision(string(status), "not_found")
			return nil, fmt.Errorf("%w: %d", ErrQueueItemNotFound, queueID)
		}
		if readErr != nil {
			w.Metrics.IncDecision(string(status), "failed")
			return nil, fmt.Errorf("failed to update or read review item %d: %w", queueID, errors.Join(updateErr, readErr))
		}
		result.Item = current

		switch {
		case current.Status == status:
			logger.Info("Review item already decided, re-running follow-up steps", "queueID", queueID, "status", status)
		case current.Status.IsTerminal():
			w.Metrics.IncDecision(string(status), "conflict")
			result.Warnings = append(result.Warnings, fmt.Sprintf("item is already %s", current.Status))
			logger.Warn("Review item already has the opposite decision", "queueID", queueID, "current", current.Status, "requested", status)
			return result, nil
		default:
			// The row is still active: the write was denied, lost, or timed out.
			w.softFailure(op, "update_status", updateErr, &result.Warnings, "queueID", queueID)
		}
	}

	item := result.Item
	alumni, school := w.decisionContext(ctx, op, item, &result.Warnings)

	kind := domain.NotificationRejected
	if status == domain.ReviewStatusApproved {
		kind = domain.NotificationApproved
		var acct *domain.Account
		err := w.store(ctx, "accounts.ensure", func(ctx context.Context) error {
			var err error
			acct, err = w.Provisioner.Ensure(ctx, item.AlumniID, item.Email)
			return err
		})
		if err != nil {
			w.softFailure(op, "ensure_account", err, &result.Warnings, "queueID", queueID, "alumniID", item.AlumniID)
		} else {
			result.Account = acct
			logger.WorkflowStep(op, "account_ensured", "accountID", acct.ID, "alumniID", item.AlumniID)
		}
	}

	nc := domain.NotificationContext{
		AlumniID:   item.AlumniID,
		LoginURL:   w.cfg.LoginURL,
		MessageKey: fmt.Sprintf("%s:%d", kind, item.ID),
	}
	to := domain.Recipient{Email: item.Email}
	if alumni != nil {
		nc.Name = alumni.FullName
		to.Name = alumni.FullName
	}
	if school != nil {
		nc.SchoolName = school.Name
	}
	report := w.Dispatcher.Send(ctx, kind, to, nc)
	result.Notification = &report

	outcome := "changed"
	if !result.Changed {
		outcome = "noop"
	}
	if len(result.Warnings) > 0 {
		outcome = "soft_failure"
	}
	w.Metrics.IncDecision(string(status), outcome)
	logger.ExitMethod("RegistrationWorkflow."+op, "queueID", queueID, "status", item.Status, "changed", result.Changed)
	return result, nil
}

// decisionContext loads the alumni and school used to render the decision
// message. Missing rows degrade the message, not the decision.
func (w *registrationWorkflow) decisionContext(ctx context.Context, op string, item *domain.ReviewItem, warnings *[]string) (*domain.Alumni, *domain.School) {
	var alumni *domain.Alumni
	err := w.store(ctx, "alumni.get", func(ctx context.Context) error {
		var err error
		alumni, err = w.Alumni.GetByID(ctx, item.AlumniID)
		return err
	})
	if err != nil {
		w.softFailure(op, "load_alumni", err, warnings, "alumniID", item.AlumniID)
		return nil, nil
	}
	var school *domain.School
	err = w.store(ctx, "schools.get", func(ctx context.Context) error {
		var err error
		school, err = w.Schools.GetByID(ctx, alumni.SchoolID)
		return err
	})
	if err != nil {
		w.softFailure(op, "load_school", err, warnings, "schoolID", alumni.SchoolID)
		return alumni, nil
	}
	return alumni, school
}

// BulkDeleteQueueItems removes the given review items outright.
func (w *registrationWorkflow) BulkDeleteQueueItems(ctx context.Context, ids []int32) (int64, error) {
	var n int64
	err := w.store(ctx, "review_queue.delete", func(ctx context.Context) error {
		var err error
		n, err = w.Queue.DeleteByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete review items: %w", err)
	}
	logger.Info("Deleted review items", "requested", len(ids), "deleted", n)
	return n, nil
}

// BulkDeleteAlumni removes the given alumni records and, with them, their review items.
func (w *registrationWorkflow) BulkDeleteAlumni(ctx context.Context, alumniIDs []string) (int64, error) {
	var n int64
	err := w.store(ctx, "alumni.delete", func(ctx context.Context) error {
		var err error
		n, err = w.Alumni.DeleteByIDs(ctx, alumniIDs)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete alumni: %w", err)
	}
	logger.Info("Deleted alumni records", "requested", len(alumniIDs), "deleted", n)
	return n, nil
}
