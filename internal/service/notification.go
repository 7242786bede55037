package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/metrics"
	"alumni-registry-backend/internal/repository"
)

const signature = "\n\nBest regards,\nThe Alumni Network Team"

// retryBackoff is the delay before the next attempt after n failed attempts.
func retryBackoff(n int32) time.Duration {
	return time.Duration(n*n) * 30 * time.Second
}

type DispatcherConfig struct {
	Timeout     time.Duration
	MaxAttempts int32
	LoginURL    string
}

type dispatcher struct {
	outbox    repository.OutboxRepository
	logs      repository.EmailLogRepository
	transport MailTransport
	cfg       DispatcherConfig
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewNotificationDispatcher writes every message to the outbox and makes one
// bounded delivery attempt. Pending messages are retried by DeliverDue.
func NewNotificationDispatcher(
	outbox repository.OutboxRepository,
	logs repository.EmailLogRepository,
	transport MailTransport,
	cfg DispatcherConfig,
	m *metrics.Metrics,
) NotificationDispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if transport == nil {
		transport = LogTransport{}
	}
	return &dispatcher{
		outbox:    outbox,
		logs:      logs,
		transport: transport,
		cfg:       cfg,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func render(kind domain.NotificationKind, to domain.Recipient, nc domain.NotificationContext) (string, string, error) {
	name := nc.Name
	if name == "" {
		name = to.Name
	}
	switch kind {
	case domain.NotificationSubmissionReceived:
		subject := "We received your alumni registration"
		body := fmt.Sprintf("Hello %s,\n\nThank you for registering with the alumni network. Your submission for %s is now awaiting review by an administrator. We will email you once a decision has been made.", name, nc.SchoolName)
		return subject, body + signature, nil
	case domain.NotificationApproved:
		subject := "Your alumni registration has been approved"
		body := fmt.Sprintf("Hello %s,\n\nYour registration for %s has been approved.\n\nYour alumni ID is: %s\n\nYou can sign in at %s using this email address.", name, nc.SchoolName, nc.AlumniID, nc.LoginURL)
		return subject, body + signature, nil
	case domain.NotificationRejected:
		subject := "Update on your alumni registration"
		body := fmt.Sprintf("Hello %s,\n\nAfter review, we were unable to approve your registration for %s at this time. If you believe this is a mistake, please reply to this email or submit your details again.", name, nc.SchoolName)
		return subject, body + signature, nil
	}
	return "", "", fmt.Errorf("unknown notification kind %q", kind)
}

func (d *dispatcher) Send(ctx context.Context, kind domain.NotificationKind, to domain.Recipient, nc domain.NotificationContext) DeliveryReport {
	logger.EnterMethod("Dispatcher.Send", "kind", kind, "to", to.Email)

	if nc.LoginURL == "" {
		nc.LoginURL = d.cfg.LoginURL
	}
	key := nc.MessageKey
	if key == "" {
		key = fmt.Sprintf("%s:%s", kind, uuid.NewString())
	}
	report := DeliveryReport{MessageKey: key}

	subject, body, err := render(kind, to, nc)
	if err != nil {
		logger.SoftFailure("Dispatcher.Send", "render", err, "kind", kind)
		d.metrics.IncNotification(string(kind), "render_failed")
		report.Error = err.Error()
		return report
	}

	msg := &domain.OutboxMessage{
		MessageKey: key,
		Kind:       kind,
		ToEmail:    to.Email,
		ToName:     to.Name,
		Subject:    subject,
		Body:       body,
		Status:     domain.OutboxStatusPending,
		// Held back past the inline attempt so DeliverDue does not race it.
		NextAttemptOn: d.now().Add(d.cfg.Timeout),
	}

	err = d.outbox.Enqueue(ctx, msg)
	switch {
	case err == nil:
		report.Queued = true
		d.attempt(ctx, msg, &report)
	case errors.Is(err, repository.ErrDuplicate):
		// Already enqueued by an earlier call; the worker owns any retry.
		report.Duplicate = true
		if existing, gerr := d.outbox.GetByKey(ctx, key); gerr == nil {
			report.Queued = existing.Status == domain.OutboxStatusPending
			report.Delivered = existing.Status == domain.OutboxStatusSent
		}
		logger.Debug("Notification already enqueued", "messageKey", key)
	default:
		logger.SoftFailure("Dispatcher.Send", "enqueue", err, "messageKey", key)
		d.attemptDirect(ctx, msg, &report)
	}

	logger.ExitMethod("Dispatcher.Send", "messageKey", key, "delivered", report.Delivered)
	return report
}

// deliver makes one transport call bounded by the configured timeout and
// appends an audit entry either way.
func (d *dispatcher) deliver(ctx context.Context, msg *domain.OutboxMessage) (string, error) {
	dctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	messageID, err := d.transport.Deliver(dctx, OutboundEmail{
		ToEmail: msg.ToEmail,
		ToName:  msg.ToName,
		Subject: msg.Subject,
		Body:    msg.Body,
		Type:    msg.Kind,
	})

	entry := &domain.EmailLog{
		ToEmail:   msg.ToEmail,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Type:      msg.Kind,
		Status:    domain.EmailDeliverySent,
		MessageID: messageID,
	}
	if err != nil {
		entry.Status = domain.EmailDeliveryFailed
		entry.Error = err.Error()
		d.metrics.IncNotification(string(msg.Kind), "failed")
	} else {
		d.metrics.IncNotification(string(msg.Kind), "sent")
	}
	if lerr := d.logs.Append(ctx, entry); lerr != nil {
		logger.Warn("Failed to write email log", "messageKey", msg.MessageKey, "error", lerr)
	}
	return messageID, err
}

func (d *dispatcher) attempt(ctx context.Context, msg *domain.OutboxMessage, report *DeliveryReport) {
	messageID, err := d.deliver(ctx, msg)
	msg.Attempts++
	if err == nil {
		report.Delivered = true
		report.Queued = false
		report.MessageID = messageID
		if merr := d.outbox.MarkSent(ctx, msg.ID, d.now()); merr != nil {
			logger.Warn("Failed to mark outbox message sent", "messageKey", msg.MessageKey, "error", merr)
		}
		return
	}

	report.Error = err.Error()
	giveUp := msg.Attempts >= d.cfg.MaxAttempts
	report.Queued = !giveUp
	logger.SoftFailure("Dispatcher.Send", "deliver", err, "messageKey", msg.MessageKey, "attempts", msg.Attempts, "giveUp", giveUp)
	next := d.now().Add(retryBackoff(msg.Attempts))
	if merr := d.outbox.MarkAttemptFailed(ctx, msg.ID, err.Error(), next, giveUp); merr != nil {
		logger.Warn("Failed to record outbox attempt", "messageKey", msg.MessageKey, "error", merr)
	}
}

// attemptDirect is the fallback when the outbox is unavailable: one attempt,
// then log-only.
func (d *dispatcher) attemptDirect(ctx context.Context, msg *domain.OutboxMessage, report *DeliveryReport) {
	messageID, err := d.deliver(ctx, msg)
	if err != nil {
		report.Error = err.Error()
		logger.SoftFailure("Dispatcher.Send", "deliver_direct", err,
			"messageKey", msg.MessageKey, "to", msg.ToEmail, "subject", msg.Subject)
		return
	}
	report.Delivered = true
	report.MessageID = messageID
}

// DeliverDue retries pending outbox messages whose next attempt is due.
func (d *dispatcher) DeliverDue(ctx context.Context, limit int32) (DeliveryBatch, error) {
	var batch DeliveryBatch
	due, err := d.outbox.ListDue(ctx, d.now(), limit)
	if err != nil {
		return batch, fmt.Errorf("failed to list due notifications: %w", err)
	}
	for i := range due {
		if ctx.Err() != nil {
			return batch, ctx.Err()
		}
		msg := due[i]
		var report DeliveryReport
		d.attempt(ctx, &msg, &report)
		batch.Attempted++
		if report.Delivered {
			batch.Sent++
		} else {
			batch.Failed++
		}
	}
	return batch, nil
}
