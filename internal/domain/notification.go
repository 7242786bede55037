package domain

import "time"

type NotificationKind string

const (
	NotificationSubmissionReceived NotificationKind = "submission_received"
	NotificationApproved           NotificationKind = "approved"
	NotificationRejected           NotificationKind = "rejected"
)

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NotificationContext carries the fields templates may reference.
type NotificationContext struct {
	Name        string
	AlumniID    string
	SchoolName  string
	LoginURL    string
	MessageKey  string
	SubmittedOn string
}

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage is a rendered notification awaiting (or done with) delivery.
// MessageKey is unique, so enqueueing the same logical message twice is a no-op.
type OutboxMessage struct {
	ID            string           `json:"id"`
	MessageKey    string           `json:"message_key"`
	Kind          NotificationKind `json:"kind"`
	ToEmail       string           `json:"to_email"`
	ToName        string           `json:"to_name"`
	Subject       string           `json:"subject"`
	Body          string           `json:"body"`
	Status        OutboxStatus     `json:"status"`
	Attempts      int32            `json:"attempts"`
	LastError     string           `json:"last_error,omitempty"`
	NextAttemptOn time.Time        `json:"next_attempt_on"`
	CreatedOn     time.Time        `json:"created_on"`
	SentOn        *time.Time       `json:"sent_on,omitempty"`
}

type EmailDeliveryStatus string

const (
	EmailDeliverySent   EmailDeliveryStatus = "sent"
	EmailDeliveryFailed EmailDeliveryStatus = "failed"
)

// EmailLog is an append-only audit entry for a delivery attempt.
type EmailLog struct {
	ID        int64               `json:"id"`
	ToEmail   string              `json:"to_email"`
	Subject   string              `json:"subject"`
	Body      string              `json:"body"`
	Type      NotificationKind    `json:"type"`
	Status    EmailDeliveryStatus `json:"status"`
	MessageID string              `json:"message_id,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedOn time.Time           `json:"created_on"`
}
