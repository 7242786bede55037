package domain

import "time"

type SagaStep string

const (
	SagaStepStarted        SagaStep = "started"
	SagaStepAccountCreated SagaStep = "account_created"
	SagaStepAlumniCreated  SagaStep = "alumni_created"
	SagaStepQueued         SagaStep = "queued"
	SagaStepCompleted      SagaStep = "completed"
	SagaStepCompensated    SagaStep = "compensated"
)

// IsOpen reports whether the saga still needs to be finished or rolled back.
func (s SagaStep) IsOpen() bool {
	return s != SagaStepCompleted && s != SagaStepCompensated
}

// IntakeSaga records the progress of a new-applicant intake across stores.
// Payload is the submitted profile; credentials are never stored here.
type IntakeSaga struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Step      SagaStep  `json:"step"`
	AccountID *int32    `json:"account_id,omitempty"`
	AlumniID  *string   `json:"alumni_id,omitempty"`
	QueueID   *int32    `json:"queue_id,omitempty"`
	Payload   Profile   `json:"payload"`
	LastError string    `json:"last_error,omitempty"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}
