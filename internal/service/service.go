package service

import (
	"context"
	"time"

	"alumni-registry-backend/internal/domain"
)

// NewApplicantIntake is a first-time self-service registration.
type NewApplicantIntake struct {
	Profile  domain.Profile
	Password string
}

// ExistingApplicantIntake resubmits data for an alumni record found via search.
type ExistingApplicantIntake struct {
	AlumniID string
	Profile  domain.Profile
}

type IntakeResult struct {
	Alumni       *domain.Alumni     `json:"alumni"`
	Item         *domain.ReviewItem `json:"item"`
	AccountID    int32              `json:"account_id,omitempty"`
	Notification DeliveryReport     `json:"notification"`
}

// DecisionResult is the authoritative outcome of an approve or reject call.
// Item is the post-write row as read back from the store; callers reconcile
// their view from it rather than assuming the write took effect.
type DecisionResult struct {
	Item         *domain.ReviewItem `json:"item"`
	Changed      bool               `json:"changed"`
	Account      *domain.Account    `json:"account,omitempty"`
	Notification *DeliveryReport    `json:"notification,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
}

type RepairReport struct {
	Scanned     int `json:"scanned"`
	Completed   int `json:"completed"`
	Compensated int `json:"compensated"`
	Failed      int `json:"failed"`
}

// DeliveryReport describes a single Send. Send never returns an error, so a
// failed delivery shows up here and in the logs only.
type DeliveryReport struct {
	MessageKey string `json:"message_key"`
	Delivered  bool   `json:"delivered"`
	Queued     bool   `json:"queued"`
	Duplicate  bool   `json:"duplicate,omitempty"`
	MessageID  string `json:"message_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type DeliveryBatch struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// QueueQuery drives the admin queue listing. SortBy re-sorts the fetched page.
type QueueQuery struct {
	Statuses  []domain.ReviewStatus
	Search    string
	SortBy    string
	Ascending bool
	Limit     int32
	Offset    int32
}

type QueuePage struct {
	Items []domain.ReviewItem `json:"items"`
	Total int32               `json:"total"`
}

// Session is returned by a successful login.
type Session struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	Auth         domain.AuthSession `json:"session"`
}

// AccountAuthority creates and authenticates login accounts.
type AccountAuthority interface {
	CreateAccount(ctx context.Context, email, password string) (int32, error)
	// DeleteAccount removes an account that was never linked to an alumni record.
	DeleteAccount(ctx context.Context, accountID int32) error
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	SessionFromToken(ctx context.Context, token string) (*domain.AuthSession, error)
	GetCurrentUser(ctx context.Context) (*domain.AuthSession, bool)
}

type AccountProvisioner interface {
	Ensure(ctx context.Context, alumniID, email string) (*domain.Account, error)
}

type NotificationDispatcher interface {
	Send(ctx context.Context, kind domain.NotificationKind, to domain.Recipient, nc domain.NotificationContext) DeliveryReport
	DeliverDue(ctx context.Context, limit int32) (DeliveryBatch, error)
}

type RegistrationWorkflow interface {
	IntakeNew(ctx context.Context, in NewApplicantIntake) (*IntakeResult, error)
	IntakeExisting(ctx context.Context, in ExistingApplicantIntake) (*IntakeResult, error)
	Approve(ctx context.Context, session *domain.AuthSession, queueID int32) (*DecisionResult, error)
	Reject(ctx context.Context, session *domain.AuthSession, queueID int32) (*DecisionResult, error)
	BulkDeleteQueueItems(ctx context.Context, ids []int32) (int64, error)
	BulkDeleteAlumni(ctx context.Context, alumniIDs []string) (int64, error)
	RepairIntakes(ctx context.Context, olderThan time.Time) (*RepairReport, error)
}

type AdminReviewService interface {
	ListQueue(ctx context.Context, session *domain.AuthSession, q QueueQuery) (*QueuePage, error)
	Approve(ctx context.Context, session *domain.AuthSession, queueID int32) (*DecisionResult, error)
	Reject(ctx context.Context, session *domain.AuthSession, queueID int32) (*DecisionResult, error)
	DeleteQueueItems(ctx context.Context, session *domain.AuthSession, ids []int32) (int64, error)
	DeleteAlumni(ctx context.Context, session *domain.AuthSession, alumniIDs []string) (int64, error)
	Stats(ctx context.Context, session *domain.AuthSession) (*domain.ReviewStats, error)
	RepairIntakes(ctx context.Context, session *domain.AuthSession, olderThan time.Duration) (*RepairReport, error)
	ListEmailLogs(ctx context.Context, session *domain.AuthSession, limit, offset int32) ([]domain.EmailLog, int32, error)
}

// DirectoryService backs the public search used to discover existing records.
type DirectoryService interface {
	SearchAlumni(ctx context.Context, filter domain.AlumniFilter) ([]domain.Alumni, int32, error)
	GetAlumni(ctx context.Context, alumniID string) (*domain.Alumni, error)
	ListSchools(ctx context.Context, name string) ([]domain.School, error)
}
