package repository

import (
	"context"
	"errors"
	"time"

	"alumni-registry-backend/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type AlumniRepository interface {
	Create(ctx context.Context, alumni *domain.Alumni) error
	GetByID(ctx context.Context, alumniID string) (*domain.Alumni, error)
	// Update replaces non-key attributes. Returns ErrNotFound when no row matched.
	Update(ctx context.Context, alumni *domain.Alumni) error
	Search(ctx context.Context, filter domain.AlumniFilter) ([]domain.Alumni, int32, error)
	DeleteByIDs(ctx context.Context, alumniIDs []string) (int64, error)
	Count(ctx context.Context) (int32, error)
}

type SchoolRepository interface {
	Create(ctx context.Context, school *domain.School) error
	GetByID(ctx context.Context, id int32) (*domain.School, error)
	GetByCode(ctx context.Context, code string) (*domain.School, error)
	List(ctx context.Context, name string) ([]domain.School, error)
	Count(ctx context.Context) (int32, error)
}

type ReviewQueueRepository interface {
	// Create inserts an item. Returns ErrDuplicate when an active item already exists for the alumni.
	Create(ctx context.Context, item *domain.ReviewItem) error
	GetByID(ctx context.Context, id int32) (*domain.ReviewItem, error)
	GetActiveByAlumni(ctx context.Context, alumniID string) (*domain.ReviewItem, error)
	// Supersede rewrites an active item for a resubmission. Returns ErrNotFound when the item is no longer active.
	Supersede(ctx context.Context, id int32, email string) (*domain.ReviewItem, error)
	// Decide moves an active item to a terminal status and returns the updated row.
	// Returns ErrNotFound when zero rows were affected.
	Decide(ctx context.Context, id int32, status domain.ReviewStatus, decidedBy int32) (*domain.ReviewItem, error)
	List(ctx context.Context, filter domain.ReviewFilter) ([]domain.ReviewItem, int32, error)
	CountByStatus(ctx context.Context, status domain.ReviewStatus) (int32, error)
	DeleteByIDs(ctx context.Context, ids []int32) (int64, error)
}

type AccountRepository interface {
	// Create inserts an account. Returns ErrDuplicate on an email or alumni id collision.
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int32) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByAlumniID(ctx context.Context, alumniID string) (*domain.Account, error)
	// LinkAlumni attaches an alumni id to an unlinked account. Returns ErrNotFound when nothing was linked.
	LinkAlumni(ctx context.Context, id int32, alumniID string) error
	// DeleteUnlinked removes an account only if it has no alumni link.
	DeleteUnlinked(ctx context.Context, id int32) error
}

type OutboxRepository interface {
	// Enqueue inserts a message. Returns ErrDuplicate when the message key was already enqueued.
	Enqueue(ctx context.Context, msg *domain.OutboxMessage) error
	GetByKey(ctx context.Context, messageKey string) (*domain.OutboxMessage, error)
	ListDue(ctx context.Context, now time.Time, limit int32) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id string, sentOn time.Time) error
	MarkAttemptFailed(ctx context.Context, id string, lastError string, nextAttemptOn time.Time, giveUp bool) error
}

type EmailLogRepository interface {
	Append(ctx context.Context, entry *domain.EmailLog) error
	List(ctx context.Context, limit, offset int32) ([]domain.EmailLog, int32, error)
}

type IntakeSagaRepository interface {
	Create(ctx context.Context, saga *domain.IntakeSaga) error
	GetByID(ctx context.Context, id string) (*domain.IntakeSaga, error)
	// Save persists the saga's current step and references.
	Save(ctx context.Context, saga *domain.IntakeSaga) error
	ListOpen(ctx context.Context, olderThan time.Time, limit int32) ([]domain.IntakeSaga, error)
}
