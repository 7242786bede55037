package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"alumni-registry-backend/internal/repository"

	"github.com/lib/pq"
)

// timeLayout is used for every timestamp exposed as a string on domain types.
const timeLayout = time.RFC3339

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	repository.AlumniRepository
	repository.SchoolRepository
	repository.ReviewQueueRepository
	repository.AccountRepository
	repository.OutboxRepository
	repository.EmailLogRepository
	repository.IntakeSagaRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		AlumniRepository:      NewAlumniRepository(db),
		SchoolRepository:      NewSchoolRepository(db),
		ReviewQueueRepository: NewReviewQueueRepository(db),
		AccountRepository:     NewAccountRepository(db),
		OutboxRepository:      NewOutboxRepository(db),
		EmailLogRepository:    NewEmailLogRepository(db),
		IntakeSagaRepository:  NewIntakeSagaRepository(db),
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := formatTime(t.Time)
	return &s
}

// whereBuilder accumulates AND-ed predicates with positional placeholders.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	out := " WHERE " + w.clauses[0]
	for _, c := range w.clauses[1:] {
		out += " AND " + c
	}
	return out
}

// page appends LIMIT/OFFSET placeholders and returns the clause.
func (w *whereBuilder) page(limit, offset int32) string {
	if limit <= 0 {
		return ""
	}
	w.args = append(w.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}
