// Package memory is an in-process implementation of the repositories. It enforces
// the same uniqueness rules as the postgres schema and backs the "memory" storage
// type and the workflow tests.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

type Store struct {
	mu sync.Mutex

	alumni   map[string]domain.Alumni
	schools  map[int32]domain.School
	queue    map[int32]domain.ReviewItem
	accounts map[int32]domain.Account
	outbox   map[string]domain.OutboxMessage
	logs     []domain.EmailLog
	sagas    map[string]domain.IntakeSaga

	nextSchoolID  int32
	nextQueueID   int32
	nextAccountID int32

	now func() time.Time

	repository.AlumniRepository
	repository.SchoolRepository
	repository.ReviewQueueRepository
	repository.AccountRepository
	repository.OutboxRepository
	repository.EmailLogRepository
	repository.IntakeSagaRepository
}

func NewStore() *Store {
	s := &Store{
		alumni:   make(map[string]domain.Alumni),
		schools:  make(map[int32]domain.School),
		queue:    make(map[int32]domain.ReviewItem),
		accounts: make(map[int32]domain.Account),
		outbox:   make(map[string]domain.OutboxMessage),
		sagas:    make(map[string]domain.IntakeSaga),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.AlumniRepository = &alumniRepo{s}
	s.SchoolRepository = &schoolRepo{s}
	s.ReviewQueueRepository = &reviewQueueRepo{s}
	s.AccountRepository = &accountRepo{s}
	s.OutboxRepository = &outboxRepo{s}
	s.EmailLogRepository = &emailLogRepo{s}
	s.IntakeSagaRepository = &sagaRepo{s}
	return s
}

// SetClock overrides the time source. Used by tests that age sagas or outbox rows.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) stamp() (time.Time, string) {
	t := s.now()
	return t, t.Format(time.RFC3339Nano)
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicate, what)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func paginate[T any](items []T, limit, offset int32) []T {
	if offset > 0 {
		if int(offset) >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}
