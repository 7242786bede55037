package memory

import (
	"context"
	"sort"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"

	"github.com/google/uuid"
)

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Enqueue(ctx context.Context, m *domain.OutboxMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.outbox {
		if existing.MessageKey == m.MessageKey {
			return duplicate("notification_outbox_message_key_key")
		}
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now, _ := r.s.stamp()
	if m.Status == "" {
		m.Status = domain.OutboxStatusPending
	}
	if m.NextAttemptOn.IsZero() {
		m.NextAttemptOn = now
	}
	m.CreatedOn = now
	r.s.outbox[m.ID] = *m
	return nil
}

func (r *outboxRepo) GetByKey(ctx context.Context, messageKey string) (*domain.OutboxMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.outbox {
		if m.MessageKey == messageKey {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *outboxRepo) ListDue(ctx context.Context, now time.Time, limit int32) ([]domain.OutboxMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.OutboxMessage
	for _, m := range r.s.outbox {
		if m.Status == domain.OutboxStatusPending && !m.NextAttemptOn.After(now) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextAttemptOn.Before(out[j].NextAttemptOn) })
	return paginate(out, limit, 0), nil
}

func (r *outboxRepo) MarkSent(ctx context.Context, id string, sentOn time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Status = domain.OutboxStatusSent
	m.Attempts++
	m.LastError = ""
	m.SentOn = &sentOn
	r.s.outbox[id] = m
	return nil
}

func (r *outboxRepo) MarkAttemptFailed(ctx context.Context, id string, lastError string, nextAttemptOn time.Time, giveUp bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Attempts++
	m.LastError = lastError
	m.NextAttemptOn = nextAttemptOn
	if giveUp {
		m.Status = domain.OutboxStatusFailed
	}
	r.s.outbox[id] = m
	return nil
}
