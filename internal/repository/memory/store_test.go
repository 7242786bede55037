package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

func TestReviewQueue_OneActivePerAlumni(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first := &domain.ReviewItem{AlumniID: "A1", Email: "a@example.com", Status: domain.ReviewStatusPending}
	require.NoError(t, s.ReviewQueueRepository.Create(ctx, first))

	err := s.ReviewQueueRepository.Create(ctx, &domain.ReviewItem{AlumniID: "A1", Status: domain.ReviewStatusPendingUpdate})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = s.ReviewQueueRepository.Decide(ctx, first.ID, domain.ReviewStatusApproved, 1)
	require.NoError(t, err)

	// terminal items do not block a new active one
	require.NoError(t, s.ReviewQueueRepository.Create(ctx, &domain.ReviewItem{AlumniID: "A1", Status: domain.ReviewStatusPendingUpdate}))

	_, err = s.ReviewQueueRepository.Decide(ctx, first.ID, domain.ReviewStatusRejected, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAlumniDelete_Cascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.AlumniRepository.Create(ctx, &domain.Alumni{AlumniID: "A1", Email: "a@example.com"}))
	require.NoError(t, s.ReviewQueueRepository.Create(ctx, &domain.ReviewItem{AlumniID: "A1", Status: domain.ReviewStatusPending}))
	id := "A1"
	acct := &domain.Account{Email: "a@example.com", AlumniID: &id}
	require.NoError(t, s.AccountRepository.Create(ctx, acct))

	n, err := s.AlumniRepository.DeleteByIDs(ctx, []string{"A1", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, total, err := s.ReviewQueueRepository.List(ctx, domain.ReviewFilter{AlumniID: "A1"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	got, err := s.AccountRepository.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AlumniID)
}

func TestAccount_EmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.AccountRepository.Create(ctx, &domain.Account{Email: "Case@Example.com"}))
	err := s.AccountRepository.Create(ctx, &domain.Account{Email: "case@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestOutbox_ListDueHonoursClock(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.OutboxRepository.Enqueue(ctx, &domain.OutboxMessage{MessageKey: "k1", NextAttemptOn: now}))
	require.NoError(t, s.OutboxRepository.Enqueue(ctx, &domain.OutboxMessage{MessageKey: "k2", NextAttemptOn: now.Add(time.Hour)}))

	due, err := s.OutboxRepository.ListDue(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "k1", due[0].MessageKey)

	err = s.OutboxRepository.Enqueue(ctx, &domain.OutboxMessage{MessageKey: "k1"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
