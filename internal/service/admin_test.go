package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/service"
)

func TestAdminService_RequiresAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := h.seedAlumni(t, "SPGOY73001HI", "one@example.com")

	for _, session := range []*domain.AuthSession{nil, alumniSession} {
		_, err := h.admin.ListQueue(ctx, session, service.QueueQuery{})
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, err = h.admin.Approve(ctx, session, item.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, err = h.admin.Reject(ctx, session, item.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, err = h.admin.DeleteQueueItems(ctx, session, []int32{item.ID})
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, err = h.admin.DeleteAlumni(ctx, session, []string{"SPGOY73001HI"})
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, err = h.admin.Stats(ctx, session)
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, err = h.admin.RepairIntakes(ctx, session, time.Minute)
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, _, err = h.admin.ListEmailLogs(ctx, session, 10, 0)
		assert.ErrorIs(t, err, service.ErrForbidden)
	}

	stored, err := h.store.ReviewQueueRepository.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusPending, stored.Status)
}

func TestAdminService_ListQueue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.seedAlumni(t, "SPGOY73001HI", "one@example.com")
	second := h.seedAlumni(t, "SPGOY73002HI", "two@example.com")
	third := h.seedAlumni(t, "SPGOY73003HI", "three@example.com")
	_, err := h.admin.Reject(ctx, adminSession, second.ID)
	require.NoError(t, err)

	t.Run("Newest first by default", func(t *testing.T) {
		page, err := h.admin.ListQueue(ctx, adminSession, service.QueueQuery{})
		require.NoError(t, err)
		assert.Equal(t, int32(3), page.Total)
		require.Len(t, page.Items, 3)
		assert.Equal(t, []int32{third.ID, second.ID, first.ID}, []int32{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})
		assert.Equal(t, h.school.Name, page.Items[0].SchoolName)
	})

	t.Run("Status filter", func(t *testing.T) {
		page, err := h.admin.ListQueue(ctx, adminSession, service.QueueQuery{Statuses: domain.ActiveReviewStatuses})
		require.NoError(t, err)
		assert.Equal(t, int32(2), page.Total)
	})

	t.Run("Re-sort keeps fetch order on ties", func(t *testing.T) {
		page, err := h.admin.ListQueue(ctx, adminSession, service.QueueQuery{SortBy: "status", Ascending: true})
		require.NoError(t, err)
		ids := []int32{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID}
		// "pending" sorts before "rejected"; the two pending items keep fetch order.
		assert.Equal(t, []int32{third.ID, first.ID, second.ID}, ids)
	})

	t.Run("Unknown sort column", func(t *testing.T) {
		_, err := h.admin.ListQueue(ctx, adminSession, service.QueueQuery{SortBy: "password"})
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestSortQueue_Stable(t *testing.T) {
	fetched := func() []domain.ReviewItem {
		return []domain.ReviewItem{
			{ID: 3, Status: domain.ReviewStatusPending, FullName: "Bola"},
			{ID: 2, Status: domain.ReviewStatusApproved, FullName: "Ade"},
			{ID: 1, Status: domain.ReviewStatusPending, FullName: "Chidi"},
			{ID: 4, Status: domain.ReviewStatusApproved, FullName: "ade"},
		}
	}
	ids := func(items []domain.ReviewItem) []int32 {
		out := make([]int32, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	items := fetched()
	require.NoError(t, service.SortQueue(items, "status", true))
	assert.Equal(t, []int32{2, 4, 3, 1}, ids(items))

	items = fetched()
	require.NoError(t, service.SortQueue(items, "status", false))
	assert.Equal(t, []int32{3, 1, 2, 4}, ids(items))

	items = fetched()
	require.NoError(t, service.SortQueue(items, "full_name", true))
	assert.Equal(t, []int32{2, 4, 3, 1}, ids(items), "case-insensitive tie keeps fetch order")
}

func TestAdminService_Stats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.seedAlumni(t, "SPGOY73001HI", "one@example.com")
	b := h.seedAlumni(t, "SPGOY73002HI", "two@example.com")
	h.seedAlumni(t, "SPGOY73003HI", "three@example.com")
	_, err := h.admin.Approve(ctx, adminSession, a.ID)
	require.NoError(t, err)
	_, err = h.admin.Reject(ctx, adminSession, b.ID)
	require.NoError(t, err)

	stats, err := h.admin.Stats(ctx, adminSession)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStats{Pending: 1, Approved: 1, Rejected: 1, Alumni: 3, Schools: 1}, *stats)
}

func TestAdminService_ListEmailLogs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := h.seedAlumni(t, "SPGOY73001HI", "one@example.com")
	_, err := h.admin.Approve(ctx, adminSession, item.ID)
	require.NoError(t, err)

	logs, total, err := h.admin.ListEmailLogs(ctx, adminSession, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Equal(t, domain.NotificationApproved, logs[0].Type)
	assert.Equal(t, domain.EmailDeliverySent, logs[0].Status)
}
