package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/repository"
)

const (
	defaultQueuePageSize = 50
	maxQueuePageSize     = 500
)

type adminService struct {
	workflow RegistrationWorkflow
	queue    repository.ReviewQueueRepository
	alumni   repository.AlumniRepository
	schools  repository.SchoolRepository
	logs     repository.EmailLogRepository
}

func NewAdminService(
	workflow RegistrationWorkflow,
	queue repository.ReviewQueueRepository,
	alumni repository.AlumniRepository,
	schools repository.SchoolRepository,
	logs repository.EmailLogRepository,
) AdminReviewService {
	return &adminService{
		workflow: workflow,
		queue:    queue,
		alumni:   alumni,
		schools:  schools,
		logs:     logs,
	}
}

func requireAdmin(session *domain.AuthSession) error {
	if !session.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *adminService) ListQueue(ctx context.Context, session *domain.AuthSession, q QueueQuery) (*QueuePage, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = defaultQueuePageSize
	}
	if q.Limit > maxQueuePageSize {
		q.Limit = maxQueuePageSize
	}

	items, total, err := s.queue.List(ctx, domain.ReviewFilter{
		Statuses: q.Statuses,
		Search:   q.Search,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	if q.SortBy != "" {
		if err := SortQueue(items, q.SortBy, q.Ascending); err != nil {
			return nil, err
		}
	}
	return &QueuePage{Items: items, Total: total}, nil
}

var queueSortKeys = map[string]func(a, b *domain.ReviewItem) int{
	"id":        func(a, b *domain.ReviewItem) int { return int(a.ID) - int(b.ID) },
	"alumni_id": func(a, b *domain.ReviewItem) int { return strings.Compare(a.AlumniID, b.AlumniID) },
	"email": func(a, b *domain.ReviewItem) int {
		return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
	},
	"status":     func(a, b *domain.ReviewItem) int { return strings.Compare(string(a.Status), string(b.Status)) },
	"created_on": func(a, b *domain.ReviewItem) int { return strings.Compare(a.CreatedOn, b.CreatedOn) },
	"full_name": func(a, b *domain.ReviewItem) int {
		return strings.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
	},
	"school_name": func(a, b *domain.ReviewItem) int {
		return strings.Compare(strings.ToLower(a.SchoolName), strings.ToLower(b.SchoolName))
	},
}

// SortQueue re-sorts a fetched page by a displayed column. Ties keep their
// fetch order in both directions.
func SortQueue(items []domain.ReviewItem, column string, ascending bool) error {
	cmp, ok := queueSortKeys[column]
	if !ok {
		return invalid("sort_by", fmt.Sprintf("unknown column %q", column))
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(&items[i], &items[j])
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return nil
}

func (s *adminService) Approve(ctx context.Context, session *domain.AuthSession, queueID int32) (*DecisionResult, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	logger.Info("Admin approving review item", "adminID", session.AccountID, "queueID", queueID)
	return s.workflow.Approve(ctx, session, queueID)
}

func (s *adminService) Reject(ctx context.Context, session *domain.AuthSession, queueID int32) (*DecisionResult, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	logger.Info("Admin rejecting review item", "adminID", session.AccountID, "queueID", queueID)
	return s.workflow.Reject(ctx, session, queueID)
}

func (s *adminService) DeleteQueueItems(ctx context.Context, session *domain.AuthSession, ids []int32) (int64, error) {
	if err := requireAdmin(session); err != nil {
		return 0, err
	}
	seen := make(map[int32]bool, len(ids))
	unique := make([]int32, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return 0, invalid("ids", "at least one queue item must be selected")
	}
	return s.workflow.BulkDeleteQueueItems(ctx, unique)
}

func (s *adminService) DeleteAlumni(ctx context.Context, session *domain.AuthSession, alumniIDs []string) (int64, error) {
	if err := requireAdmin(session); err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(alumniIDs))
	unique := make([]string, 0, len(alumniIDs))
	for _, id := range alumniIDs {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return 0, invalid("alumni_ids", "at least one alumni record must be selected")
	}
	return s.workflow.BulkDeleteAlumni(ctx, unique)
}

// Stats gathers the dashboard counts. The counts are independent reads, so
// they run concurrently.
func (s *adminService) Stats(ctx context.Context, session *domain.AuthSession) (*domain.ReviewStats, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	var stats domain.ReviewStats
	g, gctx := errgroup.WithContext(ctx)
	countStatus := func(status domain.ReviewStatus, dst *int32) {
		g.Go(func() error {
			n, err := s.queue.CountByStatus(gctx, status)
			if err != nil {
				return fmt.Errorf("failed to count %s items: %w", status, err)
			}
			*dst = n
			return nil
		})
	}
	countStatus(domain.ReviewStatusPending, &stats.Pending)
	countStatus(domain.ReviewStatusPendingUpdate, &stats.PendingUpdate)
	countStatus(domain.ReviewStatusApproved, &stats.Approved)
	countStatus(domain.ReviewStatusRejected, &stats.Rejected)
	g.Go(func() error {
		n, err := s.alumni.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count alumni: %w", err)
		}
		stats.Alumni = n
		return nil
	})
	g.Go(func() error {
		n, err := s.schools.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count schools: %w", err)
		}
		stats.Schools = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *adminService) RepairIntakes(ctx context.Context, session *domain.AuthSession, olderThan time.Duration) (*RepairReport, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	if olderThan < 0 {
		return nil, invalid("older_than", "must not be negative")
	}
	return s.workflow.RepairIntakes(ctx, time.Now().UTC().Add(-olderThan))
}

func (s *adminService) ListEmailLogs(ctx context.Context, session *domain.AuthSession, limit, offset int32) ([]domain.EmailLog, int32, error) {
	if err := requireAdmin(session); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > maxQueuePageSize {
		limit = defaultQueuePageSize
	}
	return s.logs.List(ctx, limit, offset)
}
