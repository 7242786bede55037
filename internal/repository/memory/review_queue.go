package memory

import (
	"context"
	"sort"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

type reviewQueueRepo struct{ s *Store }

// activeFor must be called with the store lock held.
func (r *reviewQueueRepo) activeFor(alumniID string) (domain.ReviewItem, bool) {
	var found domain.ReviewItem
	ok := false
	for _, item := range r.s.queue {
		if item.AlumniID == alumniID && item.Status.IsActive() && (!ok || item.ID > found.ID) {
			found, ok = item, true
		}
	}
	return found, ok
}

func (r *reviewQueueRepo) Create(ctx context.Context, item *domain.ReviewItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if item.Status.IsActive() {
		if _, ok := r.activeFor(item.AlumniID); ok {
			return duplicate("review_queue_one_active_per_alumni")
		}
	}
	r.s.nextQueueID++
	item.ID = r.s.nextQueueID
	_, now := r.s.stamp()
	item.CreatedOn, item.UpdatedOn = now, now
	r.s.queue[item.ID] = *item
	return nil
}

func (r *reviewQueueRepo) GetByID(ctx context.Context, id int32) (*domain.ReviewItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.queue[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *reviewQueueRepo) GetActiveByAlumni(ctx context.Context, alumniID string) (*domain.ReviewItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.activeFor(alumniID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &item, nil
}

func (r *reviewQueueRepo) Supersede(ctx context.Context, id int32, email string) (*domain.ReviewItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.queue[id]
	if !ok || !item.Status.IsActive() {
		return nil, repository.ErrNotFound
	}
	item.Email = email
	item.Status = domain.ReviewStatusPendingUpdate
	_, item.UpdatedOn = r.s.stamp()
	r.s.queue[id] = item
	return &item, nil
}

func (r *reviewQueueRepo) Decide(ctx context.Context, id int32, status domain.ReviewStatus, decidedBy int32) (*domain.ReviewItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.queue[id]
	if !ok || !item.Status.IsActive() {
		return nil, repository.ErrNotFound
	}
	_, now := r.s.stamp()
	item.Status = status
	item.UpdatedOn = now
	item.DecidedOn = &now
	by := decidedBy
	item.DecidedBy = &by
	r.s.queue[id] = item
	return &item, nil
}

func (r *reviewQueueRepo) List(ctx context.Context, f domain.ReviewFilter) ([]domain.ReviewItem, int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	statuses := make(map[domain.ReviewStatus]bool, len(f.Statuses))
	for _, st := range f.Statuses {
		statuses[st] = true
	}

	var out []domain.ReviewItem
	for _, item := range r.s.queue {
		if len(statuses) > 0 && !statuses[item.Status] {
			continue
		}
		if f.AlumniID != "" && item.AlumniID != f.AlumniID {
			continue
		}
		if f.Email != "" && !containsFold(item.Email, f.Email) {
			continue
		}
		if a, ok := r.s.alumni[item.AlumniID]; ok {
			item.FullName = a.FullName
			if school, ok := r.s.schools[a.SchoolID]; ok {
				item.SchoolName = school.Name
			}
		}
		if f.Search != "" && !containsFold(item.FullName, f.Search) && !containsFold(item.Email, f.Search) && !containsFold(item.AlumniID, f.Search) {
			continue
		}
		out = append(out, item)
	}
	// Ids are assigned in creation order, so this matches created_on DESC.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Limit, f.Offset), int32(len(out)), nil
}

func (r *reviewQueueRepo) CountByStatus(ctx context.Context, status domain.ReviewStatus) (int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int32
	for _, item := range r.s.queue {
		if item.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *reviewQueueRepo) DeleteByIDs(ctx context.Context, ids []int32) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.s.queue[id]; ok {
			delete(r.s.queue, id)
			n++
		}
	}
	return n, nil
}
