package memory

import (
	"context"
	"sort"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"

	"github.com/google/uuid"
)

type sagaRepo struct{ s *Store }

func (r *sagaRepo) Create(ctx context.Context, saga *domain.IntakeSaga) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if saga.ID == "" {
		saga.ID = uuid.New().String()
	}
	if _, ok := r.s.sagas[saga.ID]; ok {
		return duplicate("intake_sagas_pkey")
	}
	now, _ := r.s.stamp()
	saga.CreatedOn, saga.UpdatedOn = now, now
	r.s.sagas[saga.ID] = *saga
	return nil
}

func (r *sagaRepo) GetByID(ctx context.Context, id string) (*domain.IntakeSaga, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	saga, ok := r.s.sagas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &saga, nil
}

func (r *sagaRepo) Save(ctx context.Context, saga *domain.IntakeSaga) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.sagas[saga.ID]
	if !ok {
		return repository.ErrNotFound
	}
	saga.CreatedOn = existing.CreatedOn
	saga.UpdatedOn, _ = r.s.stamp()
	r.s.sagas[saga.ID] = *saga
	return nil
}

func (r *sagaRepo) ListOpen(ctx context.Context, olderThan time.Time, limit int32) ([]domain.IntakeSaga, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.IntakeSaga
	for _, saga := range r.s.sagas {
		if saga.Step.IsOpen() && saga.UpdatedOn.Before(olderThan) {
			out = append(out, saga)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedOn.Before(out[j].UpdatedOn) })
	return paginate(out, limit, 0), nil
}
