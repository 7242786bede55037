package memory

import (
	"context"

	"alumni-registry-backend/internal/domain"
)

type emailLogRepo struct{ s *Store }

func (r *emailLogRepo) Append(ctx context.Context, e *domain.EmailLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = int64(len(r.s.logs) + 1)
	if e.CreatedOn.IsZero() {
		e.CreatedOn, _ = r.s.stamp()
	}
	r.s.logs = append(r.s.logs, *e)
	return nil
}

// List returns entries newest first.
func (r *emailLogRepo) List(ctx context.Context, limit, offset int32) ([]domain.EmailLog, int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.EmailLog, 0, len(r.s.logs))
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		out = append(out, r.s.logs[i])
	}
	return paginate(out, limit, offset), int32(len(r.s.logs)), nil
}
