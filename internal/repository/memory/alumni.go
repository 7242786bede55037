package memory

import (
	"context"
	"sort"
	"strings"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

type alumniRepo struct{ s *Store }

func (r *alumniRepo) Create(ctx context.Context, a *domain.Alumni) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.alumni[a.AlumniID]; ok {
		return duplicate("alumni_pkey")
	}
	_, now := r.s.stamp()
	a.CreatedOn, a.UpdatedOn = now, now
	r.s.alumni[a.AlumniID] = *a
	return nil
}

func (r *alumniRepo) GetByID(ctx context.Context, alumniID string) (*domain.Alumni, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.alumni[alumniID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *alumniRepo) Update(ctx context.Context, a *domain.Alumni) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.alumni[a.AlumniID]
	if !ok {
		return repository.ErrNotFound
	}
	_, now := r.s.stamp()
	a.CreatedOn = existing.CreatedOn
	a.UpdatedOn = now
	r.s.alumni[a.AlumniID] = *a
	return nil
}

func (r *alumniRepo) Search(ctx context.Context, f domain.AlumniFilter) ([]domain.Alumni, int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make(map[string]bool, len(f.IDs))
	for _, id := range f.IDs {
		ids[id] = true
	}

	var out []domain.Alumni
	for _, a := range r.s.alumni {
		if f.Name != "" && !containsFold(a.FullName, f.Name) {
			continue
		}
		if f.Email != "" && !containsFold(a.Email, f.Email) {
			continue
		}
		if f.SchoolID != 0 && a.SchoolID != f.SchoolID {
			continue
		}
		if f.GraduationYear != "" && a.GraduationYear != f.GraduationYear {
			continue
		}
		if len(ids) > 0 && !ids[a.AlumniID] {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].FullName, out[j].FullName); c != 0 {
			return c < 0
		}
		return out[i].AlumniID < out[j].AlumniID
	})
	return paginate(out, f.Limit, f.Offset), int32(len(out)), nil
}

func (r *alumniRepo) DeleteByIDs(ctx context.Context, alumniIDs []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range alumniIDs {
		if _, ok := r.s.alumni[id]; !ok {
			continue
		}
		delete(r.s.alumni, id)
		n++
		// Mirrors ON DELETE CASCADE on review_queue and ON DELETE SET NULL on accounts.
		for qid, item := range r.s.queue {
			if item.AlumniID == id {
				delete(r.s.queue, qid)
			}
		}
		for aid, acct := range r.s.accounts {
			if acct.AlumniID != nil && *acct.AlumniID == id {
				acct.AlumniID = nil
				r.s.accounts[aid] = acct
			}
		}
	}
	return n, nil
}

func (r *alumniRepo) Count(ctx context.Context) (int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int32(len(r.s.alumni)), nil
}
