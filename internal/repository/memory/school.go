package memory

import (
	"context"
	"sort"
	"strings"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

type schoolRepo struct{ s *Store }

func (r *schoolRepo) Create(ctx context.Context, school *domain.School) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	school.Code = strings.ToUpper(school.Code)
	school.Level = strings.ToUpper(school.Level)
	for _, existing := range r.s.schools {
		if existing.Code == school.Code {
			return duplicate("schools_code_key")
		}
	}
	r.s.nextSchoolID++
	school.ID = r.s.nextSchoolID
	_, school.CreatedOn = r.s.stamp()
	r.s.schools[school.ID] = *school
	return nil
}

func (r *schoolRepo) GetByID(ctx context.Context, id int32) (*domain.School, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	school, ok := r.s.schools[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &school, nil
}

func (r *schoolRepo) GetByCode(ctx context.Context, code string) (*domain.School, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, school := range r.s.schools {
		if school.Code == strings.ToUpper(code) {
			return &school, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *schoolRepo) List(ctx context.Context, name string) ([]domain.School, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.School
	for _, school := range r.s.schools {
		if name == "" || containsFold(school.Name, name) {
			out = append(out, school)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *schoolRepo) Count(ctx context.Context) (int32, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int32(len(r.s.schools)), nil
}
