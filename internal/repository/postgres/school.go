package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

type schoolRepository struct {
	db *sql.DB
}

func NewSchoolRepository(db *sql.DB) repository.SchoolRepository {
	return &schoolRepository{db: db}
}

func (r *schoolRepository) Create(ctx context.Context, s *domain.School) error {
	query := `INSERT INTO schools (code, name, state, level, created_on) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(s.Code), s.Name, s.State, strings.ToUpper(s.Level), now).Scan(&s.ID)
	if err != nil {
		return mapError(err)
	}
	s.CreatedOn = formatTime(now)
	return nil
}

func (r *schoolRepository) get(ctx context.Context, where string, arg any) (*domain.School, error) {
	s := &domain.School{}
	var createdOn time.Time
	query := `SELECT id, code, name, state, level, created_on FROM schools WHERE ` + where
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&s.ID, &s.Code, &s.Name, &s.State, &s.Level, &createdOn)
	if err != nil {
		return nil, mapError(err)
	}
	s.CreatedOn = formatTime(createdOn)
	return s, nil
}

func (r *schoolRepository) GetByID(ctx context.Context, id int32) (*domain.School, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *schoolRepository) GetByCode(ctx context.Context, code string) (*domain.School, error) {
	return r.get(ctx, "code = $1", strings.ToUpper(code))
}

func (r *schoolRepository) List(ctx context.Context, name string) ([]domain.School, error) {
	query := `SELECT id, code, name, state, level, created_on FROM schools WHERE name ILIKE $1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, "%"+name+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schools []domain.School
	for rows.Next() {
		var s domain.School
		var createdOn time.Time
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.State, &s.Level, &createdOn); err != nil {
			return nil, err
		}
		s.CreatedOn = formatTime(createdOn)
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

func (r *schoolRepository) Count(ctx context.Context) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schools`).Scan(&count)
	return count, err
}
