package postgres

import (
	"context"
	"database/sql"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/repository"

	"github.com/lib/pq"
)

const alumniColumns = `alumni_id, full_name, email, phone, school_id, graduation_year, admission_year,
	COALESCE(bio, ''), COALESCE(position, ''), COALESCE(company, ''),
	COALESCE(linkedin_url, ''), COALESCE(twitter_url, ''), COALESCE(website_url, ''),
	created_on, updated_on`

type alumniRepository struct {
	db *sql.DB
}

func NewAlumniRepository(db *sql.DB) repository.AlumniRepository {
	return &alumniRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlumni(row rowScanner) (*domain.Alumni, error) {
	a := &domain.Alumni{}
	var createdOn, updatedOn time.Time
	err := row.Scan(&a.AlumniID, &a.FullName, &a.Email, &a.Phone, &a.SchoolID, &a.GraduationYear, &a.AdmissionYear,
		&a.Bio, &a.Position, &a.Company, &a.LinkedInURL, &a.TwitterURL, &a.WebsiteURL, &createdOn, &updatedOn)
	if err != nil {
		return nil, err
	}
	a.CreatedOn = formatTime(createdOn)
	a.UpdatedOn = formatTime(updatedOn)
	return a, nil
}

func (r *alumniRepository) Create(ctx context.Context, a *domain.Alumni) error {
	logger.EnterMethod("alumniRepository.Create", "alumniID", a.AlumniID, "schoolID", a.SchoolID)

	query := `INSERT INTO alumni (alumni_id, full_name, email, phone, school_id, graduation_year, admission_year,
	          bio, position, company, linkedin_url, twitter_url, website_url, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`
	logger.DatabaseCall("INSERT", "alumni", "alumniID", a.AlumniID)

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, a.AlumniID, a.FullName, a.Email, a.Phone, a.SchoolID, a.GraduationYear, a.AdmissionYear,
		a.Bio, a.Position, a.Company, a.LinkedInURL, a.TwitterURL, a.WebsiteURL, now)
	logger.DatabaseResult("INSERT", 1, err, "alumniID", a.AlumniID)
	if err != nil {
		logger.ExitMethodWithError("alumniRepository.Create", err, "alumniID", a.AlumniID)
		return mapError(err)
	}
	a.CreatedOn = formatTime(now)
	a.UpdatedOn = a.CreatedOn
	logger.ExitMethod("alumniRepository.Create", "alumniID", a.AlumniID)
	return nil
}

func (r *alumniRepository) GetByID(ctx context.Context, alumniID string) (*domain.Alumni, error) {
	query := `SELECT ` + alumniColumns + ` FROM alumni WHERE alumni_id = $1`
	a, err := scanAlumni(r.db.QueryRowContext(ctx, query, alumniID))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *alumniRepository) Update(ctx context.Context, a *domain.Alumni) error {
	query := `UPDATE alumni SET full_name=$1, email=$2, phone=$3, school_id=$4, graduation_year=$5, admission_year=$6,
	          bio=$7, position=$8, company=$9, linkedin_url=$10, twitter_url=$11, website_url=$12, updated_on=$13
	          WHERE alumni_id=$14`
	logger.DatabaseCall("UPDATE", "alumni", "alumniID", a.AlumniID)

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, a.FullName, a.Email, a.Phone, a.SchoolID, a.GraduationYear, a.AdmissionYear,
		a.Bio, a.Position, a.Company, a.LinkedInURL, a.TwitterURL, a.WebsiteURL, now, a.AlumniID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "alumniID", a.AlumniID)
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err, "alumniID", a.AlumniID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	a.UpdatedOn = formatTime(now)
	return nil
}

func (r *alumniRepository) Search(ctx context.Context, f domain.AlumniFilter) ([]domain.Alumni, int32, error) {
	var w whereBuilder
	if f.Name != "" {
		w.add("full_name ILIKE $%d", "%"+f.Name+"%")
	}
	if f.Email != "" {
		w.add("email ILIKE $%d", "%"+f.Email+"%")
	}
	if f.SchoolID != 0 {
		w.add("school_id = $%d", f.SchoolID)
	}
	if f.GraduationYear != "" {
		w.add("graduation_year = $%d", f.GraduationYear)
	}
	if len(f.IDs) > 0 {
		w.add("alumni_id = ANY($%d)", pq.Array(f.IDs))
	}

	var total int32
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alumni`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + alumniColumns + ` FROM alumni` + w.sql() + ` ORDER BY full_name ASC, alumni_id ASC`
	query += w.page(f.Limit, f.Offset)
	logger.DatabaseCall("SELECT", "alumni", "name", f.Name, "schoolID", f.SchoolID)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Alumni
	for rows.Next() {
		a, err := scanAlumni(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	logger.DatabaseResult("SELECT", int64(len(out)), nil, "total", total)
	return out, total, nil
}

func (r *alumniRepository) DeleteByIDs(ctx context.Context, alumniIDs []string) (int64, error) {
	if len(alumniIDs) == 0 {
		return 0, nil
	}
	logger.DatabaseCall("DELETE", "alumni", "count", len(alumniIDs))
	result, err := r.db.ExecContext(ctx, `DELETE FROM alumni WHERE alumni_id = ANY($1)`, pq.Array(alumniIDs))
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err)
		return 0, mapError(err)
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("DELETE", rows, err)
	return rows, err
}

func (r *alumniRepository) Count(ctx context.Context) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alumni`).Scan(&count)
	return count, err
}
