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

const reviewColumns = `q.id, q.alumni_id, q.email, q.status, q.created_on, q.updated_on, q.decided_on, q.decided_by`

// activeStatusList must stay in sync with domain.ActiveReviewStatuses and the
// partial unique index review_queue_one_active_per_alumni.
const activeStatusList = `('pending', 'pending_update')`

type reviewQueueRepository struct {
	db *sql.DB
}

func NewReviewQueueRepository(db *sql.DB) repository.ReviewQueueRepository {
	return &reviewQueueRepository{db: db}
}

func scanReviewItem(row rowScanner, extra ...any) (*domain.ReviewItem, error) {
	item := &domain.ReviewItem{}
	var createdOn, updatedOn time.Time
	var decidedOn sql.NullTime
	var decidedBy sql.NullInt32
	dest := append([]any{&item.ID, &item.AlumniID, &item.Email, &item.Status, &createdOn, &updatedOn, &decidedOn, &decidedBy}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	item.CreatedOn = formatTime(createdOn)
	item.UpdatedOn = formatTime(updatedOn)
	item.DecidedOn = formatNullTime(decidedOn)
	if decidedBy.Valid {
		by := decidedBy.Int32
		item.DecidedBy = &by
	}
	return item, nil
}

func (r *reviewQueueRepository) Create(ctx context.Context, item *domain.ReviewItem) error {
	logger.EnterMethod("reviewQueueRepository.Create", "alumniID", item.AlumniID, "status", item.Status)

	query := `INSERT INTO review_queue (alumni_id, email, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $4) RETURNING id`
	logger.DatabaseCall("INSERT", "review_queue", "alumniID", item.AlumniID)

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, item.AlumniID, item.Email, item.Status, now).Scan(&item.ID)
	logger.DatabaseResult("INSERT", 1, err, "queueID", item.ID)
	if err != nil {
		logger.ExitMethodWithError("reviewQueueRepository.Create", err, "alumniID", item.AlumniID)
		return mapError(err)
	}
	item.CreatedOn = formatTime(now)
	item.UpdatedOn = item.CreatedOn
	logger.ExitMethod("reviewQueueRepository.Create", "queueID", item.ID)
	return nil
}

func (r *reviewQueueRepository) GetByID(ctx context.Context, id int32) (*domain.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_queue q WHERE q.id = $1`
	item, err := scanReviewItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

func (r *reviewQueueRepository) GetActiveByAlumni(ctx context.Context, alumniID string) (*domain.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_queue q
	          WHERE q.alumni_id = $1 AND q.status IN ` + activeStatusList + `
	          ORDER BY q.created_on DESC LIMIT 1`
	item, err := scanReviewItem(r.db.QueryRowContext(ctx, query, alumniID))
	if err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

func (r *reviewQueueRepository) Supersede(ctx context.Context, id int32, email string) (*domain.ReviewItem, error) {
	query := `UPDATE review_queue q SET email = $1, status = $2, updated_on = $3
	          WHERE q.id = $4 AND q.status IN ` + activeStatusList + `
	          RETURNING ` + reviewColumns
	logger.DatabaseCall("UPDATE", "review_queue", "queueID", id, "op", "supersede")
	item, err := scanReviewItem(r.db.QueryRowContext(ctx, query, email, domain.ReviewStatusPendingUpdate, time.Now().UTC(), id))
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "queueID", id)
		return nil, mapError(err)
	}
	logger.DatabaseResult("UPDATE", 1, nil, "queueID", id)
	return item, nil
}

func (r *reviewQueueRepository) Decide(ctx context.Context, id int32, status domain.ReviewStatus, decidedBy int32) (*domain.ReviewItem, error) {
	query := `UPDATE review_queue q SET status = $1, decided_on = $2, decided_by = $3, updated_on = $2
	          WHERE q.id = $4 AND q.status IN ` + activeStatusList + `
	          RETURNING ` + reviewColumns
	logger.DatabaseCall("UPDATE", "review_queue", "queueID", id, "status", status)
	item, err := scanReviewItem(r.db.QueryRowContext(ctx, query, status, time.Now().UTC(), decidedBy, id))
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "queueID", id)
		return nil, mapError(err)
	}
	logger.DatabaseResult("UPDATE", 1, nil, "queueID", id)
	return item, nil
}

func (r *reviewQueueRepository) List(ctx context.Context, f domain.ReviewFilter) ([]domain.ReviewItem, int32, error) {
	var w whereBuilder
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		w.add("q.status = ANY($%d)", pq.Array(statuses))
	}
	if f.AlumniID != "" {
		w.add("q.alumni_id = $%d", f.AlumniID)
	}
	if f.Email != "" {
		w.add("q.email ILIKE $%d", "%"+f.Email+"%")
	}
	if f.Search != "" {
		w.add("(a.full_name ILIKE $%[1]d OR q.email ILIKE $%[1]d OR q.alumni_id ILIKE $%[1]d)", "%"+f.Search+"%")
	}

	from := ` FROM review_queue q
	          LEFT JOIN alumni a ON a.alumni_id = q.alumni_id
	          LEFT JOIN schools s ON s.id = a.school_id`

	var total int32
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + reviewColumns + `, COALESCE(a.full_name, ''), COALESCE(s.name, '')` + from + w.sql() +
		` ORDER BY q.created_on DESC, q.id DESC` + w.page(f.Limit, f.Offset)
	logger.DatabaseCall("SELECT", "review_queue JOIN alumni", "statuses", f.Statuses)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.ReviewItem
	for rows.Next() {
		var fullName, schoolName string
		item, err := scanReviewItem(rows, &fullName, &schoolName)
		if err != nil {
			return nil, 0, err
		}
		item.FullName = fullName
		item.SchoolName = schoolName
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	logger.DatabaseResult("SELECT", int64(len(items)), nil, "total", total)
	return items, total, nil
}

func (r *reviewQueueRepository) CountByStatus(ctx context.Context, status domain.ReviewStatus) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_queue WHERE status = $1`, status).Scan(&count)
	return count, err
}

func (r *reviewQueueRepository) DeleteByIDs(ctx context.Context, ids []int32) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	logger.DatabaseCall("DELETE", "review_queue", "count", len(ids))
	result, err := r.db.ExecContext(ctx, `DELETE FROM review_queue WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err)
		return 0, err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("DELETE", rows, err)
	return rows, err
}
