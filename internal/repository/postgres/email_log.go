package postgres

import (
	"context"
	"database/sql"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
)

type emailLogRepository struct {
	db *sql.DB
}

func NewEmailLogRepository(db *sql.DB) repository.EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) Append(ctx context.Context, e *domain.EmailLog) error {
	if e.CreatedOn.IsZero() {
		e.CreatedOn = time.Now().UTC()
	}
	query := `INSERT INTO email_logs (to_email, subject, body, type, status, message_id, error, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return r.db.QueryRowContext(ctx, query, e.ToEmail, e.Subject, e.Body, e.Type, e.Status, e.MessageID, e.Error, e.CreatedOn).Scan(&e.ID)
}

func (r *emailLogRepository) List(ctx context.Context, limit, offset int32) ([]domain.EmailLog, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_logs`).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, to_email, subject, body, type, status, COALESCE(message_id, ''), COALESCE(error, ''), created_on
	          FROM email_logs ORDER BY created_on DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []domain.EmailLog
	for rows.Next() {
		var e domain.EmailLog
		if err := rows.Scan(&e.ID, &e.ToEmail, &e.Subject, &e.Body, &e.Type, &e.Status, &e.MessageID, &e.Error, &e.CreatedOn); err != nil {
			return nil, 0, err
		}
		logs = append(logs, e)
	}
	return logs, count, rows.Err()
}
