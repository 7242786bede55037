package postgres

import (
	"context"
	"database/sql"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/repository"

	"github.com/google/uuid"
)

const outboxColumns = `id, message_key, kind, to_email, to_name, subject, body, status, attempts,
	COALESCE(last_error, ''), next_attempt_on, created_on, sent_on`

type outboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func scanOutbox(row rowScanner) (*domain.OutboxMessage, error) {
	m := &domain.OutboxMessage{}
	var sentOn sql.NullTime
	err := row.Scan(&m.ID, &m.MessageKey, &m.Kind, &m.ToEmail, &m.ToName, &m.Subject, &m.Body, &m.Status, &m.Attempts,
		&m.LastError, &m.NextAttemptOn, &m.CreatedOn, &sentOn)
	if err != nil {
		return nil, err
	}
	if sentOn.Valid {
		t := sentOn.Time
		m.SentOn = &t
	}
	return m, nil
}

func (r *outboxRepository) Enqueue(ctx context.Context, m *domain.OutboxMessage) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if m.Status == "" {
		m.Status = domain.OutboxStatusPending
	}
	if m.NextAttemptOn.IsZero() {
		m.NextAttemptOn = now
	}
	m.CreatedOn = now

	query := `INSERT INTO notification_outbox (id, message_key, kind, to_email, to_name, subject, body, status, attempts, next_attempt_on, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	logger.DatabaseCall("INSERT", "notification_outbox", "messageKey", m.MessageKey)
	_, err := r.db.ExecContext(ctx, query, m.ID, m.MessageKey, m.Kind, m.ToEmail, m.ToName, m.Subject, m.Body, m.Status, m.Attempts, m.NextAttemptOn, m.CreatedOn)
	logger.DatabaseResult("INSERT", 1, err, "messageKey", m.MessageKey)
	return mapError(err)
}

func (r *outboxRepository) GetByKey(ctx context.Context, messageKey string) (*domain.OutboxMessage, error) {
	m, err := scanOutbox(r.db.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM notification_outbox WHERE message_key = $1`, messageKey))
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *outboxRepository) ListDue(ctx context.Context, now time.Time, limit int32) ([]domain.OutboxMessage, error) {
	query := `SELECT ` + outboxColumns + ` FROM notification_outbox
	          WHERE status = $1 AND next_attempt_on <= $2
	          ORDER BY next_attempt_on ASC LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, domain.OutboxStatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OutboxMessage
	for rows.Next() {
		m, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string, sentOn time.Time) error {
	query := `UPDATE notification_outbox SET status = $1, sent_on = $2, attempts = attempts + 1, last_error = NULL WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, domain.OutboxStatusSent, sentOn, id)
	return err
}

func (r *outboxRepository) MarkAttemptFailed(ctx context.Context, id string, lastError string, nextAttemptOn time.Time, giveUp bool) error {
	status := domain.OutboxStatusPending
	if giveUp {
		status = domain.OutboxStatusFailed
	}
	query := `UPDATE notification_outbox SET status = $1, attempts = attempts + 1, last_error = $2, next_attempt_on = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, status, lastError, nextAttemptOn, id)
	return err
}
