package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const sagaColumns = `id, email, step, account_id, alumni_id, queue_id, payload, COALESCE(last_error, ''), created_on, updated_on`

type intakeSagaRepository struct {
	db *sql.DB
}

func NewIntakeSagaRepository(db *sql.DB) repository.IntakeSagaRepository {
	return &intakeSagaRepository{db: db}
}

func scanSaga(row rowScanner) (*domain.IntakeSaga, error) {
	s := &domain.IntakeSaga{}
	var accountID, queueID sql.NullInt32
	var alumniID sql.NullString
	var payload []byte
	err := row.Scan(&s.ID, &s.Email, &s.Step, &accountID, &alumniID, &queueID, &payload, &s.LastError, &s.CreatedOn, &s.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if accountID.Valid {
		v := accountID.Int32
		s.AccountID = &v
	}
	if queueID.Valid {
		v := queueID.Int32
		s.QueueID = &v
	}
	if alumniID.Valid {
		v := alumniID.String
		s.AlumniID = &v
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &s.Payload); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *intakeSagaRepository) Create(ctx context.Context, s *domain.IntakeSaga) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	payload, err := json.Marshal(s.Payload)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	s.CreatedOn, s.UpdatedOn = now, now

	query := `INSERT INTO intake_sagas (id, email, step, payload, created_on, updated_on) VALUES ($1, $2, $3, $4, $5, $5)`
	logger.DatabaseCall("INSERT", "intake_sagas", "sagaID", s.ID)
	_, err = r.db.ExecContext(ctx, query, s.ID, s.Email, s.Step, payload, now)
	logger.DatabaseResult("INSERT", 1, err, "sagaID", s.ID)
	return mapError(err)
}

func (r *intakeSagaRepository) GetByID(ctx context.Context, id string) (*domain.IntakeSaga, error) {
	s, err := scanSaga(r.db.QueryRowContext(ctx, `SELECT `+sagaColumns+` FROM intake_sagas WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *intakeSagaRepository) Save(ctx context.Context, s *domain.IntakeSaga) error {
	s.UpdatedOn = time.Now().UTC()
	query := `UPDATE intake_sagas SET step = $1, account_id = $2, alumni_id = $3, queue_id = $4, last_error = $5, updated_on = $6 WHERE id = $7`
	logger.DatabaseCall("UPDATE", "intake_sagas", "sagaID", s.ID, "step", s.Step)
	result, err := r.db.ExecContext(ctx, query, s.Step, s.AccountID, s.AlumniID, s.QueueID, s.LastError, s.UpdatedOn, s.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", rows, err)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *intakeSagaRepository) ListOpen(ctx context.Context, olderThan time.Time, limit int32) ([]domain.IntakeSaga, error) {
	closed := []string{string(domain.SagaStepCompleted), string(domain.SagaStepCompensated)}
	query := `SELECT ` + sagaColumns + ` FROM intake_sagas
	          WHERE NOT (step = ANY($1)) AND updated_on < $2
	          ORDER BY updated_on ASC LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(closed), olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.IntakeSaga
	for rows.Next() {
		s, err := scanSaga(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
