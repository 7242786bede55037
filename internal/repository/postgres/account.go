package postgres

import (
	"context"
	"database/sql"
	"time"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/repository"
)

const accountColumns = `id, email, alumni_id, COALESCE(password_hash, ''), role, created_on`

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	acct := &domain.Account{}
	var alumniID sql.NullString
	var createdOn time.Time
	if err := row.Scan(&acct.ID, &acct.Email, &alumniID, &acct.PasswordHash, &acct.Role, &createdOn); err != nil {
		return nil, err
	}
	if alumniID.Valid {
		id := alumniID.String
		acct.AlumniID = &id
	}
	acct.CreatedOn = formatTime(createdOn)
	return acct, nil
}

func (r *accountRepository) Create(ctx context.Context, acct *domain.Account) error {
	logger.EnterMethod("accountRepository.Create", "email", acct.Email)

	var passwordHash any
	if acct.PasswordHash != "" {
		passwordHash = acct.PasswordHash
	}
	if acct.Role == "" {
		acct.Role = domain.AccountRoleAlumni
	}

	query := `INSERT INTO accounts (email, alumni_id, password_hash, role, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	logger.DatabaseCall("INSERT", "accounts", "email", acct.Email)

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, acct.Email, acct.AlumniID, passwordHash, acct.Role, now).Scan(&acct.ID)
	logger.DatabaseResult("INSERT", 1, err, "accountID", acct.ID)
	if err != nil {
		logger.ExitMethodWithError("accountRepository.Create", err, "email", acct.Email)
		return mapError(err)
	}
	acct.CreatedOn = formatTime(now)
	logger.ExitMethod("accountRepository.Create", "accountID", acct.ID)
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int32) (*domain.Account, error) {
	acct, err := scanAccount(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return acct, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	acct, err := scanAccount(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, mapError(err)
	}
	return acct, nil
}

func (r *accountRepository) GetByAlumniID(ctx context.Context, alumniID string) (*domain.Account, error) {
	acct, err := scanAccount(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE alumni_id = $1`, alumniID))
	if err != nil {
		return nil, mapError(err)
	}
	return acct, nil
}

func (r *accountRepository) LinkAlumni(ctx context.Context, id int32, alumniID string) error {
	logger.DatabaseCall("UPDATE", "accounts", "accountID", id, "alumniID", alumniID)
	result, err := r.db.ExecContext(ctx, `UPDATE accounts SET alumni_id = $1 WHERE id = $2 AND alumni_id IS NULL`, alumniID, id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return mapError(err)
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

func (r *accountRepository) DeleteUnlinked(ctx context.Context, id int32) error {
	logger.DatabaseCall("DELETE", "accounts", "accountID", id)
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND alumni_id IS NULL`, id)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err)
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("DELETE", rows, err)
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
