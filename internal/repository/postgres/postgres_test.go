package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository"
	"alumni-registry-backend/internal/repository/postgres"
)

var (
	reviewCols = []string{"id", "alumni_id", "email", "status", "created_on", "updated_on", "decided_on", "decided_by"}
	alumniCols = []string{"alumni_id", "full_name", "email", "phone", "school_id", "graduation_year", "admission_year",
		"bio", "position", "company", "linkedin_url", "twitter_url", "website_url", "created_on", "updated_on"}
	accountCols = []string{"id", "email", "alumni_id", "password_hash", "role", "created_on"}
)

type RepositorySuite struct {
	suite.Suite
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *postgres.Store
	ctx   context.Context
}

func (s *RepositorySuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.db = db
	s.mock = mock
	s.store = postgres.NewStore(db)
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) TestReviewQueue_DecideSuccess() {
	now := time.Now()
	s.mock.ExpectQuery(`UPDATE review_queue q SET status = \$1`).
		WithArgs(domain.ReviewStatusApproved, sqlmock.AnyArg(), int32(900), int32(7)).
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow(7, "SPGOYO73001HI", "a@example.com", "approved", now, now, now, 900))

	item, err := s.store.ReviewQueueRepository.Decide(s.ctx, 7, domain.ReviewStatusApproved, 900)
	s.Require().NoError(err)
	s.Equal(domain.ReviewStatusApproved, item.Status)
	s.Require().NotNil(item.DecidedBy)
	s.Equal(int32(900), *item.DecidedBy)
	s.NotNil(item.DecidedOn)
}

func (s *RepositorySuite) TestReviewQueue_DecideZeroRows() {
	s.mock.ExpectQuery(`UPDATE review_queue q SET status = \$1`).
		WithArgs(domain.ReviewStatusRejected, sqlmock.AnyArg(), int32(900), int32(8)).
		WillReturnRows(sqlmock.NewRows(reviewCols))

	item, err := s.store.ReviewQueueRepository.Decide(s.ctx, 8, domain.ReviewStatusRejected, 900)
	s.Nil(item)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestReviewQueue_CreateActiveConflict() {
	s.mock.ExpectQuery(`INSERT INTO review_queue`).
		WithArgs("SPGOYO73001HI", "a@example.com", domain.ReviewStatusPending, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "review_queue_one_active_per_alumni"})

	err := s.store.ReviewQueueRepository.Create(s.ctx, &domain.ReviewItem{
		AlumniID: "SPGOYO73001HI", Email: "a@example.com", Status: domain.ReviewStatusPending,
	})
	s.ErrorIs(err, repository.ErrDuplicate)
}

func (s *RepositorySuite) TestReviewQueue_ListWithFilters() {
	now := time.Now()
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM review_queue q`).
		WithArgs(sqlmock.AnyArg(), "%ade%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	s.mock.ExpectQuery(`SELECT q.id, (.+) ORDER BY q.created_on DESC, q.id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(sqlmock.AnyArg(), "%ade%", int32(10), int32(0)).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, reviewCols...), "full_name", "school_name")).
			AddRow(3, "SPGOYO73001HI", "ade@example.com", "pending", now, now, nil, nil, "Ade Bello", "St. Peter's"))

	items, total, err := s.store.ReviewQueueRepository.List(s.ctx, domain.ReviewFilter{
		Statuses: domain.ActiveReviewStatuses,
		Search:   "ade",
		Limit:    10,
	})
	s.Require().NoError(err)
	s.Equal(int32(1), total)
	s.Require().Len(items, 1)
	s.Equal("Ade Bello", items[0].FullName)
	s.Equal("St. Peter's", items[0].SchoolName)
	s.Nil(items[0].DecidedOn)
}

func (s *RepositorySuite) TestAccount_CreateDuplicateEmail() {
	s.mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs("dup@example.com", nil, "hash", domain.AccountRoleAlumni, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "accounts_email_key"})

	err := s.store.AccountRepository.Create(s.ctx, &domain.Account{Email: "dup@example.com", PasswordHash: "hash"})
	s.ErrorIs(err, repository.ErrDuplicate)
	s.Contains(err.Error(), "accounts_email_key")
}

func (s *RepositorySuite) TestAccount_GetByEmailProvisioned() {
	s.mock.ExpectQuery(`SELECT (.+) FROM accounts WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("Funke@Example.com").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(4, "funke@example.com", "QRCLAG95001HI", "", "alumni", time.Now()))

	acct, err := s.store.AccountRepository.GetByEmail(s.ctx, "Funke@Example.com")
	s.Require().NoError(err)
	s.Require().NotNil(acct.AlumniID)
	s.Equal("QRCLAG95001HI", *acct.AlumniID)
	s.Empty(acct.PasswordHash)
}

func (s *RepositorySuite) TestAccount_LinkAlumniAlreadyLinked() {
	s.mock.ExpectExec(`UPDATE accounts SET alumni_id = \$1 WHERE id = \$2 AND alumni_id IS NULL`).
		WithArgs("QRCLAG95001HI", int32(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.store.AccountRepository.LinkAlumni(s.ctx, 4, "QRCLAG95001HI")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestAlumni_GetByIDNotFound() {
	s.mock.ExpectQuery(`SELECT (.+) FROM alumni WHERE alumni_id = \$1`).
		WithArgs("MISSING").
		WillReturnError(sql.ErrNoRows)

	a, err := s.store.AlumniRepository.GetByID(s.ctx, "MISSING")
	s.Nil(a)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestAlumni_Search() {
	now := time.Now()
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM alumni WHERE full_name ILIKE \$1 AND school_id = \$2`).
		WithArgs("%funke%", int32(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	s.mock.ExpectQuery(`SELECT (.+) FROM alumni WHERE full_name ILIKE \$1 AND school_id = \$2 ORDER BY full_name ASC, alumni_id ASC LIMIT \$3 OFFSET \$4`).
		WithArgs("%funke%", int32(2), int32(20), int32(0)).
		WillReturnRows(sqlmock.NewRows(alumniCols).AddRow(
			"QRCLAG95001HI", "Funke Akindele", "funke@example.com", "+2348030000000", 2, "1995", "1989",
			"", "", "", "", "", "", now, now))

	out, total, err := s.store.AlumniRepository.Search(s.ctx, domain.AlumniFilter{Name: "funke", SchoolID: 2, Limit: 20})
	s.Require().NoError(err)
	s.Equal(int32(1), total)
	s.Require().Len(out, 1)
	s.Equal("QRCLAG95001HI", out[0].AlumniID)
}

func (s *RepositorySuite) TestAlumni_UpdateMissing() {
	s.mock.ExpectExec(`UPDATE alumni SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.store.AlumniRepository.Update(s.ctx, &domain.Alumni{AlumniID: "GONE"})
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestAlumni_DeleteByIDsEmpty() {
	n, err := s.store.AlumniRepository.DeleteByIDs(s.ctx, nil)
	s.NoError(err)
	s.Zero(n)
}

func (s *RepositorySuite) TestOutbox_MarkAttemptFailedGivesUp() {
	next := time.Now().Add(time.Minute)
	s.mock.ExpectExec(`UPDATE notification_outbox SET status = \$1, attempts = attempts \+ 1`).
		WithArgs(domain.OutboxStatusFailed, "connection refused", next, "msg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.store.OutboxRepository.MarkAttemptFailed(s.ctx, "msg-1", "connection refused", next, true)
	s.NoError(err)
}

func (s *RepositorySuite) TestOutbox_EnqueueDuplicateKey() {
	s.mock.ExpectExec(`INSERT INTO notification_outbox`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "notification_outbox_message_key_key"})

	err := s.store.OutboxRepository.Enqueue(s.ctx, &domain.OutboxMessage{MessageKey: "approved:7"})
	s.ErrorIs(err, repository.ErrDuplicate)
}

func TestStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, postgres.NewStore(db).Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
