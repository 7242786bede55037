package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/identity"
	"alumni-registry-backend/internal/metrics"
	"alumni-registry-backend/internal/repository"
	"alumni-registry-backend/internal/repository/memory"
	"alumni-registry-backend/internal/security"
	"alumni-registry-backend/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	adminSession  = &domain.AuthSession{AccountID: 900, Email: "admin@example.com", Role: domain.AccountRoleAdmin}
	alumniSession = &domain.AuthSession{AccountID: 5, Email: "someone@example.com", Role: domain.AccountRoleAlumni}
)

// recordingTransport captures delivered messages and can be told to fail.
type recordingTransport struct {
	mu   sync.Mutex
	sent []service.OutboundEmail
	err  error
}

func (t *recordingTransport) Deliver(ctx context.Context, msg service.OutboundEmail) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return "", t.err
	}
	t.sent = append(t.sent, msg)
	return "msg-" + string(msg.Type), nil
}

func (t *recordingTransport) kinds() []domain.NotificationKind {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(t.sent))
	for _, m := range t.sent {
		out = append(out, m.Type)
	}
	return out
}

// MockTransport is a testify mock of the mail transport.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Deliver(ctx context.Context, msg service.OutboundEmail) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

// MockAccountRepo is a testify mock of the account store.
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acct *domain.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}
func (m *MockAccountRepo) GetByID(ctx context.Context, id int32) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepo) GetByAlumniID(ctx context.Context, alumniID string) (*domain.Account, error) {
	args := m.Called(ctx, alumniID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepo) LinkAlumni(ctx context.Context, id int32, alumniID string) error {
	args := m.Called(ctx, id, alumniID)
	return args.Error(0)
}
func (m *MockAccountRepo) DeleteUnlinked(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// denyingQueue simulates a row-level permission failure: every decision
// update affects zero rows.
type denyingQueue struct {
	repository.ReviewQueueRepository
}

func (q denyingQueue) Decide(ctx context.Context, id int32, status domain.ReviewStatus, decidedBy int32) (*domain.ReviewItem, error) {
	return nil, repository.ErrNotFound
}

// failingAlumni makes every insert fail with a non-duplicate error.
type failingAlumni struct {
	repository.AlumniRepository
}

func (a failingAlumni) Create(ctx context.Context, alumni *domain.Alumni) error {
	return errors.New("connection reset by peer")
}

type harness struct {
	store     *memory.Store
	school    *domain.School
	transport *recordingTransport
	authority service.AccountAuthority
	workflow  service.RegistrationWorkflow
	admin     service.AdminReviewService
	deps      service.WorkflowDeps
}

type harnessConfig struct {
	deps      service.WorkflowDeps
	transport service.MailTransport
}

type harnessOption func(*harnessConfig)

// withQueue wraps the store's review queue.
func withQueue(wrap func(repository.ReviewQueueRepository) repository.ReviewQueueRepository) harnessOption {
	return func(c *harnessConfig) { c.deps.Queue = wrap(c.deps.Queue) }
}

// withAlumni wraps the store's alumni repository.
func withAlumni(wrap func(repository.AlumniRepository) repository.AlumniRepository) harnessOption {
	return func(c *harnessConfig) { c.deps.Alumni = wrap(c.deps.Alumni) }
}

func withSequence(draws ...int) harnessOption {
	return func(c *harnessConfig) {
		var mu sync.Mutex
		i := 0
		c.deps.Generator = identity.NewGenerator(identity.SequencerFunc(func() int {
			mu.Lock()
			defer mu.Unlock()
			n := draws[i%len(draws)]
			i++
			return n
		}))
	}
}

func withTransport(t service.MailTransport) harnessOption {
	return func(c *harnessConfig) { c.transport = t }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	school := &domain.School{Code: "SPG", Name: "St. Peter's Grammar School", State: "OYO", Level: "HI"}
	require.NoError(t, store.SchoolRepository.Create(ctx, school))

	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	h := &harness{store: store, school: school, transport: &recordingTransport{}}
	h.authority = service.NewAuthService(store.AccountRepository, security.NewTokenManager(testSecret, 0, 0))

	cfg := harnessConfig{
		deps: service.WorkflowDeps{
			Alumni:      store.AlumniRepository,
			Schools:     store.SchoolRepository,
			Queue:       store.ReviewQueueRepository,
			Sagas:       store.IntakeSagaRepository,
			Authority:   h.authority,
			Provisioner: service.NewAccountProvisioner(store.AccountRepository),
			Metrics:     m,
		},
		transport: h.transport,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.deps.Dispatcher = service.NewNotificationDispatcher(
		store.OutboxRepository, store.EmailLogRepository, cfg.transport,
		service.DispatcherConfig{LoginURL: "https://alumni.example.com/login"}, m)

	h.deps = cfg.deps
	h.workflow = service.NewRegistrationWorkflow(cfg.deps, service.WorkflowConfig{
		LoginURL: "https://alumni.example.com/login",
	})
	h.admin = service.NewAdminService(h.workflow, cfg.deps.Queue, store.AlumniRepository, store.SchoolRepository, store.EmailLogRepository)
	return h
}

func (h *harness) profile(email string) domain.Profile {
	return domain.Profile{
		FullName:       "Goodluck Adeyemi",
		Email:          email,
		Phone:          "+234 803 555 0101",
		SchoolID:       h.school.ID,
		GraduationYear: "1973",
		AdmissionYear:  "1968",
		Company:        "Lagos Works",
	}
}

// seedAlumni inserts an existing record and a pending review item for it.
func (h *harness) seedAlumni(t *testing.T, alumniID, email string) *domain.ReviewItem {
	t.Helper()
	ctx := context.Background()
	a := &domain.Alumni{AlumniID: alumniID}
	a.ApplyProfile(h.profile(email))
	require.NoError(t, h.store.AlumniRepository.Create(ctx, a))
	item := &domain.ReviewItem{AlumniID: alumniID, Email: email, Status: domain.ReviewStatusPending}
	require.NoError(t, h.store.ReviewQueueRepository.Create(ctx, item))
	return item
}

func (h *harness) activeItems(t *testing.T, alumniID string) []domain.ReviewItem {
	t.Helper()
	items, _, err := h.store.ReviewQueueRepository.List(context.Background(), domain.ReviewFilter{
		AlumniID: alumniID,
		Statuses: domain.ActiveReviewStatuses,
	})
	require.NoError(t, err)
	return items
}
