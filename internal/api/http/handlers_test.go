package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "alumni-registry-backend/internal/api/http"
	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/metrics"
	"alumni-registry-backend/internal/repository/memory"
	"alumni-registry-backend/internal/security"
	"alumni-registry-backend/internal/service"
)

type fixture struct {
	router http.Handler
	school *domain.School
	store  *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	school := &domain.School{Code: "KCL", Name: "Kings College", State: "LAG", Level: "HI"}
	require.NoError(t, store.SchoolRepository.Create(context.Background(), school))

	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(reg)
	authority := service.NewAuthService(store.AccountRepository, security.NewTokenManager("0123456789abcdef0123456789abcdef", 0, 0))
	dispatcher := service.NewNotificationDispatcher(store.OutboxRepository, store.EmailLogRepository,
		service.LogTransport{}, service.DispatcherConfig{}, m)
	workflow := service.NewRegistrationWorkflow(service.WorkflowDeps{
		Alumni:      store.AlumniRepository,
		Schools:     store.SchoolRepository,
		Queue:       store.ReviewQueueRepository,
		Sagas:       store.IntakeSagaRepository,
		Authority:   authority,
		Provisioner: service.NewAccountProvisioner(store.AccountRepository),
		Dispatcher:  dispatcher,
		Metrics:     m,
	}, service.WorkflowConfig{})
	directory := service.NewDirectoryService(store.AlumniRepository, store.SchoolRepository)

	h := httpapi.NewHandler(workflow, directory, authority)
	return &fixture{router: httpapi.NewRouter(h, reg), school: school, store: store}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) registration(email string) map[string]any {
	return map[string]any{
		"full_name":       "Chiamaka Obi",
		"email":           email,
		"phone":           "+234 802 000 1111",
		"school_id":       f.school.ID,
		"graduation_year": "1999",
		"admission_year":  "1993",
		"password":        "s3cret-pass",
	}
}

func TestRegisterNew(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/registrations", f.registration("chiamaka@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res service.IntakeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Alumni)
	assert.Equal(t, domain.ReviewStatusPending, res.Item.Status)
	assert.NotZero(t, res.AccountID)

	t.Run("GetAlumni", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/alumni/"+res.Alumni.AlumniID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.Alumni
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, res.Alumni.AlumniID, got.AlumniID)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/registrations", f.registration("chiamaka@example.com"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("ExistingApplicant", func(t *testing.T) {
		body := f.registration("chiamaka@example.com")
		delete(body, "password")
		body["company"] = "Andela"
		rec := f.do(t, http.MethodPost, "/api/v1/alumni/"+res.Alumni.AlumniID+"/registrations", body)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		var upd service.IntakeResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upd))
		assert.Equal(t, domain.ReviewStatusPendingUpdate, upd.Item.Status)
		assert.Equal(t, res.Item.ID, upd.Item.ID)
	})
}

func TestRegisterNew_Validation(t *testing.T) {
	f := newFixture(t)

	body := f.registration("not-an-email")
	rec := f.do(t, http.MethodPost, "/api/v1/registrations", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var e map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "email", e["field"])

	rec = f.do(t, http.MethodPost, "/api/v1/registrations", map[string]any{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAlumni_NotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/alumni/NOPELAG99001HI", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchAlumniAndSchools(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/registrations", f.registration("a@example.com")).Code)

	rec := f.do(t, http.MethodGet, "/api/v1/alumni?name=chiamaka", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Alumni []domain.Alumni `json:"alumni"`
		Total  int32           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int32(1), page.Total)

	rec = f.do(t, http.MethodGet, "/api/v1/alumni?school_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/schools", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var schools []domain.School
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schools))
	assert.Len(t, schools, 1)
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/registrations", f.registration("login@example.com")).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "login@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "login@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	var session service.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.AccessToken)

	rec = f.do(t, http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/me", nil, "Authorization", "Bearer "+session.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/me", nil, "Authorization", "Bearer "+session.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.AuthSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "login@example.com", me.Email)
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/registrations", f.registration("m@example.com")).Code)
	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alumni_registration_intakes_total")
}
