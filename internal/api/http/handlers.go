package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/service"
)

type registrationRequest struct {
	domain.Profile
	Password string `json:"password,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type alumniPage struct {
	Alumni []domain.Alumni `json:"alumni"`
	Total  int32           `json:"total"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterNew handles a first-time self-service registration.
func (h *Handler) RegisterNew(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.workflow.IntakeNew(r.Context(), service.NewApplicantIntake{Profile: req.Profile, Password: req.Password})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// RegisterExisting resubmits profile data for an alumni record found via search.
func (h *Handler) RegisterExisting(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.workflow.IntakeExisting(r.Context(), service.ExistingApplicantIntake{
		AlumniID: mux.Vars(r)["id"],
		Profile:  req.Profile,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) SearchAlumni(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AlumniFilter{
		Name:           q.Get("name"),
		Email:          q.Get("email"),
		GraduationYear: q.Get("graduation_year"),
	}
	var err error
	if filter.SchoolID, err = queryInt(q.Get("school_id"), "school_id"); err != nil {
		writeError(w, err)
		return
	}
	if filter.Limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		writeError(w, err)
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset"), "offset"); err != nil {
		writeError(w, err)
		return
	}

	alumni, total, err := h.directory.SearchAlumni(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if alumni == nil {
		alumni = []domain.Alumni{}
	}
	writeJSON(w, http.StatusOK, alumniPage{Alumni: alumni, Total: total})
}

func (h *Handler) GetAlumni(w http.ResponseWriter, r *http.Request) {
	a, err := h.directory.GetAlumni(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) ListSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.directory.ListSchools(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if schools == nil {
		schools = []domain.School{}
	}
	writeJSON(w, http.StatusOK, schools)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.authority.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := h.authority.GetCurrentUser(r.Context())
	if !ok {
		writeError(w, service.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func queryInt(raw, field string) (int32, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, &service.ValidationError{Field: field, Message: "must be an integer"}
	}
	return int32(n), nil
}
