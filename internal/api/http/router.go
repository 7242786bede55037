package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alumni-registry-backend/internal/service"
)

// Handler serves the public registration and directory endpoints.
type Handler struct {
	workflow  service.RegistrationWorkflow
	directory service.DirectoryService
	authority service.AccountAuthority
}

func NewHandler(workflow service.RegistrationWorkflow, directory service.DirectoryService, authority service.AccountAuthority) *Handler {
	return &Handler{workflow: workflow, directory: directory, authority: authority}
}

// NewRouter wires all HTTP routes. A nil gatherer serves the default registry on /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *mux.Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := mux.NewRouter()
	r.Use(recoverPanics)
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/registrations", h.RegisterNew).Methods(http.MethodPost)
	api.HandleFunc("/alumni", h.SearchAlumni).Methods(http.MethodGet)
	api.HandleFunc("/alumni/{id:.+}/registrations", h.RegisterExisting).Methods(http.MethodPost)
	api.HandleFunc("/alumni/{id:.+}", h.GetAlumni).Methods(http.MethodGet)
	api.HandleFunc("/schools", h.ListSchools).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	me := api.PathPrefix("/me").Subrouter()
	me.Use(RequireAuth(h.authority))
	me.HandleFunc("", h.Me).Methods(http.MethodGet)

	return r
}
