// Package app builds the service graph shared by the server and cronjob binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"alumni-registry-backend/internal/config"
	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/jobs"
	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/metrics"
	"alumni-registry-backend/internal/repository"
	"alumni-registry-backend/internal/repository/memory"
	"alumni-registry-backend/internal/repository/postgres"
	"alumni-registry-backend/internal/security"
	"alumni-registry-backend/internal/service"
)

// Repositories is the storage surface the services depend on.
type Repositories struct {
	Alumni   repository.AlumniRepository
	Schools  repository.SchoolRepository
	Queue    repository.ReviewQueueRepository
	Accounts repository.AccountRepository
	Outbox   repository.OutboxRepository
	Logs     repository.EmailLogRepository
	Sagas    repository.IntakeSagaRepository
}

type App struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Repos    Repositories

	Tokens     security.TokenManager
	Authority  service.AccountAuthority
	Dispatcher service.NotificationDispatcher
	Workflow   service.RegistrationWorkflow
	Admin      service.AdminReviewService
	Directory  service.DirectoryService
	Jobs       *jobs.JobRunner

	db *sql.DB
}

// New opens storage and wires every service from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewWithRegisterer(a.Registry)

	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}

	transport, err := NewMailTransport(cfg.Notification)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Tokens = security.NewTokenManager(cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute,
	)
	a.Authority = service.NewAuthService(a.Repos.Accounts, a.Tokens)
	a.Dispatcher = service.NewNotificationDispatcher(a.Repos.Outbox, a.Repos.Logs, transport, service.DispatcherConfig{
		Timeout:     cfg.Notification.Timeout,
		MaxAttempts: int32(cfg.Notification.MaxAttempts),
		LoginURL:    cfg.Notification.LoginURL,
	}, a.Metrics)
	a.Workflow = service.NewRegistrationWorkflow(service.WorkflowDeps{
		Alumni:      a.Repos.Alumni,
		Schools:     a.Repos.Schools,
		Queue:       a.Repos.Queue,
		Sagas:       a.Repos.Sagas,
		Authority:   a.Authority,
		Provisioner: service.NewAccountProvisioner(a.Repos.Accounts),
		Dispatcher:  a.Dispatcher,
		Metrics:     a.Metrics,
	}, service.WorkflowConfig{
		StoreTimeout:    cfg.Registration.StoreTimeout,
		IdentityRetries: cfg.Registration.IdentityRetries,
		LoginURL:        cfg.Notification.LoginURL,
	})
	a.Admin = service.NewAdminService(a.Workflow, a.Repos.Queue, a.Repos.Alumni, a.Repos.Schools, a.Repos.Logs)
	a.Directory = service.NewDirectoryService(a.Repos.Alumni, a.Repos.Schools)
	a.Jobs = jobs.NewJobRunner(&jobs.Services{Notifications: a.Dispatcher, Workflow: a.Workflow}, cfg)
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	switch a.Config.Storage.Type {
	case "memory":
		store := memory.NewStore()
		for _, seed := range a.Config.Storage.SeedSchools {
			school := &domain.School{Code: seed.Code, Name: seed.Name, State: seed.State, Level: seed.Level}
			if err := store.SchoolRepository.Create(ctx, school); err != nil {
				return fmt.Errorf("failed to seed school %s: %w", seed.Code, err)
			}
		}
		logger.Info("Using in-memory storage", "schools", len(a.Config.Storage.SeedSchools))
		a.Repos = Repositories{
			Alumni:   store.AlumniRepository,
			Schools:  store.SchoolRepository,
			Queue:    store.ReviewQueueRepository,
			Accounts: store.AccountRepository,
			Outbox:   store.OutboxRepository,
			Logs:     store.EmailLogRepository,
			Sagas:    store.IntakeSagaRepository,
		}
		return nil
	default:
		logger.Info("Connecting to database...", "host", a.Config.Database.Host, "port", a.Config.Database.Port, "database", a.Config.Database.Database)
		db, err := sql.Open("postgres", a.Config.GetDatabaseConnectionString())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		store := postgres.NewStore(db)
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			db.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")
		a.db = db
		a.Repos = Repositories{
			Alumni:   store.AlumniRepository,
			Schools:  store.SchoolRepository,
			Queue:    store.ReviewQueueRepository,
			Accounts: store.AccountRepository,
			Outbox:   store.OutboxRepository,
			Logs:     store.EmailLogRepository,
			Sagas:    store.IntakeSagaRepository,
		}
		return nil
	}
}

// NewMailTransport selects the notification transport named in cfg.
func NewMailTransport(cfg config.NotificationConfig) (service.MailTransport, error) {
	switch cfg.Transport {
	case "http":
		logger.Info("Using HTTP mail transport", "endpoint", cfg.Endpoint)
		return service.NewHTTPTransport(cfg.Endpoint, cfg.Timeout), nil
	case "sendgrid":
		logger.Info("Using SendGrid mail transport", "from", cfg.FromEmail)
		return service.NewSendGridTransport(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName), nil
	case "log", "":
		logger.Info("Using log mail transport")
		return service.LogTransport{}, nil
	}
	return nil, fmt.Errorf("unsupported notification transport: %s", cfg.Transport)
}

// Close releases the database handle, if any.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
}
