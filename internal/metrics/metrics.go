package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration workflow.
// All methods are nil-safe so callers may run without metrics.
type Metrics struct {
	// Intake outcomes by kind (new, existing) and result
	Intakes *prometheus.CounterVec

	// Admin decisions by status and result (changed, noop, soft_failure)
	Decisions *prometheus.CounterVec

	// Soft failures by workflow step
	SoftFailures *prometheus.CounterVec

	// Notification delivery attempts by kind and result
	Notifications *prometheus.CounterVec

	// Saga repair outcomes (completed, compensated, failed)
	SagaRepairs *prometheus.CounterVec

	// Store call latency by operation
	StoreLatency *prometheus.HistogramVec
}

// New registers all metrics with the default Prometheus registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers all metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Intakes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_registration_intakes_total",
			Help: "Total registration intakes by kind and result",
		}, []string{"kind", "result"}),

		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_registration_decisions_total",
			Help: "Total review decisions by status and result",
		}, []string{"status", "result"}),

		SoftFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_registration_soft_failures_total",
			Help: "Total logged-and-continued failures by workflow step",
		}, []string{"step"}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_notifications_total",
			Help: "Total notification delivery attempts by kind and result",
		}, []string{"kind", "result"}),

		SagaRepairs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_intake_saga_repairs_total",
			Help: "Total intake saga repair outcomes",
		}, []string{"outcome"}),

		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alumni_store_call_duration_seconds",
			Help:    "Duration of row store calls made by the workflow",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncIntake(kind, result string) {
	if m != nil {
		m.Intakes.WithLabelValues(kind, result).Inc()
	}
}

func (m *Metrics) IncDecision(status, result string) {
	if m != nil {
		m.Decisions.WithLabelValues(status, result).Inc()
	}
}

func (m *Metrics) IncSoftFailure(step string) {
	if m != nil {
		m.SoftFailures.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) IncNotification(kind, result string) {
	if m != nil {
		m.Notifications.WithLabelValues(kind, result).Inc()
	}
}

func (m *Metrics) IncSagaRepair(outcome string) {
	if m != nil {
		m.SagaRepairs.WithLabelValues(outcome).Inc()
	}
}

// ObserveStoreLatency records the duration of one store call.
func (m *Metrics) ObserveStoreLatency(operation string, d time.Duration) {
	if m != nil {
		m.StoreLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
