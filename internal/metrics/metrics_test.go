package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncDecision("approved", "changed")
	m.IncDecision("approved", "changed")
	m.IncSoftFailure("approve.update_status")
	m.ObserveStoreLatency("review_queue.decide", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("approved", "changed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SoftFailures.WithLabelValues("approve.update_status")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncIntake("new", "ok")
		m.IncSagaRepair("completed")
		m.ObserveStoreLatency("x", time.Second)
	})
}
