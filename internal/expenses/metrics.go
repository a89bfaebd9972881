package expenses

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeDirect = "direct"
	modeQueue  = "queue"
	modeWorker = "worker"
)

// OutboxMetrics counts outbox outcomes. A nil *OutboxMetrics is a no-op.
type OutboxMetrics struct {
	recordedTotal *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox collectors against registerer.
func NewOutboxMetrics(registerer prometheus.Registerer) *OutboxMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pedidos_expense_outbox_recorded_total",
		Help: "Expense entries accepted by the outbox, by mode and reference.",
	}, []string{"mode", "reference"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pedidos_expense_outbox_failures_total",
		Help: "Expense entries the outbox failed to write, by mode and reference.",
	}, []string{"mode", "reference"})
	registerer.MustRegister(recorded, failures)
	return &OutboxMetrics{recordedTotal: recorded, failuresTotal: failures}
}

func (m *OutboxMetrics) recorded(mode, reference string) {
	if m == nil {
		return
	}
	m.recordedTotal.WithLabelValues(mode, reference).Inc()
}

func (m *OutboxMetrics) failed(mode, reference string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(mode, reference).Inc()
}
