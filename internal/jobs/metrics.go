// Package jobmetrics instruments background task handlers.
package jobmetrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
	// statusDropped marks failures wrapping asynq.SkipRetry; the task will
	// not run again.
	statusDropped = "dropped"
)

// Metrics holds the collectors shared by every task type.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors. A nil registerer uses the process
// default, registered once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() {
		defaultMetrics = register(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pedidos_jobs_total",
			Help: "Processed tasks by type, queue and outcome.",
		}, []string{"job", "queue", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pedidos_jobs_failures_total",
			Help: "Failed task attempts by type and queue.",
		}, []string{"job", "queue"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pedidos_jobs_retries_total",
			Help: "Attempts that were retries of an earlier failure.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pedidos_job_duration_seconds",
			Help:    "Task handler duration.",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 20, 60},
		}, []string{"job"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.retries, m.duration)
	return m
}

// Tracker measures one task attempt.
type Tracker struct {
	metrics *Metrics
	job     string
	queue   string
	start   time.Time
}

// Track starts measuring an attempt of job outside any queue, e.g. a
// handler invoked directly.
func (m *Metrics) Track(job string) *Tracker {
	return m.TrackQueue(job, "")
}

// TrackQueue starts measuring an attempt of job taken from queue.
func (m *Metrics) TrackQueue(job, queue string) *Tracker {
	if queue == "" {
		queue = "direct"
	}
	return &Tracker{metrics: m, job: job, queue: queue, start: time.Now()}
}

// End records the outcome and returns err unchanged.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := statusSuccess
	if err != nil {
		status = statusFailure
		if errors.Is(err, asynq.SkipRetry) {
			status = statusDropped
		}
		t.metrics.failures.WithLabelValues(t.job, t.queue).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, t.queue, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// Middleware instruments every task processed by an asynq mux, labelled by
// task type and the queue the server pulled it from.
func (m *Metrics) Middleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		queue, _ := asynq.GetQueueName(ctx)
		if retry, ok := asynq.GetRetryCount(ctx); ok && retry > 0 && m != nil {
			m.retries.WithLabelValues(t.Type()).Inc()
		}
		return m.TrackQueue(t.Type(), queue).End(next.ProcessTask(ctx, t))
	})
}
