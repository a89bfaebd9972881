package jobmetrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.TrackQueue("expenses:record", "expenses").End(nil))
	err := errors.New("boom")
	assert.Same(t, err, m.TrackQueue("expenses:record", "expenses").End(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("expenses:record", "expenses", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("expenses:record", "expenses", statusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("expenses:record", "expenses")))
}

func TestTrackerDroppedOnSkipRetry(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	err := fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	assert.Same(t, err, m.Track("reports:warmup").End(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:warmup", "direct", statusDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("reports:warmup", "direct")))
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var m *Metrics
	err := errors.New("boom")
	assert.Same(t, err, m.Track("x").End(err))

	h := m.Middleware(asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return err }))
	assert.Same(t, err, h.ProcessTask(context.Background(), asynq.NewTask("x", nil)))
}

func TestMiddlewareTracksTaskType(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	h := m.Middleware(asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		return nil
	}))

	assert.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask("expenses:record", nil)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("expenses:record", "direct", statusSuccess)))
	assert.Zero(t, testutil.ToFloat64(m.retries.WithLabelValues("expenses:record")))
}
