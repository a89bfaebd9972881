package expenses

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	entries []Entry
	err     error
}

func (f *fakeWriter) Insert(ctx context.Context, entry Entry) (Expense, error) {
	if f.err != nil {
		return Expense{}, f.err
	}
	f.entries = append(f.entries, entry)
	return Expense{ID: uuid.New(), Description: entry.Description, Amount: entry.Amount, Reference: entry.Reference, Meta: entry.Meta}, nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Queue: QueueName}, nil
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestStockAdditionEntry(t *testing.T) {
	pid := uuid.New()
	entry, ok := StockAddition(pid, "Tabloide", decimal.RequireFromString("2.00"), 5, true)
	require.True(t, ok)
	assert.True(t, entry.Amount.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, ReferenceStockAddition, entry.Reference)
	assert.Equal(t, 5, entry.Meta.Qty)
	assert.Equal(t, "Compra inicial de stock: Tabloide", entry.Description)

	_, ok = StockAddition(pid, "Tabloide", decimal.RequireFromString("2.00"), 0, true)
	assert.False(t, ok)
	_, ok = StockAddition(pid, "Tabloide", decimal.Zero, 4, false)
	assert.False(t, ok)
}

func TestOrderConsumptionEntry(t *testing.T) {
	orderID, itemID, productID := uuid.New(), uuid.New(), uuid.New()
	entry, ok := OrderConsumption(orderID, itemID, productID, "P-000001", decimal.NewFromInt(2), 3)
	require.True(t, ok)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, ReferenceOrderConsumption, entry.Reference)
	require.NotNil(t, entry.Meta.OrderID)
	assert.Equal(t, orderID, *entry.Meta.OrderID)
	assert.Equal(t, itemID, *entry.Meta.ItemID)
}

func TestDirectOutboxSwallowsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	var logs bytes.Buffer
	writer := &fakeWriter{err: errors.New("connection reset")}
	outbox := NewDirectOutbox(writer, testLogger(&logs), metrics)

	productID := uuid.New()
	entry, _ := StockAddition(productID, "Lona", decimal.NewFromInt(3), 5, false)
	outbox.Record(context.Background(), entry)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failuresTotal.WithLabelValues(modeDirect, ReferenceStockAddition)))
	assert.Contains(t, logs.String(), "expense outbox write failed")
	assert.Contains(t, logs.String(), "connection reset")
	assert.Contains(t, logs.String(), "product_id="+productID.String())
	assert.Contains(t, logs.String(), "amount=15.00")
}

func TestDirectOutboxRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	writer := &fakeWriter{}
	outbox := NewDirectOutbox(writer, nil, metrics)

	entry, _ := StockAddition(uuid.New(), "Lona", decimal.NewFromInt(3), 5, false)
	outbox.Record(context.Background(), entry)

	require.Len(t, writer.entries, 1)
	assert.True(t, writer.entries[0].Amount.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.recordedTotal.WithLabelValues(modeDirect, ReferenceStockAddition)))
}

func TestDirectOutboxRejectsEmptyEntry(t *testing.T) {
	writer := &fakeWriter{}
	outbox := NewDirectOutbox(writer, nil, nil)
	outbox.Record(context.Background(), Entry{Amount: decimal.NewFromInt(1)})
	assert.Empty(t, writer.entries)
}

func TestQueueOutboxEnqueuesAndJobDrains(t *testing.T) {
	enq := &fakeEnqueuer{}
	outbox := NewQueueOutbox(enq, nil, nil)
	entry, _ := OrderConsumption(uuid.New(), uuid.New(), uuid.New(), "P-000002", decimal.RequireFromString("1.50"), 4)

	outbox.Record(context.Background(), entry)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskRecord, enq.tasks[0].Type())

	writer := &fakeWriter{}
	job := NewRecordJob(writer, nil, nil)
	require.NoError(t, job.Handle(context.Background(), enq.tasks[0]))
	require.Len(t, writer.entries, 1)
	assert.True(t, writer.entries[0].Amount.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, entry.Meta.OrderID.String(), writer.entries[0].Meta.OrderID.String())
}

func TestQueueOutboxEnqueueFailureCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	outbox := NewQueueOutbox(&fakeEnqueuer{err: errors.New("redis down")}, nil, metrics)
	entry, _ := StockAddition(uuid.New(), "Vinil", decimal.NewFromInt(1), 1, true)

	outbox.Record(context.Background(), entry)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failuresTotal.WithLabelValues(modeQueue, ReferenceStockAddition)))
}

func TestRecordJobSkipsMalformedPayload(t *testing.T) {
	job := NewRecordJob(&fakeWriter{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskRecord, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestRecordJobRetriesOnWriteFailure(t *testing.T) {
	entry, _ := StockAddition(uuid.New(), "Vinil", decimal.NewFromInt(1), 1, true)
	task, err := NewRecordTask(entry)
	require.NoError(t, err)

	job := NewRecordJob(&fakeWriter{err: errors.New("timeout")}, nil, nil)
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
