package expenses

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Recorder accepts secondary expense writes. Record never reports failure to
// the caller: the primary operation has already succeeded.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Writer persists a single entry.
type Writer interface {
	Insert(ctx context.Context, entry Entry) (Expense, error)
}

// DirectOutbox writes entries synchronously and swallows failures after
// logging and counting them.
type DirectOutbox struct {
	writer  Writer
	logger  *slog.Logger
	metrics *OutboxMetrics
}

// NewDirectOutbox builds a DirectOutbox.
func NewDirectOutbox(writer Writer, logger *slog.Logger, metrics *OutboxMetrics) *DirectOutbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectOutbox{writer: writer, logger: logger, metrics: metrics}
}

// Record implements Recorder.
func (o *DirectOutbox) Record(ctx context.Context, entry Entry) {
	if err := entry.validate(); err != nil {
		o.fail(entry, err)
		return
	}
	if _, err := o.writer.Insert(ctx, entry); err != nil {
		o.fail(entry, err)
		return
	}
	o.metrics.recorded(modeDirect, entry.Reference)
}

func (o *DirectOutbox) fail(entry Entry, err error) {
	o.metrics.failed(modeDirect, entry.Reference)
	o.logger.Warn("expense outbox write failed", append(entry.logAttrs(), slog.Any("error", err))...)
}

// Enqueuer is the subset of *asynq.Client the queue outbox needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueOutbox hands entries to the background worker.
type QueueOutbox struct {
	client  Enqueuer
	logger  *slog.Logger
	metrics *OutboxMetrics
}

// NewQueueOutbox builds a QueueOutbox.
func NewQueueOutbox(client Enqueuer, logger *slog.Logger, metrics *OutboxMetrics) *QueueOutbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueOutbox{client: client, logger: logger, metrics: metrics}
}

// Record implements Recorder.
func (o *QueueOutbox) Record(ctx context.Context, entry Entry) {
	task, err := NewRecordTask(entry)
	if err == nil {
		_, err = o.client.EnqueueContext(ctx, task, asynq.Queue(QueueName), asynq.MaxRetry(5))
	}
	if err != nil {
		o.metrics.failed(modeQueue, entry.Reference)
		o.logger.Warn("expense outbox enqueue failed", append(entry.logAttrs(), slog.Any("error", err))...)
		return
	}
	o.metrics.recorded(modeQueue, entry.Reference)
}

// logAttrs carries enough of the entry to re-insert it by hand.
func (e Entry) logAttrs() []any {
	attrs := []any{
		slog.String("reference", e.Reference),
		slog.String("description", e.Description),
		slog.String("amount", e.Amount.StringFixed(2)),
		slog.Int("qty", e.Meta.Qty),
	}
	if e.ProductID != nil {
		attrs = append(attrs, slog.String("product_id", e.ProductID.String()))
	}
	if e.Meta.OrderID != nil {
		attrs = append(attrs, slog.String("order_id", e.Meta.OrderID.String()))
	}
	return attrs
}
