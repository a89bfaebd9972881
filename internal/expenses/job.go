package expenses

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueName is the asynq queue carrying expense entries.
	QueueName = "expenses"
	// TaskRecord is the task type for one queued expense entry.
	TaskRecord = "expenses:record"
)

// NewRecordTask serialises entry into an asynq task.
func NewRecordTask(entry Entry) (*asynq.Task, error) {
	if err := entry.validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecord, data), nil
}

// RecordJob drains queued expense entries into the ledger.
type RecordJob struct {
	writer  Writer
	logger  *slog.Logger
	metrics *OutboxMetrics
}

// NewRecordJob builds the worker handler.
func NewRecordJob(writer Writer, logger *slog.Logger, metrics *OutboxMetrics) *RecordJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordJob{writer: writer, logger: logger, metrics: metrics}
}

// Handle processes TaskRecord tasks. Malformed payloads are not retried.
func (j *RecordJob) Handle(ctx context.Context, t *asynq.Task) error {
	var entry Entry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		j.logger.Error("expense task payload", slog.Any("error", err))
		return fmt.Errorf("decode expense task: %v: %w", err, asynq.SkipRetry)
	}
	if err := entry.validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if _, err := j.writer.Insert(ctx, entry); err != nil {
		j.metrics.failed(modeWorker, entry.Reference)
		j.logger.Warn("expense task insert", slog.String("reference", entry.Reference), slog.Any("error", err))
		return err
	}
	j.metrics.recorded(modeWorker, entry.Reference)
	return nil
}
