package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sg-pedidos/pedidos/internal/reports"
)

// ReportWarmer is the reporting facade as used by the warmup job.
type ReportWarmer interface {
	SalesByWeek(ctx context.Context, weeks int) ([]reports.SalesPoint, error)
	SalesByMonth(ctx context.Context, months int) ([]reports.SalesPoint, error)
	ProfitAndExpenses(ctx context.Context, periods int) ([]reports.ProfitPoint, error)
}

// ReportsWarmupJob fills the reporting cache ahead of dashboard reads.
type ReportsWarmupJob struct {
	Reports ReportWarmer
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(svc ReportWarmer, logger *slog.Logger) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: svc, Logger: logger, Timeout: 20 * time.Second}
}

// Handle processes reports warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode warmup payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	logger := j.logger()
	if _, err := j.Reports.SalesByWeek(ctx, payload.Weeks); err != nil {
		logger.Error("warm weekly sales", slog.Any("error", err))
		return err
	}
	if _, err := j.Reports.SalesByMonth(ctx, payload.Months); err != nil {
		logger.Error("warm monthly sales", slog.Any("error", err))
		return err
	}
	if _, err := j.Reports.ProfitAndExpenses(ctx, payload.Periods); err != nil {
		logger.Error("warm profit", slog.Any("error", err))
		return err
	}
	logger.Info("completed reports warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ReportsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportsWarmup))
}
