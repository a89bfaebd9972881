package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup precomputes the reporting cache.
	TaskReportsWarmup = "reports:warmup"
)

// ReportsWarmupPayload selects the report windows to warm. Zero values use
// the reporting defaults.
type ReportsWarmupPayload struct {
	Weeks   int `json:"weeks,omitempty"`
	Months  int `json:"months,omitempty"`
	Periods int `json:"periods,omitempty"`
}

// NewReportsWarmupTask constructs an Asynq task.
func NewReportsWarmupTask(payload ReportsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportsWarmup, data, asynq.Queue(QueueDefault)), nil
}
