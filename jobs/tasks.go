package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsWarmup pre-computes trainer statistics snapshots.
	TaskStatsWarmup = "stats:warmup"
	// TaskSessionPurge deletes expired session audit rows.
	TaskSessionPurge = "sessions:purge"
)

// StatsWarmupPayload selects which trainers to warm.
type StatsWarmupPayload struct {
	Scope string `json:"scope"`
}

// NewStatsWarmupTask constructs an Asynq task for stats warmup.
func NewStatsWarmupTask(scope string) (*asynq.Task, error) {
	data, err := json.Marshal(StatsWarmupPayload{Scope: scope})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, data), nil
}

// NewSessionPurgeTask constructs an Asynq task for session purge.
func NewSessionPurgeTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskSessionPurge, nil), nil
}
