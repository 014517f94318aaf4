package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elitefit-gym/trainer-portal/internal/activity"
	"github.com/elitefit-gym/trainer-portal/internal/nutrition"
	"github.com/elitefit-gym/trainer-portal/internal/profile"
	"github.com/elitefit-gym/trainer-portal/internal/workouts"
)

// StatsWarmupJob pre-computes the statistics snapshots for every active
// trainer so the first dashboard view of the day hits a warm cache.
type StatsWarmupJob struct {
	activity  *activity.Service
	workouts  *workouts.Service
	nutrition *nutrition.Service
	profiles  *profile.Service
	pool      *pgxpool.Pool
	logger    *slog.Logger
}

// NewStatsWarmupJob constructs the warmup job.
func NewStatsWarmupJob(activitySvc *activity.Service, workoutsSvc *workouts.Service, nutritionSvc *nutrition.Service, profiles *profile.Service, pool *pgxpool.Pool, logger *slog.Logger) *StatsWarmupJob {
	return &StatsWarmupJob{
		activity:  activitySvc,
		workouts:  workoutsSvc,
		nutrition: nutritionSvc,
		profiles:  profiles,
		pool:      pool,
		logger:    logger,
	}
}

// Handle processes TaskStatsWarmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StatsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	query := `SELECT id FROM trainers WHERE is_active`
	if payload.Scope == "all" {
		query = `SELECT id FROM trainers`
	}
	rows, err := j.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	var trainerIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		trainerIDs = append(trainerIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, trainerID := range trainerIDs {
		tz := j.profiles.Timezone(ctx, trainerID)
		j.activity.Stats(ctx, trainerID, tz)
		j.workouts.Stats(ctx, trainerID, tz)
		j.nutrition.Stats(ctx, trainerID, tz)
	}
	j.logger.Info("stats warmup complete", slog.Int("trainers", len(trainerIDs)))
	return nil
}
