package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/elitefit-gym/trainer-portal/internal/auth"
)

// SessionPurgeJob removes expired session audit rows.
type SessionPurgeJob struct {
	auth   *auth.Service
	logger *slog.Logger
}

// NewSessionPurgeJob constructs the purge job.
func NewSessionPurgeJob(authSvc *auth.Service, logger *slog.Logger) *SessionPurgeJob {
	return &SessionPurgeJob{auth: authSvc, logger: logger}
}

// Handle processes TaskSessionPurge tasks.
func (j *SessionPurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	purged, err := j.auth.PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("purged expired sessions", slog.Int64("count", purged))
	return nil
}
