package worker

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

const (
	// defaultRecoveryInterval is how often stale claims are scanned for.
	defaultRecoveryInterval = 2 * time.Minute

	// defaultStaleAge is how long a task may stay claimed before its
	// worker is presumed dead.
	defaultStaleAge = 5 * time.Minute
)

// TaskRecovery reclaims tasks stuck in 'running' after a worker crash:
// back to pending while retries remain, dead_letter otherwise.
type TaskRecovery struct {
	db       *sql.DB
	interval time.Duration
	staleAge time.Duration
}

// NewTaskRecovery creates a recovery loop with default timing.
func NewTaskRecovery(db *sql.DB) *TaskRecovery {
	return &TaskRecovery{db: db, interval: defaultRecoveryInterval, staleAge: defaultStaleAge}
}

// Start blocks until ctx is cancelled.
func (r *TaskRecovery) Start(ctx context.Context) {
	logger.Info("task recovery starting",
		"interval", r.interval.String(), "stale_age", r.staleAge.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *TaskRecovery) sweep(ctx context.Context) {
	requeued, err := r.exec(ctx, `
		UPDATE analysis_tasks SET status = 'pending',
			retry_count = retry_count + 1,
			scheduled_at = NOW(),
			claimed_by = NULL, claimed_at = NULL,
			error_message = 'reclaimed: worker lost'
		WHERE status = 'running'
		  AND claimed_at < NOW() - $1 * INTERVAL '1 second'
		  AND retry_count + 1 < max_retries
	`)
	if err != nil {
		logger.Error("recovery requeue failed", "error", err)
	}

	buried, err := r.exec(ctx, `
		UPDATE analysis_tasks SET status = 'dead_letter',
			retry_count = retry_count + 1,
			completed_at = NOW(),
			error_message = 'reclaimed: retry budget exhausted'
		WHERE status = 'running'
		  AND claimed_at < NOW() - $1 * INTERVAL '1 second'
		  AND retry_count + 1 >= max_retries
	`)
	if err != nil {
		logger.Error("recovery dead-letter failed", "error", err)
	}

	if requeued > 0 || buried > 0 {
		logger.Info("stale tasks reclaimed", "requeued", requeued, "dead_lettered", buried)
	}
}

func (r *TaskRecovery) exec(ctx context.Context, q string) (int64, error) {
	res, err := r.db.ExecContext(ctx, q, int64(r.staleAge.Seconds()))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
