package worker

import (
	"context"
	"time"

	"github.com/shopradar/ads-monitor/internal/pkg/distlock"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/tasks"
)

// SnapshotScheduler enqueues one snapshot_daily_metrics task per day at
// the configured UTC hour. A distributed lock keeps a multi-instance
// deployment from enqueueing duplicates; the snapshot itself upserts on
// (page, date) so even a lost lock stays harmless.
type SnapshotScheduler struct {
	enqueuer Enqueuer
	lock     distlock.DistLock
	hourUTC  int
	now      func() time.Time
}

// NewSnapshotScheduler creates the daily scheduler.
func NewSnapshotScheduler(enqueuer Enqueuer, lock distlock.DistLock, hourUTC int) *SnapshotScheduler {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 2
	}
	return &SnapshotScheduler{enqueuer: enqueuer, lock: lock, hourUTC: hourUTC, now: time.Now}
}

// Start blocks until ctx is cancelled.
func (s *SnapshotScheduler) Start(ctx context.Context) {
	logger.Info("snapshot scheduler starting", "hour_utc", s.hourUTC)
	for {
		wait := s.untilNextRun()
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			s.runOnce(ctx)
		}
	}
}

func (s *SnapshotScheduler) untilNextRun() time.Duration {
	now := s.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

func (s *SnapshotScheduler) runOnce(ctx context.Context) {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		logger.Error("snapshot lock error", "error", err)
		return
	}
	if !acquired {
		logger.Debug("snapshot already scheduled elsewhere")
		return
	}
	defer s.lock.Release(ctx)

	date := s.now().UTC().Format("2006-01-02")
	payload := tasks.SnapshotPayload{Date: date}
	if err := s.enqueuer.Enqueue(ctx, tasks.SnapshotDailyMetrics, payload); err != nil {
		logger.Error("failed to enqueue daily snapshot", "date", date, "error", err)
		return
	}
	logger.Info("daily snapshot enqueued", "date", date)
}
