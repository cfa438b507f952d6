package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopradar/ads-monitor/internal/pkg/logger"
)

// Retry backoff: 1s doubling per attempt, capped at 10s, with ±25%
// jitter so retry storms spread out.
const (
	backoffBase   = time.Second
	backoffFactor = 2
	backoffCap    = 10 * time.Second
	backoffJitter = 0.25
)

// Handler executes one task payload. A returned error schedules a
// retry; nil completes the task. Handlers must be idempotent, the
// queue delivers at least once.
type Handler func(ctx context.Context, payload json.RawMessage) error

// task is one claimed queue row.
type task struct {
	ID         string
	Name       string
	Payload    json.RawMessage
	RetryCount int
	MaxRetries int
}

// Pool claims and executes queued tasks.
type Pool struct {
	db           *sql.DB
	workerID     string
	numWorkers   int
	pollInterval time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewPool creates a worker pool. workerID tags claimed rows so stale
// claims can be traced back to a crashed process.
func NewPool(db *sql.DB, workerID string, numWorkers int, pollInterval time.Duration) *Pool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Pool{
		db:           db,
		workerID:     workerID,
		numWorkers:   numWorkers,
		pollInterval: pollInterval,
		handlers:     map[string]Handler{},
	}
}

// Register binds a handler to a task name.
func (p *Pool) Register(name string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[name] = h
}

func (p *Pool) handler(name string) (Handler, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handlers[name]
	return h, ok
}

// Start runs the pool until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	logger.Info("worker pool starting",
		"worker_id", p.workerID,
		"workers", p.numWorkers,
		"poll_interval", p.pollInterval.String())

	var wg sync.WaitGroup
	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.loop(ctx, n)
		}(i)
	}
	wg.Wait()
	logger.Info("worker pool stopped", "worker_id", p.workerID)
}

func (p *Pool) loop(ctx context.Context, n int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		t, err := p.claim(ctx)
		if err != nil {
			logger.Error("claim failed", "worker", n, "error", err)
		}
		if t == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.pollInterval):
			}
			continue
		}
		p.execute(ctx, t)
	}
}

// claim takes the oldest runnable task. SKIP LOCKED keeps concurrent
// workers from fighting over the same row.
func (p *Pool) claim(ctx context.Context) (*task, error) {
	t := &task{}
	err := p.db.QueryRowContext(ctx, `
		UPDATE analysis_tasks SET
			status = 'running',
			claimed_by = $1,
			claimed_at = NOW()
		WHERE id = (
			SELECT id FROM analysis_tasks
			WHERE status = 'pending' AND scheduled_at <= NOW()
			ORDER BY scheduled_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, name, payload, retry_count, max_retries
	`, p.workerID).Scan(&t.ID, &t.Name, &t.Payload, &t.RetryCount, &t.MaxRetries)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return t, nil
}

func (p *Pool) execute(ctx context.Context, t *task) {
	h, ok := p.handler(t.Name)
	if !ok {
		logger.Error("no handler registered", "task", t.Name, "task_id", t.ID)
		p.fail(ctx, t, fmt.Errorf("no handler for %s", t.Name))
		return
	}

	start := time.Now()
	err := h(ctx, t.Payload)
	if err != nil {
		logger.Warn("task failed",
			"task", t.Name, "task_id", t.ID,
			"attempt", t.RetryCount+1, "error", err)
		p.fail(ctx, t, err)
		return
	}

	if _, err := p.db.ExecContext(ctx, `
		UPDATE analysis_tasks SET status = 'completed', completed_at = NOW(),
			error_message = NULL
		WHERE id = $1
	`, t.ID); err != nil {
		logger.Error("failed to complete task", "task_id", t.ID, "error", err)
	}
	logger.Debug("task completed",
		"task", t.Name, "task_id", t.ID,
		"duration_ms", time.Since(start).Milliseconds())
}

// fail reschedules the task with backoff, or dead-letters it once the
// retry budget is spent.
func (p *Pool) fail(ctx context.Context, t *task, cause error) {
	if t.RetryCount+1 >= t.MaxRetries {
		if _, err := p.db.ExecContext(ctx, `
			UPDATE analysis_tasks SET status = 'dead_letter',
				retry_count = retry_count + 1,
				error_message = $2, completed_at = NOW()
			WHERE id = $1
		`, t.ID, cause.Error()); err != nil {
			logger.Error("failed to dead-letter task", "task_id", t.ID, "error", err)
		}
		logger.Error("task dead-lettered",
			"task", t.Name, "task_id", t.ID, "error", cause)
		return
	}

	delay := retryDelay(t.RetryCount)
	if _, err := p.db.ExecContext(ctx, `
		UPDATE analysis_tasks SET status = 'pending',
			retry_count = retry_count + 1,
			error_message = $2,
			scheduled_at = NOW() + $3 * INTERVAL '1 millisecond',
			claimed_by = NULL, claimed_at = NULL
		WHERE id = $1
	`, t.ID, cause.Error(), delay.Milliseconds()); err != nil {
		logger.Error("failed to reschedule task", "task_id", t.ID, "error", err)
	}
}

// retryDelay computes the backoff before attempt retries+2.
func retryDelay(retries int) time.Duration {
	d := backoffBase
	for i := 0; i < retries; i++ {
		d *= backoffFactor
		if d >= backoffCap {
			d = backoffCap
			break
		}
	}
	jitter := 1 + backoffJitter*(2*rand.Float64()-1)
	out := time.Duration(float64(d) * jitter)
	if out > backoffCap {
		out = backoffCap
	}
	return out
}
