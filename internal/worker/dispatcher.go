// Package worker runs the durable task pipeline: a Postgres-backed
// queue with at-least-once delivery, a claiming worker pool, retry
// backoff, stale-task recovery and the daily snapshot scheduler.
package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// defaultTaskRetries is the per-task retry budget before dead-letter.
const defaultTaskRetries = 3

// Dispatcher enqueues tasks into the analysis_tasks table. It satisfies
// the Dispatcher port of every service package.
type Dispatcher struct{ db *sql.DB }

// NewDispatcher creates a Postgres-backed task dispatcher.
func NewDispatcher(db *sql.DB) *Dispatcher { return &Dispatcher{db: db} }

// Enqueue inserts one pending task, runnable immediately.
func (d *Dispatcher) Enqueue(ctx context.Context, taskName string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", taskName, err)
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO analysis_tasks
			(id, name, payload, status, retry_count, max_retries, scheduled_at, created_at)
		VALUES ($1, $2, $3, 'pending', 0, $4, NOW(), NOW())
	`, uuid.NewString(), taskName, body, defaultTaskRetries)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskName, err)
	}
	return nil
}
