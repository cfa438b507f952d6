package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestDispatcherEnqueue(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO analysis_tasks`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	d := NewDispatcher(db)
	err := d.Enqueue(context.Background(), "compute_shop_score",
		map[string]string{"page_id": "page-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolClaimEmptyQueue(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`UPDATE analysis_tasks SET`).
		WillReturnError(sql.ErrNoRows)

	p := NewPool(db, "w-test", 1, time.Millisecond)
	task, err := p.claim(context.Background())
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestPoolExecuteSuccessCompletes(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE analysis_tasks SET status = 'completed'`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := NewPool(db, "w-test", 1, time.Millisecond)
	var got json.RawMessage
	p.Register("noop", func(_ context.Context, payload json.RawMessage) error {
		got = payload
		return nil
	})

	p.execute(context.Background(), &task{
		ID: "t-1", Name: "noop", Payload: json.RawMessage(`{"x":1}`), MaxRetries: 3,
	})
	assert.JSONEq(t, `{"x":1}`, string(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolExecuteFailureReschedules(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE analysis_tasks SET status = 'pending'`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := NewPool(db, "w-test", 1, time.Millisecond)
	p.Register("flaky", func(context.Context, json.RawMessage) error {
		return errors.New("upstream down")
	})

	p.execute(context.Background(), &task{
		ID: "t-1", Name: "flaky", Payload: json.RawMessage(`{}`),
		RetryCount: 0, MaxRetries: 3,
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolExecuteExhaustedDeadLetters(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE analysis_tasks SET status = 'dead_letter'`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := NewPool(db, "w-test", 1, time.Millisecond)
	p.Register("flaky", func(context.Context, json.RawMessage) error {
		return errors.New("still down")
	})

	p.execute(context.Background(), &task{
		ID: "t-1", Name: "flaky", Payload: json.RawMessage(`{}`),
		RetryCount: 2, MaxRetries: 3,
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolUnknownTaskDeadLetters(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE analysis_tasks SET status = 'dead_letter'`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := NewPool(db, "w-test", 1, time.Millisecond)
	p.execute(context.Background(), &task{
		ID: "t-1", Name: "mystery", Payload: json.RawMessage(`{}`),
		RetryCount: 2, MaxRetries: 3,
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryDelayBounds(t *testing.T) {
	for retries := 0; retries < 6; retries++ {
		for i := 0; i < 50; i++ {
			d := retryDelay(retries)
			assert.GreaterOrEqual(t, d, time.Duration(float64(backoffBase)*(1-backoffJitter)),
				"retries=%d", retries)
			assert.LessOrEqual(t, d, backoffCap, "retries=%d", retries)
		}
	}
	// First retry centers on the base, not the cap.
	assert.Less(t, retryDelay(0), 2*backoffBase)
}
