package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/queue"
)

// DefaultLease is how long a claimed job stays invisible to other workers.
const DefaultLease = 10 * time.Minute

const (
	enqueueJobQuery = `
		INSERT INTO jobs (id, name, payload, attempts, enqueued_at)
		VALUES ($1, $2, $3, 0, $4)`

	// claimJobQuery takes the oldest job that is unleased or whose lease has
	// expired. SKIP LOCKED lets concurrent workers claim different rows.
	claimJobQuery = `
		UPDATE jobs
		SET attempts = attempts + 1, leased_until = $1
		WHERE id = (
			SELECT id FROM jobs
			WHERE leased_until IS NULL OR leased_until < $2
			ORDER BY enqueued_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, name, payload, attempts, enqueued_at`

	completeJobQuery = `DELETE FROM jobs WHERE id = $1 AND attempts = $2`

	extendLeaseQuery = `UPDATE jobs SET leased_until = $1 WHERE id = $2 AND attempts = $3`
)

// JobQueue is a durable queue.Queue on the jobs table. A job is deleted
// when acknowledged; until then it is redelivered whenever its lease expires.
type JobQueue struct {
	db     *sql.DB
	lease  time.Duration
	logger *slog.Logger
	now    func() time.Time
	closed atomic.Bool
}

var (
	_ queue.Queue         = (*JobQueue)(nil)
	_ queue.LeaseExtender = (*JobQueue)(nil)
)

// NewJobQueue creates a JobQueue whose claims last lease. A non-positive
// lease uses DefaultLease.
func NewJobQueue(db *sql.DB, lease time.Duration, logger *slog.Logger) *JobQueue {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &JobQueue{
		db:     db,
		lease:  lease,
		logger: logger.With("component", "postgres_job_queue"),
		now:    domain.Now,
	}
}

// Enqueue implements queue.Enqueuer. The job is committed when it returns.
func (q *JobQueue) Enqueue(ctx context.Context, name, payload string) (*queue.Job, error) {
	if q.closed.Load() {
		return nil, queue.ErrQueueClosed
	}

	job := &queue.Job{
		ID:         uuid.New(),
		Name:       name,
		Payload:    payload,
		EnqueuedAt: q.now(),
	}
	if _, err := q.db.ExecContext(ctx, enqueueJobQuery, job.ID, job.Name, job.Payload, job.EnqueuedAt); err != nil {
		q.logger.ErrorContext(ctx, "failed to enqueue job", "job_name", name, "error", err)
		return nil, fmt.Errorf("failed to insert job: %w", MapError(err))
	}

	q.logger.DebugContext(ctx, "job enqueued", "job_id", job.ID, "job_name", name)
	return job, nil
}

// Dequeue implements queue.Source. It never blocks; ErrNoJob means nothing
// is claimable right now.
func (q *JobQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	if q.closed.Load() {
		return nil, queue.ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := q.now()
	var job queue.Job
	err := q.db.QueryRowContext(ctx, claimJobQuery, now.Add(q.lease), now).
		Scan(&job.ID, &job.Name, &job.Payload, &job.Attempts, &job.EnqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, queue.ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", MapError(err))
	}
	return &job, nil
}

// Complete implements queue.Source. Acknowledging a job whose lease was
// taken over by another claim is a no-op.
func (q *JobQueue) Complete(ctx context.Context, job *queue.Job) error {
	result, err := q.db.ExecContext(ctx, completeJobQuery, job.ID, job.Attempts)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", MapError(err))
	}
	if CheckRowsAffected(result, "job") != nil {
		q.logger.DebugContext(ctx, "job already reclaimed, acknowledgement ignored",
			"job_id", job.ID, "attempt", job.Attempts)
	}
	return nil
}

// ExtendLease implements queue.LeaseExtender. It fails with store.ErrNotFound
// once the claim has been lost.
func (q *JobQueue) ExtendLease(ctx context.Context, job *queue.Job) error {
	result, err := q.db.ExecContext(ctx, extendLeaseQuery, q.now().Add(q.lease), job.ID, job.Attempts)
	if err != nil {
		return fmt.Errorf("failed to extend job lease: %w", MapError(err))
	}
	return CheckRowsAffected(result, "job lease")
}

// Close stops the queue from accepting or handing out jobs. Stored jobs are kept.
func (q *JobQueue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		q.logger.Info("job queue closed")
	}
}
