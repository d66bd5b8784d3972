package sqlite

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
	"github.com/phrazzld/deckforge/internal/store"
)

// DefaultLease is how long a claimed job stays invisible to other workers.
const DefaultLease = 10 * time.Minute

const (
	enqueueJobQuery = `
		INSERT INTO jobs (id, name, payload, attempts, enqueued_at)
		VALUES (?, ?, ?, 0, ?)`

	// claimJobQuery runs as one statement, so SQLite's single writer makes
	// the select and the update atomic.
	claimJobQuery = `
		UPDATE jobs
		SET attempts = attempts + 1, leased_until = ?
		WHERE id = (
			SELECT id FROM jobs
			WHERE leased_until IS NULL OR leased_until < ?
			ORDER BY enqueued_at ASC, rowid ASC
			LIMIT 1
		)
		RETURNING id, name, payload, attempts, enqueued_at`

	completeJobQuery = `DELETE FROM jobs WHERE id = ? AND attempts = ?`

	extendLeaseQuery = `UPDATE jobs SET leased_until = ? WHERE id = ? AND attempts = ?`
)

// JobQueue is a durable queue.Queue on the jobs table.
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
		logger: logger.With("component", "sqlite_job_queue"),
		now:    domain.Now,
	}
}

// Enqueue implements queue.Enqueuer.
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
	_, err := q.db.ExecContext(ctx, enqueueJobQuery, job.ID.String(), job.Name, job.Payload, job.EnqueuedAt.UnixMicro())
	if err != nil {
		q.logger.ErrorContext(ctx, "failed to enqueue job", "job_name", name, "error", err)
		return nil, fmt.Errorf("failed to insert job: %w", MapError(err))
	}

	q.logger.DebugContext(ctx, "job enqueued", "job_id", job.ID, "job_name", name)
	return job, nil
}

// Dequeue implements queue.Source. It returns ErrNoJob when nothing is claimable.
func (q *JobQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	if q.closed.Load() {
		return nil, queue.ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := q.now()
	var (
		job        queue.Job
		id         string
		enqueuedAt int64
	)
	err := q.db.QueryRowContext(ctx, claimJobQuery, now.Add(q.lease).UnixMicro(), now.UnixMicro()).
		Scan(&id, &job.Name, &job.Payload, &job.Attempts, &enqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, queue.ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", MapError(err))
	}

	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse job id %q: %w", id, err)
	}
	job.EnqueuedAt = time.UnixMicro(enqueuedAt).UTC()
	return &job, nil
}

// Complete implements queue.Source. Acknowledging a job whose lease was
// taken over by another claim is a no-op.
func (q *JobQueue) Complete(ctx context.Context, job *queue.Job) error {
	result, err := q.db.ExecContext(ctx, completeJobQuery, job.ID.String(), job.Attempts)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", MapError(err))
	}
	if n, err := rowsAffected(result); err == nil && n == 0 {
		q.logger.DebugContext(ctx, "job already reclaimed, acknowledgement ignored",
			"job_id", job.ID, "attempt", job.Attempts)
	}
	return nil
}

// ExtendLease implements queue.LeaseExtender. It fails with store.ErrNotFound
// once the claim has been lost.
func (q *JobQueue) ExtendLease(ctx context.Context, job *queue.Job) error {
	result, err := q.db.ExecContext(ctx, extendLeaseQuery,
		q.now().Add(q.lease).UnixMicro(), job.ID.String(), job.Attempts)
	if err != nil {
		return fmt.Errorf("failed to extend job lease: %w", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: job lease %s", store.ErrNotFound, job.ID)
	}
	return nil
}

// Close stops the queue from accepting or handing out jobs. Stored jobs are kept.
func (q *JobQueue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		q.logger.Info("job queue closed")
	}
}
