package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
)

// MemoryQueue is a buffered in-process queue. Jobs are lost if the process
// exits, so it is only suitable when workers run inside the accepting process.
type MemoryQueue struct {
	jobs   chan *Job
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a new queue with the specified buffer size.
func NewMemoryQueue(size int, logger *slog.Logger) *MemoryQueue {
	if size <= 0 {
		size = 100
	}
	return &MemoryQueue{
		jobs:   make(chan *Job, size),
		logger: logger.With("component", "memory_queue"),
	}
}

// Enqueue adds a job to the queue. It never blocks: a full queue returns
// ErrQueueFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, name, payload string) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrQueueClosed
	}

	job := &Job{
		ID:         uuid.New(),
		Name:       name,
		Payload:    payload,
		EnqueuedAt: domain.Now(),
	}

	select {
	case q.jobs <- job:
		q.logger.Debug("job enqueued",
			"job_id", job.ID,
			"job_name", name,
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return job, nil
	default:
		return nil, fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// Dequeue blocks until a job is available, the queue is closed, or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case job, ok := <-q.jobs:
		if !ok {
			return nil, ErrQueueClosed
		}
		job.Attempts++
		return job, nil
	}
}

// Complete implements Source. In-memory jobs are removed when dequeued.
func (q *MemoryQueue) Complete(context.Context, *Job) error {
	return nil
}

// Len returns the number of queued jobs.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Close prevents further submission. Jobs already queued can still be dequeued.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Info("job queue closed")
	}
}
