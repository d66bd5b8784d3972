// Package queue hands job references from the accepting process to a bounded
// pool of workers. Delivery is at-least-once: a job whose worker dies before
// acknowledging it becomes claimable again once its lease expires.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by queue implementations.
var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")

	// ErrNoJob is returned by Dequeue when nothing is claimable right now.
	ErrNoJob = errors.New("no job available")

	// ErrRedeliver may be wrapped by a handler error to leave the job
	// unacknowledged so that it is delivered again after its lease expires.
	ErrRedeliver = errors.New("job left for redelivery")
)

// Job is a reference to a unit of work. Payload is opaque to the queue.
type Job struct {
	ID         uuid.UUID
	Name       string
	Payload    string
	Attempts   int
	EnqueuedAt time.Time
}

// Redelivered reports whether this job has been claimed before.
func (j *Job) Redelivered() bool {
	return j.Attempts > 1
}

// Enqueuer accepts new jobs. Enqueue returns once the job is durably queued.
type Enqueuer interface {
	Enqueue(ctx context.Context, name, payload string) (*Job, error)
}

// Source hands out jobs to workers.
type Source interface {
	// Dequeue claims the next job. It returns ErrNoJob when the queue is
	// empty and ErrQueueClosed once the queue will never yield again.
	Dequeue(ctx context.Context) (*Job, error)

	// Complete acknowledges a claimed job so it is never delivered again.
	Complete(ctx context.Context, job *Job) error
}

// LeaseExtender is implemented by sources whose claims expire. The pool
// extends the lease periodically while a handler runs.
type LeaseExtender interface {
	ExtendLease(ctx context.Context, job *Job) error
}

// Queue is both ends of a job queue.
type Queue interface {
	Enqueuer
	Source
}

// Handler executes one job. A returned error is logged and the job is still
// acknowledged unless the error wraps ErrRedeliver.
type Handler func(ctx context.Context, job *Job) error
