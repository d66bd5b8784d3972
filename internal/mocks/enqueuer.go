package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/queue"
)

var _ queue.Enqueuer = (*MockEnqueuer)(nil)

// MockEnqueuer implements queue.Enqueuer and keeps every accepted job.
type MockEnqueuer struct {
	EnqueueFn func(ctx context.Context, name, payload string) (*queue.Job, error)

	mu   sync.Mutex
	jobs []*queue.Job
}

// Enqueue implements queue.Enqueuer.
func (m *MockEnqueuer) Enqueue(ctx context.Context, name, payload string) (*queue.Job, error) {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, name, payload)
	}
	job := &queue.Job{ID: uuid.New(), Name: name, Payload: payload, EnqueuedAt: time.Now()}
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()
	return job, nil
}

// Jobs returns the accepted jobs in order.
func (m *MockEnqueuer) Jobs() []*queue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*queue.Job(nil), m.jobs...)
}
