package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/deckforge/internal/platform/logger"
)

// Job results reported to the Observer.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultPanic     = "panic"
	ResultRedeliver = "redeliver"
	ResultUnknown   = "unknown_job"
)

// DefaultConcurrency is the default number of jobs executed at once.
const DefaultConcurrency = 5

// PoolConfig holds configuration options for the worker pool.
type PoolConfig struct {
	// Concurrency is the number of worker goroutines and therefore the
	// maximum number of jobs in flight. If zero or negative, defaults to
	// DefaultConcurrency.
	Concurrency int

	// PollInterval is how long an idle worker waits before asking an empty
	// queue again.
	PollInterval time.Duration

	// LeaseRenewInterval is how often a running job's lease is extended when
	// the source supports leases. Zero disables renewal.
	LeaseRenewInterval time.Duration
}

// DefaultPoolConfig returns a PoolConfig with reasonable defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Concurrency:        DefaultConcurrency,
		PollInterval:       time.Second,
		LeaseRenewInterval: 3 * time.Minute,
	}
}

// Observer receives job lifecycle notifications, typically for metrics.
type Observer interface {
	JobStarted(ctx context.Context, name string)
	JobFinished(ctx context.Context, name, result string, elapsed time.Duration)
}

// Pool runs registered handlers for jobs taken from a Source with bounded
// concurrency.
type Pool struct {
	source   Source
	config   PoolConfig
	logger   *slog.Logger
	observer Observer

	mu       sync.RWMutex
	handlers map[string]Handler

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewPool creates a new worker pool with the specified configuration.
func NewPool(source Source, config PoolConfig, logger *slog.Logger) *Pool {
	if config.Concurrency <= 0 {
		logger.Warn("invalid worker concurrency specified, using default",
			"specified_count", config.Concurrency,
			"default_count", DefaultConcurrency)
		config.Concurrency = DefaultConcurrency
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}

	return &Pool{
		source:   source,
		config:   config,
		logger:   logger.With("component", "worker_pool"),
		handlers: make(map[string]Handler),
	}
}

// Register binds handler to jobs named name, replacing any previous handler.
func (p *Pool) Register(name string, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[name] = handler
}

// SetObserver installs an observer for job lifecycle notifications.
func (p *Pool) SetObserver(o Observer) {
	p.observer = o
}

// Start launches the workers. They run until Stop is called or ctx is done.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.logger.Info("starting worker pool", "concurrency", p.config.Concurrency)
	for i := 0; i < p.config.Concurrency; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop signals the workers to stop taking new jobs and waits for in-flight
// jobs to finish or for ctx to be done, whichever comes first.
func (p *Pool) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool stop: %w", ctx.Err())
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.logger.With("worker_id", id)
	log.Debug("starting worker")

	for {
		if ctx.Err() != nil {
			log.Debug("stopping worker")
			return
		}

		job, err := p.source.Dequeue(ctx)
		switch {
		case err == nil:
			p.process(ctx, job, log)
		case errors.Is(err, ErrQueueClosed):
			log.Debug("job queue closed, stopping worker")
			return
		case ctx.Err() != nil:
			continue
		default:
			if !errors.Is(err, ErrNoJob) {
				log.Error("failed to dequeue job", "error", err)
			}
			select {
			case <-ctx.Done():
			case <-time.After(p.config.PollInterval):
			}
		}
	}
}

// process runs one job. The handler context survives Stop so that in-flight
// jobs can finish during a graceful shutdown.
func (p *Pool) process(poolCtx context.Context, job *Job, workerLog *slog.Logger) {
	log := workerLog.With(
		"job_id", job.ID,
		"job_name", job.Name,
		"attempt", job.Attempts,
	)
	ctx := logger.WithLogger(context.WithoutCancel(poolCtx), log)

	p.mu.RLock()
	handler, ok := p.handlers[job.Name]
	p.mu.RUnlock()

	p.started(ctx, job.Name)
	if !ok {
		log.Warn("no handler registered for job, discarding")
		p.complete(ctx, job, log)
		p.finished(ctx, job.Name, ResultUnknown, 0)
		return
	}

	start := time.Now()

	stopRenew := p.renewLease(ctx, job, log)
	result, err := p.run(ctx, handler, job)
	stopRenew()

	elapsed := time.Since(start)
	switch result {
	case ResultOK:
		log.Info("job completed", "duration_ms", elapsed.Milliseconds())
	case ResultRedeliver:
		log.Warn("job left for redelivery", "error", err)
		p.finished(ctx, job.Name, result, elapsed)
		return
	default:
		log.Error("job failed", "error", err, "result", result)
	}

	p.complete(ctx, job, log)
	p.finished(ctx, job.Name, result, elapsed)
}

func (p *Pool) run(ctx context.Context, handler Handler, job *Job) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ResultPanic
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	err = handler(ctx, job)
	switch {
	case err == nil:
		return ResultOK, nil
	case errors.Is(err, ErrRedeliver):
		return ResultRedeliver, err
	default:
		return ResultError, err
	}
}

// renewLease extends the job's lease until the returned func is called.
func (p *Pool) renewLease(ctx context.Context, job *Job, log *slog.Logger) func() {
	extender, ok := p.source.(LeaseExtender)
	if !ok || p.config.LeaseRenewInterval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(p.config.LeaseRenewInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := extender.ExtendLease(ctx, job); err != nil && ctx.Err() == nil {
					log.Warn("failed to extend job lease", "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (p *Pool) complete(ctx context.Context, job *Job, log *slog.Logger) {
	if err := p.source.Complete(ctx, job); err != nil {
		log.Error("failed to acknowledge job", "error", err)
	}
}

func (p *Pool) started(ctx context.Context, name string) {
	if p.observer != nil {
		p.observer.JobStarted(ctx, name)
	}
}

func (p *Pool) finished(ctx context.Context, name, result string, elapsed time.Duration) {
	if p.observer != nil {
		p.observer.JobFinished(ctx, name, result, elapsed)
	}
}
