package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/store"
)

// ReconcilerConfig holds configuration for the Reconciler.
type ReconcilerConfig struct {
	// Interval is how often to look for stale records.
	Interval time.Duration

	// StaleAfter is how long a record may stay pending before it is assumed
	// to have lost its job.
	StaleAfter time.Duration

	// BatchSize bounds the records re-enqueued per pass.
	BatchSize int
}

// DefaultReconcilerConfig returns a ReconcilerConfig with reasonable defaults.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Interval:   time.Minute,
		StaleAfter: 15 * time.Minute,
		BatchSize:  100,
	}
}

// Reconciler re-enqueues presentations that have stayed pending too long.
// Saving a record and enqueuing its job are separate steps, so a crash in
// between leaves a pending record that nothing will pick up.
type Reconciler struct {
	store    store.RecordStore
	enqueuer queue.Enqueuer
	config   ReconcilerConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconciler creates a Reconciler, filling zero config fields with defaults.
func NewReconciler(
	records store.RecordStore,
	enqueuer queue.Enqueuer,
	config ReconcilerConfig,
	logger *slog.Logger,
) *Reconciler {
	defaults := DefaultReconcilerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaults.StaleAfter
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	return &Reconciler{
		store:    records,
		enqueuer: enqueuer,
		config:   config,
		logger:   logger.With("component", "reconciler"),
		now:      time.Now,
	}
}

// Run reconciles once immediately and then every Interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.ReconcileOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "reconcile pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// ReconcileOnce re-enqueues stale pending records and returns how many were
// re-enqueued. Each record's timestamp is refreshed first so the next pass
// does not pick it up again.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.config.StaleAfter)
	stale, err := r.store.ListByStatus(ctx, domain.StatusPending, cutoff, r.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale presentations: %w", err)
	}

	var (
		count int
		errs  []error
	)
	for _, p := range stale {
		_, err := store.Update(ctx, r.store, p.ID, func(cur *domain.Presentation) error {
			if cur.Status != domain.StatusPending {
				return errSkip
			}
			cur.UpdatedAt = domain.Now()
			return nil
		})
		if errors.Is(err, errSkip) || store.IsNotFoundError(err) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("touch %s: %w", p.ID, err))
			continue
		}

		job, err := r.enqueuer.Enqueue(ctx, TypeGeneratePresentation, p.ID.String())
		if err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s: %w", p.ID, err))
			continue
		}
		count++
		r.logger.InfoContext(ctx, "re-enqueued stale pending presentation",
			"presentation_id", p.ID,
			"job_id", job.ID,
			"pending_since", p.UpdatedAt)
	}

	if count > 0 {
		r.logger.InfoContext(ctx, "reconcile pass finished", "requeued", count, "stale", len(stale))
	}
	return count, errors.Join(errs...)
}
