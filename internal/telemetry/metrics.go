package telemetry

import (
	"context"
	"time"

	"github.com/phrazzld/deckforge/internal/events"
	"github.com/phrazzld/deckforge/internal/queue"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of every deckforge instrument.
const MeterName = "github.com/phrazzld/deckforge"

// Generation outcomes recorded on the duration histogram.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Metrics holds the OpenTelemetry instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	transitions        metric.Int64Counter
	generationDuration metric.Float64Histogram
	jobsProcessed      metric.Int64Counter
	jobDuration        metric.Float64Histogram
	jobsInFlight       metric.Int64UpDownCounter
}

var (
	_ queue.Observer      = (*Metrics)(nil)
	_ events.EventHandler = (*Metrics)(nil)
)

// NewMetrics creates the instruments on the given provider.
// If provider is nil, it returns nil (no-op metrics).
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(MeterName)

	transitions, err := meter.Int64Counter(
		"deckforge_presentation_transitions",
		metric.WithDescription("Presentation status transitions by target status"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	generationDuration, err := meter.Float64Histogram(
		"deckforge_generation_duration_seconds",
		metric.WithDescription("Time spent generating a presentation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	jobsProcessed, err := meter.Int64Counter(
		"deckforge_jobs_processed",
		metric.WithDescription("Queue jobs processed by job name and result"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	jobDuration, err := meter.Float64Histogram(
		"deckforge_job_duration_seconds",
		metric.WithDescription("Time spent running a queue job"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	jobsInFlight, err := meter.Int64UpDownCounter(
		"deckforge_jobs_in_flight",
		metric.WithDescription("Queue jobs currently running"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		transitions:        transitions,
		generationDuration: generationDuration,
		jobsProcessed:      jobsProcessed,
		jobDuration:        jobDuration,
		jobsInFlight:       jobsInFlight,
	}, nil
}

// RecordTransition counts a move into status.
func (m *Metrics) RecordTransition(ctx context.Context, status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordGeneration records how long a generation run took.
func (m *Metrics) RecordGeneration(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil || m.generationDuration == nil {
		return
	}
	m.generationDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// HandleEvent implements events.EventHandler.
func (m *Metrics) HandleEvent(ctx context.Context, event *events.StatusChangedEvent) error {
	m.RecordTransition(ctx, string(event.To))
	return nil
}

// JobStarted implements queue.Observer.
func (m *Metrics) JobStarted(ctx context.Context, name string) {
	if m == nil || m.jobsInFlight == nil {
		return
	}
	m.jobsInFlight.Add(ctx, 1, metric.WithAttributes(attribute.String("job", name)))
}

// JobFinished implements queue.Observer.
func (m *Metrics) JobFinished(ctx context.Context, name, result string, elapsed time.Duration) {
	if m == nil || m.jobsProcessed == nil {
		return
	}
	jobAttr := attribute.String("job", name)
	m.jobsInFlight.Add(ctx, -1, metric.WithAttributes(jobAttr))
	m.jobsProcessed.Add(ctx, 1, metric.WithAttributes(jobAttr, attribute.String("result", result)))
	m.jobDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(jobAttr))
}
