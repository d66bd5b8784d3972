package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/document"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/events"
	"github.com/phrazzld/deckforge/internal/generation"
	"github.com/phrazzld/deckforge/internal/platform/logger"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/store"
	"github.com/phrazzld/deckforge/internal/telemetry"
)

// TypeGeneratePresentation is the job name for presentation generation. The
// payload is the presentation id.
const TypeGeneratePresentation = "generate_presentation_task"

// errSkip aborts a claim without writing.
var errSkip = errors.New("claim skipped")

// TemplateResolver looks up templates by name.
type TemplateResolver interface {
	Resolve(ctx context.Context, name string) (*domain.Template, error)
}

// ArtifactRemover deletes a written artifact.
type ArtifactRemover interface {
	Remove(ctx context.Context, path string) error
}

// ExecutorDeps are the collaborators of a PresentationExecutor. Emitter and
// Metrics are optional.
type ExecutorDeps struct {
	Store       store.RecordStore
	Templates   TemplateResolver
	Generator   generation.ContentGenerator
	Synthesizer document.Synthesizer
	Artifacts   ArtifactRemover
	Emitter     events.EventEmitter
	Metrics     *telemetry.Metrics
	Logger      *slog.Logger
}

// PresentationExecutor runs one generation job from claim to terminal state.
type PresentationExecutor struct {
	store       store.RecordStore
	templates   TemplateResolver
	generator   generation.ContentGenerator
	synthesizer document.Synthesizer
	artifacts   ArtifactRemover
	emitter     events.EventEmitter
	metrics     *telemetry.Metrics
	logger      *slog.Logger
}

// NewPresentationExecutor validates deps and creates an executor.
func NewPresentationExecutor(deps ExecutorDeps) (*PresentationExecutor, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("record store cannot be nil")
	case deps.Templates == nil:
		return nil, errors.New("template resolver cannot be nil")
	case deps.Generator == nil:
		return nil, errors.New("content generator cannot be nil")
	case deps.Synthesizer == nil:
		return nil, errors.New("synthesizer cannot be nil")
	case deps.Artifacts == nil:
		return nil, errors.New("artifact remover cannot be nil")
	case deps.Logger == nil:
		return nil, errors.New("logger cannot be nil")
	}
	emitter := deps.Emitter
	if emitter == nil {
		emitter = events.NopEmitter{}
	}

	return &PresentationExecutor{
		store:       deps.Store,
		templates:   deps.Templates,
		generator:   deps.Generator,
		synthesizer: deps.Synthesizer,
		artifacts:   deps.Artifacts,
		emitter:     emitter,
		metrics:     deps.Metrics,
		logger:      deps.Logger.With("component", "presentation_executor"),
	}, nil
}

// Handle is the queue.Handler for TypeGeneratePresentation jobs.
func (e *PresentationExecutor) Handle(ctx context.Context, job *queue.Job) error {
	id, err := uuid.Parse(job.Payload)
	if err != nil {
		e.logger.ErrorContext(ctx, "discarding job with malformed presentation id",
			"job_id", job.ID, "payload", job.Payload)
		return nil
	}

	log := e.logger.With("presentation_id", id, "job_id", job.ID, "attempt", job.Attempts)
	return e.Execute(logger.WithLogger(ctx, log), id, job.Redelivered())
}

// Execute generates the presentation for id. It is safe to call more than
// once for the same id: terminal records are left alone, and a record that
// is already processing is only taken over when redelivered is true, which
// means the previous claimant's job lease expired.
//
// Generation failures end in the failed status and return nil. A non-nil
// error means the record could not be read or written; such errors wrap
// queue.ErrRedeliver so the job is tried again.
func (e *PresentationExecutor) Execute(ctx context.Context, id uuid.UUID, redelivered bool) error {
	log := logger.FromContextOrDefault(ctx, e.logger.With("presentation_id", id))

	current, err := e.store.Get(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.ErrorContext(ctx, "task started for non-existent presentation")
			return nil
		}
		return fmt.Errorf("%w: read presentation: %v", queue.ErrRedeliver, err)
	}
	if current.Status.IsTerminal() {
		log.InfoContext(ctx, "presentation already finished, skipping", "status", current.Status)
		return nil
	}

	var from domain.PresentationStatus
	claimed, err := store.Update(ctx, e.store, id, func(p *domain.Presentation) error {
		from = p.Status
		switch {
		case p.Status == domain.StatusPending:
			return p.BeginProcessing()
		case p.Status == domain.StatusProcessing && redelivered:
			p.UpdatedAt = domain.Now()
			return nil
		default:
			return errSkip
		}
	})
	switch {
	case errors.Is(err, errSkip):
		log.InfoContext(ctx, "presentation claimed elsewhere, skipping", "status", from)
		return nil
	case store.IsNotFoundError(err):
		log.ErrorContext(ctx, "presentation disappeared before claim")
		return nil
	case err != nil:
		return fmt.Errorf("%w: claim presentation: %v", queue.ErrRedeliver, err)
	}

	if from == domain.StatusPending {
		e.emit(ctx, events.NewStatusChangedEvent(id, from, domain.StatusProcessing))
	} else {
		log.WarnContext(ctx, "taking over presentation from an expired claim")
	}
	log.InfoContext(ctx, "starting generation",
		"num_slides", claimed.Config.NumSlides,
		"template_name", claimed.Config.TemplateName)

	start := time.Now()
	outcome := e.run(ctx, claimed)
	return e.finish(ctx, claimed, outcome, time.Since(start))
}

// run performs the generation steps and reports the result as data.
func (e *PresentationExecutor) run(ctx context.Context, p *domain.Presentation) domain.Outcome {
	log := logger.FromContextOrDefault(ctx, e.logger)

	tmpl, err := e.resolveTemplate(ctx, p.Config)
	if err != nil {
		return e.failed(ctx, "template resolution failed", err)
	}

	var content *domain.PresentationData
	if len(p.Config.CustomContent) > 0 {
		log.InfoContext(ctx, "using caller-supplied slide content")
		content = domain.ContentFromSlides(p.Topic, p.Config.CustomContent)
	} else {
		content, err = e.generator.GenerateContent(ctx, p.Topic, p.Config.NumSlides)
		if err != nil {
			return e.failed(ctx, "content generation failed", err)
		}
	}

	if err := content.Validate(p.Config.NumSlides); err != nil {
		return e.failed(ctx, "generated content rejected",
			fmt.Errorf("%w: %w", domain.ErrGenerationFailure, err))
	}

	path, err := e.synthesizer.Synthesize(ctx, content, p.Config, tmpl)
	if err != nil {
		return e.failed(ctx, "document synthesis failed", err)
	}

	return domain.Completed{Content: content, Path: path}
}

// resolveTemplate builds the inline template when both custom colors and
// font are set and otherwise resolves the named template. The two are
// never merged.
func (e *PresentationExecutor) resolveTemplate(ctx context.Context, cfg domain.GenerationConfig) (*domain.Template, error) {
	if cfg.HasCustomTemplate() {
		logger.FromContextOrDefault(ctx, e.logger).InfoContext(ctx, "using custom colors and font")
		tmpl, err := domain.NewCustomTemplate(*cfg.CustomColors, cfg.CustomFont)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTemplate, err)
		}
		return tmpl, nil
	}
	return e.templates.Resolve(ctx, cfg.TemplateName)
}

func (e *PresentationExecutor) failed(ctx context.Context, msg string, err error) domain.Outcome {
	logger.FromContextOrDefault(ctx, e.logger).ErrorContext(ctx, msg, "error", err)
	return domain.Failed{Reason: err.Error()}
}

// finish persists the outcome with a single compare-and-save against the
// claim version. If another worker has taken the record over in the
// meantime, the outcome is dropped along with any file it produced.
func (e *PresentationExecutor) finish(
	ctx context.Context,
	claimed *domain.Presentation,
	outcome domain.Outcome,
	elapsed time.Duration,
) error {
	log := logger.FromContextOrDefault(ctx, e.logger)
	claimVersion := claimed.Version

	final := *claimed
	if err := final.ApplyOutcome(outcome); err != nil {
		e.discard(ctx, outcome)
		return fmt.Errorf("apply outcome: %w", err)
	}

	err := e.store.CompareAndSave(ctx, &final, claimVersion)
	switch {
	case store.IsVersionConflict(err):
		log.WarnContext(ctx, "presentation superseded by another claim, discarding result")
		e.discard(ctx, outcome)
		return nil
	case store.IsNotFoundError(err):
		log.ErrorContext(ctx, "presentation disappeared during generation, discarding result")
		e.discard(ctx, outcome)
		return nil
	case err != nil:
		e.discard(ctx, outcome)
		return fmt.Errorf("%w: save outcome: %v", queue.ErrRedeliver, err)
	}

	event := events.NewStatusChangedEvent(final.ID, domain.StatusProcessing, final.Status)
	event.Reason = final.ErrorMessage
	e.emit(ctx, event)

	metricOutcome := telemetry.OutcomeCompleted
	if final.Status == domain.StatusFailed {
		metricOutcome = telemetry.OutcomeFailed
	}
	e.metrics.RecordGeneration(ctx, metricOutcome, elapsed)

	log.InfoContext(ctx, "generation finished",
		"status", final.Status,
		"file_path", final.FilePath,
		"duration_ms", elapsed.Milliseconds())
	return nil
}

// discard removes the artifact of an outcome that will not be persisted.
func (e *PresentationExecutor) discard(ctx context.Context, outcome domain.Outcome) {
	completed, ok := outcome.(domain.Completed)
	if !ok || completed.Path == "" {
		return
	}
	if err := e.artifacts.Remove(ctx, completed.Path); err != nil {
		logger.FromContextOrDefault(ctx, e.logger).WarnContext(ctx, "failed to remove orphaned artifact",
			"path", completed.Path, "error", err)
	}
}

func (e *PresentationExecutor) emit(ctx context.Context, event *events.StatusChangedEvent) {
	if err := e.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, e.logger).WarnContext(ctx, "status event handler failed", "error", err)
	}
}
