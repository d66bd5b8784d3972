package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/events"
	"github.com/phrazzld/deckforge/internal/platform/logger"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/storage"
	"github.com/phrazzld/deckforge/internal/store"
	"github.com/phrazzld/deckforge/internal/task"
)

// ArtifactReader opens stored presentation files.
type ArtifactReader interface {
	Open(ctx context.Context, path string) (*os.File, error)
}

// CreateRequest is the input of CreatePresentation. Unset config fields take
// their defaults.
type CreateRequest struct {
	Topic         string
	Config        domain.ConfigPatch
	CustomContent []domain.Slide
}

// Artifact is an opened presentation file. The caller must close File.
type Artifact struct {
	Name string
	File *os.File
}

// PresentationService manages the lifecycle of presentation records on
// behalf of the HTTP API. Generation itself runs in the task package.
type PresentationService interface {
	// CreatePresentation saves a pending record and enqueues its generation.
	CreatePresentation(ctx context.Context, req CreateRequest) (*domain.Presentation, error)

	// GetPresentation returns the current record.
	GetPresentation(ctx context.Context, id uuid.UUID) (*domain.Presentation, error)

	// ConfigurePresentation merges patch into a pending record.
	ConfigurePresentation(ctx context.Context, id uuid.UUID, patch domain.ConfigPatch) (*domain.Presentation, error)

	// OpenArtifact opens the generated file of a completed presentation.
	OpenArtifact(ctx context.Context, id uuid.UUID) (*Artifact, error)
}

type presentationServiceImpl struct {
	store     store.RecordStore
	queue     queue.Enqueuer
	artifacts ArtifactReader
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewPresentationService creates a new PresentationService.
// It returns an error if any of the required dependencies are nil.
func NewPresentationService(
	records store.RecordStore,
	enqueuer queue.Enqueuer,
	artifacts ArtifactReader,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (PresentationService, error) {
	switch {
	case records == nil:
		return nil, &PresentationServiceError{Operation: "create_service", Message: "record store cannot be nil"}
	case enqueuer == nil:
		return nil, &PresentationServiceError{Operation: "create_service", Message: "enqueuer cannot be nil"}
	case artifacts == nil:
		return nil, &PresentationServiceError{Operation: "create_service", Message: "artifact reader cannot be nil"}
	case logger == nil:
		return nil, &PresentationServiceError{Operation: "create_service", Message: "logger cannot be nil"}
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}

	return &presentationServiceImpl{
		store:     records,
		queue:     enqueuer,
		artifacts: artifacts,
		emitter:   emitter,
		logger:    logger.With("component", "presentation_service"),
	}, nil
}

// CreatePresentation implements PresentationService.
// The save and the enqueue are not atomic: a record saved without a job is
// picked up later by the worker's reconciler.
func (s *presentationServiceImpl) CreatePresentation(
	ctx context.Context,
	req CreateRequest,
) (*domain.Presentation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cfg := domain.DefaultGenerationConfig().Apply(req.Config)
	if len(req.CustomContent) > 0 {
		for i, slide := range req.CustomContent {
			if err := slide.Validate(); err != nil {
				return nil, fmt.Errorf("%w: custom_content[%d]: %v", domain.ErrValidation, i, err)
			}
		}
		cfg.CustomContent = append([]domain.Slide(nil), req.CustomContent...)
		cfg.NumSlides = len(req.CustomContent)
	}

	p, err := domain.NewPresentation(strings.TrimSpace(req.Topic), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.store.Save(ctx, p); err != nil {
		log.ErrorContext(ctx, "failed to save presentation", "error", err, "presentation_id", p.ID)
		return nil, NewPresentationServiceError("create_presentation", "failed to save presentation", err)
	}

	job, err := s.queue.Enqueue(ctx, task.TypeGeneratePresentation, p.ID.String())
	if err != nil {
		log.ErrorContext(ctx, "failed to enqueue generation job", "error", err, "presentation_id", p.ID)
		return nil, NewPresentationServiceError("create_presentation", "failed to enqueue generation job", err)
	}

	s.emit(ctx, events.NewStatusChangedEvent(p.ID, "", domain.StatusPending))
	log.InfoContext(ctx, "created pending presentation",
		"presentation_id", p.ID,
		"job_id", job.ID,
		"num_slides", p.Config.NumSlides,
		"template_name", p.Config.TemplateName)
	return p, nil
}

// GetPresentation implements PresentationService.
func (s *presentationServiceImpl) GetPresentation(ctx context.Context, id uuid.UUID) (*domain.Presentation, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, notFound(id)
		}
		return nil, NewPresentationServiceError("get_presentation", "failed to read presentation", err)
	}
	return p, nil
}

// ConfigurePresentation implements PresentationService.
// The record is changed through a version-checked update so a worker claim
// that lands in between is never overwritten.
func (s *presentationServiceImpl) ConfigurePresentation(
	ctx context.Context,
	id uuid.UUID,
	patch domain.ConfigPatch,
) (*domain.Presentation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	current, err := s.GetPresentation(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		if current.Status != domain.StatusPending {
			return nil, domain.Conflictf("Cannot configure presentation. Status is '%s'.", current.Status)
		}
		return current, nil
	}

	updated, err := store.Update(ctx, s.store, id, func(p *domain.Presentation) error {
		return p.Configure(patch)
	})
	if err != nil {
		switch {
		case store.IsNotFoundError(err):
			return nil, notFound(id)
		case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
			return nil, err
		}
		log.ErrorContext(ctx, "failed to configure presentation", "error", err, "presentation_id", id)
		return nil, NewPresentationServiceError("configure_presentation", "failed to update presentation", err)
	}

	log.InfoContext(ctx, "reconfigured presentation",
		"presentation_id", id,
		"num_slides", updated.Config.NumSlides,
		"template_name", updated.Config.TemplateName,
		"aspect_ratio", updated.Config.AspectRatio)
	return updated, nil
}

// OpenArtifact implements PresentationService.
func (s *presentationServiceImpl) OpenArtifact(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	p, err := s.GetPresentation(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.StatusCompleted || p.FilePath == "" {
		return nil, domain.NotAvailablef("Presentation not available. Status: %s", p.Status)
	}

	f, err := s.artifacts.Open(ctx, p.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, domain.NotFoundf("Presentation file for ID '%s' not found.", id)
		}
		return nil, NewPresentationServiceError("open_artifact", "failed to open presentation file", err)
	}
	return &Artifact{Name: p.DownloadName(), File: f}, nil
}

func (s *presentationServiceImpl) emit(ctx context.Context, event *events.StatusChangedEvent) {
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "status event handler failed",
			"error", err, "presentation_id", event.PresentationID)
	}
}

func notFound(id uuid.UUID) error {
	return domain.NotFoundf("Presentation with ID '%s' not found.", id)
}
