package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/service"
)

var _ service.PresentationService = (*MockPresentationService)(nil)

// MockPresentationService implements service.PresentationService for testing
type MockPresentationService struct {
	CreatePresentationFn    func(ctx context.Context, req service.CreateRequest) (*domain.Presentation, error)
	GetPresentationFn       func(ctx context.Context, id uuid.UUID) (*domain.Presentation, error)
	ConfigurePresentationFn func(ctx context.Context, id uuid.UUID, patch domain.ConfigPatch) (*domain.Presentation, error)
	OpenArtifactFn          func(ctx context.Context, id uuid.UUID) (*service.Artifact, error)
}

// CreatePresentation implements service.PresentationService.
func (m *MockPresentationService) CreatePresentation(
	ctx context.Context,
	req service.CreateRequest,
) (*domain.Presentation, error) {
	if m.CreatePresentationFn != nil {
		return m.CreatePresentationFn(ctx, req)
	}
	return domain.NewPresentation(req.Topic, domain.DefaultGenerationConfig().Apply(req.Config))
}

// GetPresentation implements service.PresentationService.
func (m *MockPresentationService) GetPresentation(ctx context.Context, id uuid.UUID) (*domain.Presentation, error) {
	if m.GetPresentationFn != nil {
		return m.GetPresentationFn(ctx, id)
	}
	return nil, domain.NotFoundf("Presentation with ID '%s' not found.", id)
}

// ConfigurePresentation implements service.PresentationService.
func (m *MockPresentationService) ConfigurePresentation(
	ctx context.Context,
	id uuid.UUID,
	patch domain.ConfigPatch,
) (*domain.Presentation, error) {
	if m.ConfigurePresentationFn != nil {
		return m.ConfigurePresentationFn(ctx, id, patch)
	}
	return nil, domain.NotFoundf("Presentation with ID '%s' not found.", id)
}

// OpenArtifact implements service.PresentationService.
func (m *MockPresentationService) OpenArtifact(ctx context.Context, id uuid.UUID) (*service.Artifact, error) {
	if m.OpenArtifactFn != nil {
		return m.OpenArtifactFn(ctx, id)
	}
	return nil, domain.NotFoundf("Presentation with ID '%s' not found.", id)
}
