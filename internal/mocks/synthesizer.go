package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/deckforge/internal/document"
	"github.com/phrazzld/deckforge/internal/domain"
)

var _ document.Synthesizer = (*MockSynthesizer)(nil)

// MockSynthesizer implements document.Synthesizer for testing
type MockSynthesizer struct {
	SynthesizeFn func(
		ctx context.Context,
		content *domain.PresentationData,
		cfg domain.GenerationConfig,
		tmpl *domain.Template,
	) (string, error)

	// Path and Err are returned when SynthesizeFn is nil
	Path string
	Err  error

	mu        sync.Mutex
	templates []*domain.Template
}

// Synthesize implements document.Synthesizer.
func (m *MockSynthesizer) Synthesize(
	ctx context.Context,
	content *domain.PresentationData,
	cfg domain.GenerationConfig,
	tmpl *domain.Template,
) (string, error) {
	m.mu.Lock()
	m.templates = append(m.templates, tmpl)
	m.mu.Unlock()

	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, content, cfg, tmpl)
	}
	return m.Path, m.Err
}

// Templates returns the templates passed to Synthesize, in call order.
func (m *MockSynthesizer) Templates() []*domain.Template {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Template(nil), m.templates...)
}

// MockArtifacts records artifact removals and serves no files.
type MockArtifacts struct {
	RemoveFn func(ctx context.Context, path string) error

	mu      sync.Mutex
	removed []string
}

// Remove records path and calls RemoveFn when set.
func (m *MockArtifacts) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	m.removed = append(m.removed, path)
	m.mu.Unlock()
	if m.RemoveFn != nil {
		return m.RemoveFn(ctx, path)
	}
	return nil
}

// Removed returns every path passed to Remove.
func (m *MockArtifacts) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}
