package mocks

import (
	"context"

	"github.com/phrazzld/deckforge/internal/domain"
)

// MockTemplateResolver resolves templates from a fixed map.
type MockTemplateResolver struct {
	ResolveFn func(ctx context.Context, name string) (*domain.Template, error)

	// Templates is consulted when ResolveFn is nil
	Templates map[string]*domain.Template
}

// Resolve returns the named template or a NotFound error.
func (m *MockTemplateResolver) Resolve(ctx context.Context, name string) (*domain.Template, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, name)
	}
	if t, ok := m.Templates[name]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.NotFoundf("template '%s' not found", name)
}

// NewMockTemplateResolver creates a resolver that knows a single template.
func NewMockTemplateResolver(t *domain.Template) *MockTemplateResolver {
	return &MockTemplateResolver{Templates: map[string]*domain.Template{t.Name: t}}
}
