package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/generation"
)

var _ generation.ContentGenerator = (*MockGenerator)(nil)

// MockGenerator implements generation.ContentGenerator for testing
type MockGenerator struct {
	// GenerateContentFn allows test cases to mock the GenerateContent behavior
	GenerateContentFn func(ctx context.Context, topic string, numSlides int) (*domain.PresentationData, error)

	// Default response values
	Content *domain.PresentationData
	Err     error

	// Call tracking for verification
	GenerateContentCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times GenerateContent was called
		Count int

		// Topics contains all topics passed to GenerateContent calls
		Topics []string

		// NumSlides contains all slide counts passed to GenerateContent calls
		NumSlides []int
	}
}

// GenerateContent implements the generation.ContentGenerator interface
func (m *MockGenerator) GenerateContent(
	ctx context.Context,
	topic string,
	numSlides int,
) (*domain.PresentationData, error) {
	m.GenerateContentCalls.mu.Lock()
	m.GenerateContentCalls.Count++
	m.GenerateContentCalls.Topics = append(m.GenerateContentCalls.Topics, topic)
	m.GenerateContentCalls.NumSlides = append(m.GenerateContentCalls.NumSlides, numSlides)
	m.GenerateContentCalls.mu.Unlock()

	if m.GenerateContentFn != nil {
		return m.GenerateContentFn(ctx, topic, numSlides)
	}
	return m.Content, m.Err
}

// CallCount returns the number of GenerateContent calls.
func (m *MockGenerator) CallCount() int {
	m.GenerateContentCalls.mu.Lock()
	defer m.GenerateContentCalls.mu.Unlock()
	return m.GenerateContentCalls.Count
}

// NewMockGeneratorWithError creates a MockGenerator that returns the specified error
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}

// NewMockGeneratorWithSlides creates a MockGenerator that returns n valid
// bullet slides for any topic.
func NewMockGeneratorWithSlides(n int) *MockGenerator {
	return &MockGenerator{
		GenerateContentFn: func(_ context.Context, topic string, _ int) (*domain.PresentationData, error) {
			slides := make([]domain.Slide, 0, n)
			slides = append(slides, domain.Slide{Layout: domain.LayoutTitle, Title: topic, Subtitle: "Overview"})
			for len(slides) < n {
				slides = append(slides, domain.Slide{
					Layout: domain.LayoutBulletPoints,
					Title:  "Point",
					Points: []string{"First", "Second"},
				})
			}
			return &domain.PresentationData{Title: topic, Slides: slides[:n]}, nil
		},
	}
}
