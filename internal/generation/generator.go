package generation

import (
	"context"

	"github.com/phrazzld/deckforge/internal/domain"
)

// ContentGenerator produces structured slide content for a topic.
//
// Implementations should return exactly numSlides slides; callers verify the
// count and treat a mismatch as a generation failure.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, topic string, numSlides int) (*domain.PresentationData, error)
}
