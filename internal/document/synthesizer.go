// Package document renders generated presentation content into files.
package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/deckforge/internal/domain"
)

// ErrSynthesisFailed wraps every error returned by a Synthesizer.
var ErrSynthesisFailed = fmt.Errorf("%w: document synthesis", domain.ErrGenerationFailure)

// ErrNilInput is returned when content or template is missing.
var ErrNilInput = errors.New("content and template are required")

// Synthesizer turns validated content into a stored document and returns
// the path it was written to.
type Synthesizer interface {
	Synthesize(
		ctx context.Context,
		content *domain.PresentationData,
		cfg domain.GenerationConfig,
		tmpl *domain.Template,
	) (string, error)
}

// ArtifactWriter stores rendered bytes under a key and returns the final path.
type ArtifactWriter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}
