package generation

import (
	"errors"
	"fmt"

	"github.com/phrazzld/deckforge/internal/domain"
)

// Common errors returned by the generation package. All of them wrap
// domain.ErrGenerationFailure.
var (
	// ErrGenerationFailed is returned when content generation fails for any general reason
	ErrGenerationFailed = fmt.Errorf("%w: content", domain.ErrGenerationFailure)

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = fmt.Errorf("%w: invalid response from language model", domain.ErrGenerationFailure)

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = fmt.Errorf("%w: content blocked by language model safety filters", domain.ErrGenerationFailure)

	// ErrTransientFailure is returned for temporary errors that persisted through every retry
	ErrTransientFailure = fmt.Errorf("%w: transient language model error", domain.ErrGenerationFailure)

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyTopic is returned when a generator is asked for content without a topic
	ErrEmptyTopic = errors.New("topic cannot be empty")
)
