package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/deckforge/internal/domain"
)

// outlineSections are cycled through to title the body slides.
var outlineSections = []string{
	"Background",
	"Key Ideas",
	"Current State",
	"Challenges",
	"Opportunities",
	"Approach",
	"Examples",
	"Risks",
	"Roadmap",
	"Takeaways",
}

// OutlineGenerator builds a generic outline deck without calling a language
// model. The same inputs always produce the same content.
type OutlineGenerator struct{}

var _ ContentGenerator = OutlineGenerator{}

// NewOutlineGenerator creates an OutlineGenerator.
func NewOutlineGenerator() OutlineGenerator {
	return OutlineGenerator{}
}

// GenerateContent implements ContentGenerator.
func (OutlineGenerator) GenerateContent(ctx context.Context, topic string, numSlides int) (*domain.PresentationData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if numSlides < 1 {
		return nil, fmt.Errorf("%w: slide count must be positive", ErrGenerationFailed)
	}

	slides := make([]domain.Slide, 0, numSlides)
	slides = append(slides, domain.Slide{
		Layout:   domain.LayoutTitle,
		Title:    topic,
		Subtitle: "An overview",
	})

	for i := 1; i < numSlides; i++ {
		section := outlineSections[(i-1)%len(outlineSections)]
		last := i == numSlides-1 && numSlides > 2

		switch {
		case last:
			slides = append(slides, domain.Slide{
				Layout: domain.LayoutBulletPoints,
				Title:  "Summary",
				Points: []string{
					fmt.Sprintf("%s matters now", topic),
					"Start small and measure",
					"Questions and discussion",
				},
			})
		case i%3 == 0:
			slides = append(slides, domain.Slide{
				Layout:      domain.LayoutTwoColumn,
				Title:       section,
				LeftColumn:  []string{"Where we are", fmt.Sprintf("How %s works today", topic)},
				RightColumn: []string{"Where we are going", "What changes next"},
			})
		default:
			slides = append(slides, domain.Slide{
				Layout: domain.LayoutBulletPoints,
				Title:  section,
				Points: []string{
					fmt.Sprintf("%s: %s", section, topic),
					"Main point",
					"Supporting detail",
				},
			})
		}
	}

	return &domain.PresentationData{Title: topic, Slides: slides}, nil
}
