package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SlideLayout names the arrangement of a single slide.
type SlideLayout string

// Supported slide layouts.
const (
	LayoutTitle        SlideLayout = "title"
	LayoutBulletPoints SlideLayout = "bullet_points"
	LayoutTwoColumn    SlideLayout = "two_column"
)

// Content validation errors.
var (
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrSlideCountInvalid = errors.New("slide count does not match request")
	ErrInvalidSlide      = errors.New("invalid slide")
)

// Slide is one slide of generated or user-supplied content.
type Slide struct {
	Layout      SlideLayout `json:"type"`
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle,omitempty"`
	Points      []string    `json:"points,omitempty"`
	LeftColumn  []string    `json:"left_column,omitempty"`
	RightColumn []string    `json:"right_column,omitempty"`
}

// Validate checks that the slide carries everything its layout renders.
func (s Slide) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidSlide)
	}
	switch s.Layout {
	case LayoutTitle:
		return nil
	case LayoutBulletPoints:
		if len(s.Points) == 0 {
			return fmt.Errorf("%w: bullet_points slide %q has no points", ErrInvalidSlide, s.Title)
		}
	case LayoutTwoColumn:
		if len(s.LeftColumn) == 0 || len(s.RightColumn) == 0 {
			return fmt.Errorf("%w: two_column slide %q needs both columns", ErrInvalidSlide, s.Title)
		}
	default:
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidSlide, s.Layout)
	}
	return nil
}

// PresentationData is the structured content rendered into a document.
type PresentationData struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// Validate checks that the content holds exactly want slides and that every
// slide is complete. Content is never truncated to fit.
func (d *PresentationData) Validate(want int) error {
	if d == nil || len(d.Slides) == 0 {
		return ErrEmptyContent
	}
	if len(d.Slides) != want {
		return fmt.Errorf("%w: expected %d slides, got %d", ErrSlideCountInvalid, want, len(d.Slides))
	}
	for i, s := range d.Slides {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
	}
	return nil
}

// ContentFromSlides wraps user-supplied slides. The deck title is taken from
// the first slide, falling back to topic.
func ContentFromSlides(topic string, slides []Slide) *PresentationData {
	title := topic
	if len(slides) > 0 && strings.TrimSpace(slides[0].Title) != "" {
		title = slides[0].Title
	}
	out := make([]Slide, len(slides))
	copy(out, slides)
	return &PresentationData{Title: title, Slides: out}
}
