package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PresentationStatus represents the processing state of a presentation.
type PresentationStatus string

// Possible presentation status values.
const (
	StatusPending    PresentationStatus = "pending"
	StatusProcessing PresentationStatus = "processing"
	StatusCompleted  PresentationStatus = "completed"
	StatusFailed     PresentationStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s PresentationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s PresentationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// AspectRatio selects the slide geometry.
type AspectRatio string

// Supported aspect ratios.
const (
	AspectWide     AspectRatio = "16:9"
	AspectStandard AspectRatio = "4:3"
)

// Defaults applied to new generation requests.
const (
	DefaultNumSlides    = 5
	MaxNumSlides        = 50
	DefaultTemplateName = "default_light"
	DefaultAspectRatio  = AspectWide
)

// Validation errors for presentations.
var (
	ErrEmptyPresentationID = errors.New("presentation ID cannot be empty")
	ErrEmptyTopic          = errors.New("presentation topic cannot be empty")
	ErrInvalidStatus       = errors.New("invalid presentation status")
	ErrInvalidNumSlides    = errors.New("number of slides out of range")
	ErrInvalidAspectRatio  = errors.New("invalid aspect ratio")
	ErrEmptyTemplateName   = errors.New("template name cannot be empty")
	ErrSlideCountMismatch  = errors.New("number of slides must match custom content")
)

// GenerationConfig holds the user-tunable parameters of a generation request.
// It may only change while the presentation is pending.
type GenerationConfig struct {
	NumSlides     int             `json:"num_slides"`
	TemplateName  string          `json:"template_name"`
	AspectRatio   AspectRatio     `json:"aspect_ratio"`
	CustomColors  *TemplateColors `json:"custom_colors,omitempty"`
	CustomFont    string          `json:"custom_font,omitempty"`
	CustomContent []Slide         `json:"custom_content,omitempty"`
}

// DefaultGenerationConfig returns the configuration used when a request
// leaves every field unset.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		NumSlides:    DefaultNumSlides,
		TemplateName: DefaultTemplateName,
		AspectRatio:  DefaultAspectRatio,
	}
}

// HasCustomTemplate reports whether the inline style is complete. A custom
// template is only built when both colors and font are supplied.
func (c GenerationConfig) HasCustomTemplate() bool {
	return c.CustomColors != nil && strings.TrimSpace(c.CustomFont) != ""
}

// Validate checks the configuration values.
func (c GenerationConfig) Validate() error {
	if c.NumSlides < 1 || c.NumSlides > MaxNumSlides {
		return fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidNumSlides, c.NumSlides, MaxNumSlides)
	}
	if c.TemplateName == "" {
		return ErrEmptyTemplateName
	}
	if c.AspectRatio != AspectWide && c.AspectRatio != AspectStandard {
		return fmt.Errorf("%w: %q", ErrInvalidAspectRatio, c.AspectRatio)
	}
	if c.CustomColors != nil {
		if err := c.CustomColors.Validate(); err != nil {
			return err
		}
	}
	if len(c.CustomContent) > 0 && len(c.CustomContent) != c.NumSlides {
		return fmt.Errorf("%w: %d slides, %d provided", ErrSlideCountMismatch, c.NumSlides, len(c.CustomContent))
	}
	return nil
}

// ConfigPatch is a partial configuration update. Nil fields are left
// untouched when the patch is applied.
type ConfigPatch struct {
	NumSlides    *int
	TemplateName *string
	AspectRatio  *AspectRatio
	CustomColors *TemplateColors
	CustomFont   *string
}

// IsEmpty reports whether the patch carries no fields.
func (p ConfigPatch) IsEmpty() bool {
	return p.NumSlides == nil && p.TemplateName == nil && p.AspectRatio == nil &&
		p.CustomColors == nil && p.CustomFont == nil
}

// Apply returns a copy of c with the fields present in p merged in.
func (c GenerationConfig) Apply(p ConfigPatch) GenerationConfig {
	out := c
	if p.NumSlides != nil {
		out.NumSlides = *p.NumSlides
	}
	if p.TemplateName != nil {
		out.TemplateName = *p.TemplateName
	}
	if p.AspectRatio != nil {
		out.AspectRatio = *p.AspectRatio
	}
	if p.CustomColors != nil {
		colors := *p.CustomColors
		out.CustomColors = &colors
	}
	if p.CustomFont != nil {
		out.CustomFont = *p.CustomFont
	}
	return out
}

// Presentation is the persisted record tracking one generation request from
// creation to completion or failure.
type Presentation struct {
	ID           uuid.UUID          `json:"id"`
	Topic        string             `json:"topic"`
	Status       PresentationStatus `json:"status"`
	Config       GenerationConfig   `json:"config"`
	Content      *PresentationData  `json:"content,omitempty"`
	FilePath     string             `json:"file_path,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Version      int64              `json:"version"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewPresentation creates a pending presentation for topic with a fresh ID.
// Returns an error if validation fails.
func NewPresentation(topic string, cfg GenerationConfig) (*Presentation, error) {
	now := Now()
	p := &Presentation{
		ID:        uuid.New(),
		Topic:     topic,
		Status:    StatusPending,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks if the Presentation has valid data.
func (p *Presentation) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPresentationID
	}
	if strings.TrimSpace(p.Topic) == "" {
		return ErrEmptyTopic
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return p.Config.Validate()
}

// Configure merges patch into the configuration. It fails with a Conflict
// error unless the presentation is still pending.
func (p *Presentation) Configure(patch ConfigPatch) error {
	if p.Status != StatusPending {
		return Conflictf("Cannot configure presentation. Status is '%s'.", p.Status)
	}
	if patch.IsEmpty() {
		return nil
	}

	next := p.Config.Apply(patch)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	p.Config = next
	p.UpdatedAt = Now()
	return nil
}

// BeginProcessing moves a pending presentation to processing.
func (p *Presentation) BeginProcessing() error {
	if p.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusProcessing)
	}
	p.Status = StatusProcessing
	p.UpdatedAt = Now()
	return nil
}

// Complete records a successful generation.
func (p *Presentation) Complete(content *PresentationData, filePath string) error {
	if p.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusCompleted)
	}
	p.Status = StatusCompleted
	p.Content = content
	p.FilePath = filePath
	p.ErrorMessage = ""
	p.UpdatedAt = Now()
	return nil
}

// Fail records a failed generation.
func (p *Presentation) Fail(reason string) error {
	if p.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusFailed)
	}
	if reason == "" {
		reason = "generation failed"
	}
	p.Status = StatusFailed
	p.Content = nil
	p.FilePath = ""
	p.ErrorMessage = reason
	p.UpdatedAt = Now()
	return nil
}

// Now returns the current UTC time truncated to microseconds, the precision
// every backend can store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
