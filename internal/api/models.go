package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
)

// ColorsRequest is an inline palette. Values are 6-digit hex, with or
// without a leading '#'.
type ColorsRequest struct {
	Background string `json:"background" validate:"required"`
	Text       string `json:"text"       validate:"required"`
	Title      string `json:"title"      validate:"required"`
	Accent     string `json:"accent"     validate:"required"`
}

func (c *ColorsRequest) toDomain() *domain.TemplateColors {
	if c == nil {
		return nil
	}
	return &domain.TemplateColors{
		Background: c.Background,
		Text:       c.Text,
		Title:      c.Title,
		Accent:     c.Accent,
	}
}

// CreatePresentationRequest is the body of POST /presentations. Omitted
// fields take their defaults.
type CreatePresentationRequest struct {
	Topic         string         `json:"topic"          validate:"required"`
	NumSlides     *int           `json:"num_slides"     validate:"omitempty,min=1,max=50"`
	TemplateName  *string        `json:"template_name"  validate:"omitempty,min=1,max=64"`
	AspectRatio   *string        `json:"aspect_ratio"   validate:"omitempty,oneof=16:9 4:3"`
	CustomColors  *ColorsRequest `json:"custom_colors"  validate:"omitempty"`
	CustomFont    *string        `json:"custom_font"    validate:"omitempty,max=64"`
	CustomContent []domain.Slide `json:"custom_content" validate:"omitempty,max=50"`
}

func (r CreatePresentationRequest) patch() domain.ConfigPatch {
	return configPatch(r.NumSlides, r.TemplateName, r.AspectRatio, r.CustomColors, r.CustomFont)
}

// ConfigurePresentationRequest is the body of POST /presentations/{id}/configure.
// Only fields present in the body are changed.
type ConfigurePresentationRequest struct {
	NumSlides    *int           `json:"num_slides"    validate:"omitempty,min=1,max=50"`
	TemplateName *string        `json:"template_name" validate:"omitempty,min=1,max=64"`
	AspectRatio  *string        `json:"aspect_ratio"  validate:"omitempty,oneof=16:9 4:3"`
	CustomColors *ColorsRequest `json:"custom_colors" validate:"omitempty"`
	CustomFont   *string        `json:"custom_font"   validate:"omitempty,max=64"`
}

func (r ConfigurePresentationRequest) patch() domain.ConfigPatch {
	return configPatch(r.NumSlides, r.TemplateName, r.AspectRatio, r.CustomColors, r.CustomFont)
}

func configPatch(
	numSlides *int,
	templateName *string,
	aspectRatio *string,
	colors *ColorsRequest,
	font *string,
) domain.ConfigPatch {
	p := domain.ConfigPatch{
		NumSlides:    numSlides,
		TemplateName: templateName,
		CustomColors: colors.toDomain(),
		CustomFont:   font,
	}
	if aspectRatio != nil {
		ar := domain.AspectRatio(*aspectRatio)
		p.AspectRatio = &ar
	}
	return p
}

// CreatePresentationResponse is returned with 202 Accepted.
type CreatePresentationResponse struct {
	Message        string    `json:"message"`
	PresentationID uuid.UUID `json:"presentation_id"`
	StatusURL      string    `json:"status_url"`
}

// PresentationResponse is the client view of a presentation record. FilePath
// carries only the artifact's file name, and DownloadURL points at the bytes.
type PresentationResponse struct {
	ID           uuid.UUID                 `json:"id"`
	Topic        string                    `json:"topic"`
	Status       domain.PresentationStatus `json:"status"`
	Config       domain.GenerationConfig   `json:"config"`
	Content      *domain.PresentationData  `json:"content,omitempty"`
	FilePath     string                    `json:"file_path,omitempty"`
	ErrorMessage string                    `json:"error_message,omitempty"`
	DownloadURL  string                    `json:"download_url,omitempty"`
	Version      int64                     `json:"version"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
