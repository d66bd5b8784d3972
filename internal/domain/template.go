package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// CustomTemplateName is the name given to templates built from inline
// request data.
const CustomTemplateName = "custom"

var (
	hexColorPattern     = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)
	templateNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// Template validation errors.
var (
	ErrInvalidColor        = errors.New("color must be a 6-digit hex value")
	ErrEmptyFont           = errors.New("template font cannot be empty")
	ErrInvalidTemplateName = errors.New("template name must be lowercase letters, digits, '_' or '-'")
)

// TemplateColors is the palette of a template. Values are 6-digit RGB hex,
// optionally prefixed with '#'.
type TemplateColors struct {
	Background string `json:"background" yaml:"background"`
	Text       string `json:"text"       yaml:"text"`
	Title      string `json:"title"      yaml:"title"`
	Accent     string `json:"accent"     yaml:"accent"`
}

// Validate checks that every color is present and well-formed.
func (c TemplateColors) Validate() error {
	fields := []struct{ name, value string }{
		{"background", c.Background},
		{"text", c.Text},
		{"title", c.Title},
		{"accent", c.Accent},
	}
	for _, f := range fields {
		if !IsHexColor(f.value) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidColor, f.name, f.value)
		}
	}
	return nil
}

// Normalized returns the palette as uppercase hex without '#'.
func (c TemplateColors) Normalized() TemplateColors {
	return TemplateColors{
		Background: NormalizeHex(c.Background),
		Text:       NormalizeHex(c.Text),
		Title:      NormalizeHex(c.Title),
		Accent:     NormalizeHex(c.Accent),
	}
}

// Template is a named style applied to a generated document.
type Template struct {
	Name        string         `json:"name"        yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Colors      TemplateColors `json:"colors"      yaml:"colors"`
	Font        string         `json:"font"        yaml:"font"`
}

// Validate checks the template for required fields and well-formed colors.
func (t *Template) Validate() error {
	if err := t.Colors.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Font) == "" {
		return ErrEmptyFont
	}
	return nil
}

// NewCustomTemplate builds an ephemeral template from inline request data.
// It is never cached.
func NewCustomTemplate(colors TemplateColors, font string) (*Template, error) {
	t := &Template{
		Name:        CustomTemplateName,
		Description: "Custom template from request",
		Colors:      colors,
		Font:        strings.TrimSpace(font),
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	t.Colors = t.Colors.Normalized()
	return t, nil
}

// IsHexColor reports whether s is a 6-digit hex color with an optional '#'.
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// NormalizeHex strips '#' and uppercases a hex color.
func NormalizeHex(s string) string {
	return strings.ToUpper(strings.TrimPrefix(s, "#"))
}

// ValidTemplateName reports whether name is safe to use as a catalog key.
func ValidTemplateName(name string) bool {
	return templateNamePattern.MatchString(name)
}
