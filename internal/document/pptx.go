package document

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
)

// PPTXWriter renders content as an Office Open XML presentation.
type PPTXWriter struct {
	out    ArtifactWriter
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

var _ Synthesizer = (*PPTXWriter)(nil)

// NewPPTXWriter creates a PPTXWriter that stores decks through out.
func NewPPTXWriter(out ArtifactWriter, logger *slog.Logger) (*PPTXWriter, error) {
	if out == nil {
		return nil, errors.New("artifact writer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &PPTXWriter{
		out:    out,
		logger: logger.With("component", "pptx_writer"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString()[:8] },
	}, nil
}

// Synthesize implements Synthesizer. The file is named after the deck title
// with a short random suffix so reruns never overwrite each other.
func (w *PPTXWriter) Synthesize(
	ctx context.Context,
	content *domain.PresentationData,
	cfg domain.GenerationConfig,
	tmpl *domain.Template,
) (string, error) {
	if content == nil || tmpl == nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, ErrNilInput)
	}

	data, err := w.Render(content, cfg.AspectRatio, tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	key := fmt.Sprintf("%s-%s.pptx", domain.Slugify(content.Title, '-'), w.newID())
	path, err := w.out.Write(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	w.logger.InfoContext(ctx, "wrote presentation file",
		"path", path,
		"slides", len(content.Slides),
		"template", tmpl.Name,
		"bytes", len(data))
	return path, nil
}

// archiveEntry maps a zip member to the part template that renders it.
type archiveEntry struct {
	name string
	part string
	data any
}

// Render builds the .pptx archive in memory.
func (w *PPTXWriter) Render(content *domain.PresentationData, ratio domain.AspectRatio, tmpl *domain.Template) ([]byte, error) {
	width, height := slideSize(ratio)
	pal := palette{colors: tmpl.Colors.Normalized(), font: tmpl.Font}

	slides := make([]slidePart, 0, len(content.Slides))
	for i, s := range content.Slides {
		slides = append(slides, layoutSlide(i+1, s, pal, width, height))
	}

	format := "On-screen Show (16:9)"
	if ratio == domain.AspectStandard {
		format = "On-screen Show (4:3)"
	}

	deck := struct {
		Slides        []slidePart
		Width, Height int64
		Title         string
		Created       string
		Format        string
	}{
		Slides:  slides,
		Width:   width,
		Height:  height,
		Title:   content.Title,
		Created: w.now().UTC().Format(time.RFC3339),
		Format:  format,
	}
	theme := struct {
		Name   string
		Colors domain.TemplateColors
		Font   string
	}{Name: tmpl.Name, Colors: pal.colors, Font: pal.font}

	entries := []archiveEntry{
		{"[Content_Types].xml", "content_types", deck},
		{"_rels/.rels", "root_rels", nil},
		{"docProps/core.xml", "core", deck},
		{"docProps/app.xml", "app", deck},
		{"ppt/presentation.xml", "presentation", deck},
		{"ppt/_rels/presentation.xml.rels", "presentation_rels", deck},
		{"ppt/slideMasters/slideMaster1.xml", "slide_master", nil},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", "slide_master_rels", nil},
		{"ppt/slideLayouts/slideLayout1.xml", "slide_layout", nil},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", "slide_layout_rels", nil},
		{"ppt/theme/theme1.xml", "theme", theme},
	}
	for _, s := range slides {
		entries = append(entries,
			archiveEntry{fmt.Sprintf("ppt/slides/slide%d.xml", s.Number), "slide", s},
			archiveEntry{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number), "slide_rels", nil},
		)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		body, err := renderPart(e.part, e.data)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", e.name, err)
		}
		f, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", e.name, err)
		}
		if _, err := f.Write(body); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
