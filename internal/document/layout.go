package document

import "github.com/phrazzld/deckforge/internal/domain"

// Sizes are in EMU (914400 per inch) and font sizes in hundredths of a point.
const (
	emuPerInch = 914400

	slideWidth      = 10 * emuPerInch
	wideHeight      = 5143500 // 5.625in
	standardHeight  = 7.5 * emuPerInch
	margin          = emuPerInch / 2
	accentBarHeight = emuPerInch / 10
	columnGap       = emuPerInch / 4

	titleSlideTitleSize = 4000
	subtitleSize        = 2200
	headingSize         = 3200
	bodySize            = 2000
)

// slideSize returns the slide width and height for an aspect ratio.
func slideSize(ratio domain.AspectRatio) (int64, int64) {
	if ratio == domain.AspectStandard {
		return slideWidth, standardHeight
	}
	return slideWidth, wideHeight
}

type paragraph struct {
	Text   string
	Size   int
	Color  string
	Bold   bool
	Bullet bool
	Center bool
}

type shape struct {
	ID         int
	Name       string
	X, Y       int64
	CX, CY     int64
	Fill       string
	TextBox    bool
	Anchor     string
	Paragraphs []paragraph
}

type slidePart struct {
	Number     int
	Background string
	Font       string
	Shapes     []shape
}

type palette struct {
	colors domain.TemplateColors
	font   string
}

// layoutSlide positions the shapes of one slide.
func layoutSlide(n int, s domain.Slide, pal palette, width, height int64) slidePart {
	part := slidePart{Number: n, Background: pal.colors.Background, Font: pal.font}
	contentWidth := width - 2*margin

	switch s.Layout {
	case domain.LayoutTitle:
		titleY := height / 4
		titleH := height / 4
		part.Shapes = []shape{
			{
				Name: "Title", TextBox: true, Anchor: "b",
				X: margin, Y: titleY, CX: contentWidth, CY: titleH,
				Paragraphs: []paragraph{{Text: s.Title, Size: titleSlideTitleSize, Color: pal.colors.Title, Bold: true, Center: true}},
			},
			{
				Name: "Accent",
				X:    width / 4, Y: titleY + titleH + accentBarHeight, CX: width / 2, CY: accentBarHeight / 2,
				Fill: pal.colors.Accent,
			},
			{
				Name: "Subtitle", TextBox: true, Anchor: "t",
				X: margin, Y: titleY + titleH + 2*accentBarHeight, CX: contentWidth, CY: height / 5,
				Paragraphs: []paragraph{{Text: s.Subtitle, Size: subtitleSize, Color: pal.colors.Text, Center: true}},
			},
		}

	case domain.LayoutTwoColumn:
		colWidth := (contentWidth - columnGap) / 2
		bodyY, bodyH := bodyArea(height)
		part.Shapes = append(headingShapes(s.Title, pal, width),
			shape{
				Name: "Left Column", TextBox: true, Anchor: "t",
				X: margin, Y: bodyY, CX: colWidth, CY: bodyH,
				Paragraphs: bullets(s.LeftColumn, pal),
			},
			shape{
				Name: "Right Column", TextBox: true, Anchor: "t",
				X: margin + colWidth + columnGap, Y: bodyY, CX: colWidth, CY: bodyH,
				Paragraphs: bullets(s.RightColumn, pal),
			},
		)

	default:
		bodyY, bodyH := bodyArea(height)
		part.Shapes = append(headingShapes(s.Title, pal, width),
			shape{
				Name: "Body", TextBox: true, Anchor: "t",
				X: margin, Y: bodyY, CX: contentWidth, CY: bodyH,
				Paragraphs: bullets(s.Points, pal),
			},
		)
	}

	for i := range part.Shapes {
		part.Shapes[i].ID = i + 2
	}
	return part
}

// headingShapes returns the accent bar along the top edge and the heading.
func headingShapes(title string, pal palette, width int64) []shape {
	return []shape{
		{
			Name: "Accent",
			X:    0, Y: 0, CX: width, CY: accentBarHeight,
			Fill: pal.colors.Accent,
		},
		{
			Name: "Title", TextBox: true, Anchor: "ctr",
			X: margin, Y: accentBarHeight + margin/2, CX: width - 2*margin, CY: emuPerInch,
			Paragraphs: []paragraph{{Text: title, Size: headingSize, Color: pal.colors.Title, Bold: true}},
		},
	}
}

func bodyArea(height int64) (int64, int64) {
	y := int64(accentBarHeight + margin/2 + emuPerInch + margin/4)
	return y, height - y - margin/2
}

func bullets(items []string, pal palette) []paragraph {
	out := make([]paragraph, 0, len(items))
	for _, item := range items {
		out = append(out, paragraph{Text: item, Size: bodySize, Color: pal.colors.Text, Bullet: true})
	}
	return out
}
