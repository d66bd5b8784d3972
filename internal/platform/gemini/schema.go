package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/generation"
	"google.golang.org/genai"
)

// promptData represents the data passed to the prompt template.
type promptData struct {
	Topic     string
	NumSlides int
}

// ResponseSchema is the JSON document the model is asked to return.
type ResponseSchema struct {
	Title  string        `json:"title"`
	Slides []SlideSchema `json:"slides"`
}

// SlideSchema is a single slide in the model response.
type SlideSchema struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Points      []string `json:"points,omitempty"`
	LeftColumn  []string `json:"left_column,omitempty"`
	RightColumn []string `json:"right_column,omitempty"`
}

// responseSchema constrains the model output to ResponseSchema.
func responseSchema() *genai.Schema {
	stringList := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
			"slides": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type": {
							Type: genai.TypeString,
							Enum: []string{
								string(domain.LayoutTitle),
								string(domain.LayoutBulletPoints),
								string(domain.LayoutTwoColumn),
							},
						},
						"title":        {Type: genai.TypeString},
						"subtitle":     {Type: genai.TypeString},
						"points":       stringList,
						"left_column":  stringList,
						"right_column": stringList,
					},
					Required: []string{"type", "title"},
				},
			},
		},
		Required: []string{"title", "slides"},
	}
}

// parseResponse decodes the model's JSON text into presentation content.
func parseResponse(text string) (*domain.PresentationData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var resp ResponseSchema
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	if len(resp.Slides) == 0 {
		return nil, fmt.Errorf("%w: no slides in response", generation.ErrInvalidResponse)
	}

	data := &domain.PresentationData{
		Title:  strings.TrimSpace(resp.Title),
		Slides: make([]domain.Slide, 0, len(resp.Slides)),
	}
	for _, s := range resp.Slides {
		data.Slides = append(data.Slides, domain.Slide{
			Layout:      domain.SlideLayout(strings.TrimSpace(s.Type)),
			Title:       strings.TrimSpace(s.Title),
			Subtitle:    strings.TrimSpace(s.Subtitle),
			Points:      s.Points,
			LeftColumn:  s.LeftColumn,
			RightColumn: s.RightColumn,
		})
	}
	if data.Title == "" {
		data.Title = data.Slides[0].Title
	}
	return data, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", generation.ErrContentBlocked
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
