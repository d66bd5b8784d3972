package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentationDataValidate(t *testing.T) {
	t.Parallel()

	valid := []Slide{
		{Layout: LayoutTitle, Title: "Quarterly Review", Subtitle: "Q3"},
		{Layout: LayoutBulletPoints, Title: "Highlights", Points: []string{"Revenue up"}},
		{Layout: LayoutTwoColumn, Title: "Plan", LeftColumn: []string{"Now"}, RightColumn: []string{"Next"}},
	}

	tests := []struct {
		name    string
		data    *PresentationData
		want    int
		wantErr error
	}{
		{name: "valid", data: &PresentationData{Title: "d", Slides: valid}, want: 3},
		{name: "nil", data: nil, want: 1, wantErr: ErrEmptyContent},
		{name: "no slides", data: &PresentationData{Title: "d"}, want: 1, wantErr: ErrEmptyContent},
		{name: "too many slides", data: &PresentationData{Title: "d", Slides: valid}, want: 2, wantErr: ErrSlideCountInvalid},
		{name: "too few slides", data: &PresentationData{Title: "d", Slides: valid}, want: 4, wantErr: ErrSlideCountInvalid},
		{
			name: "bullet slide without points",
			data: &PresentationData{Title: "d", Slides: []Slide{{Layout: LayoutBulletPoints, Title: "x"}}},
			want: 1, wantErr: ErrInvalidSlide,
		},
		{
			name: "two column slide missing side",
			data: &PresentationData{Title: "d", Slides: []Slide{{Layout: LayoutTwoColumn, Title: "x", LeftColumn: []string{"a"}}}},
			want: 1, wantErr: ErrInvalidSlide,
		},
		{
			name: "unknown layout",
			data: &PresentationData{Title: "d", Slides: []Slide{{Layout: "chart", Title: "x"}}},
			want: 1, wantErr: ErrInvalidSlide,
		},
		{
			name: "missing title",
			data: &PresentationData{Title: "d", Slides: []Slide{{Layout: LayoutTitle}}},
			want: 1, wantErr: ErrInvalidSlide,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.data.Validate(tc.want)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestContentFromSlides(t *testing.T) {
	t.Parallel()

	slides := []Slide{{Layout: LayoutTitle, Title: "Opening"}}
	data := ContentFromSlides("topic", slides)
	require.Len(t, data.Slides, 1)
	assert.Equal(t, "Opening", data.Title)

	slides[0].Title = "mutated"
	assert.Equal(t, "Opening", data.Slides[0].Title)

	assert.Equal(t, "topic", ContentFromSlides("topic", nil).Title)
}
