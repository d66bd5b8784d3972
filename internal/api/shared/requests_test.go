package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Topic     string `json:"topic"      validate:"required"`
	NumSlides *int   `json:"num_slides" validate:"omitempty,min=1,max=50"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
		errText string
	}{
		{name: "valid json", body: `{"topic": "Go", "num_slides": 3}`},
		{name: "unknown fields are ignored", body: `{"topic": "Go", "extra": true}`},
		{name: "invalid json", body: `{"topic": "Go",}`, errText: "invalid character"},
		{name: "empty body", body: "", errText: "EOF"},
		{name: "trailing value", body: `{"topic": "Go"} {"topic": "Rust"}`, wantErr: ErrTrailingData},
		{name: "too large", body: `{"topic": "` + strings.Repeat("a", MaxBodyBytes) + `"}`, errText: "too large"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			var req sampleRequest
			err := DecodeJSON(w, r, &req)

			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Go", req.Topic)
			}
		})
	}
}

func TestValidateRequest_UsesJSONFieldNames(t *testing.T) {
	t.Parallel()

	zero := 0
	err := ValidateRequest(sampleRequest{NumSlides: &zero})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	assert.ElementsMatch(t, []string{"topic", "num_slides"}, fields)

	three := 3
	assert.NoError(t, ValidateRequest(sampleRequest{Topic: "Go", NumSlides: &three}))
}
