package gemini

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/deckforge/internal/config"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/generation"
	"google.golang.org/genai"
)

//go:embed prompts/presentation.tmpl
var promptFS embed.FS

// contentAPI is the slice of the genai client this package uses.
type contentAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.ContentGenerator using the Gemini API.
type Generator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	api            contentAPI
	sleep          func(ctx context.Context, d time.Duration) error
}

var _ generation.ContentGenerator = (*Generator)(nil)

// NewGenerator creates a Generator with a live Gemini client.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, client.Models)
}

func newGenerator(logger *slog.Logger, cfg config.LLMConfig, api contentAPI) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	tmpl, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	return &Generator{
		logger:         logger.With("component", "gemini_generator", "model", cfg.ModelName),
		config:         cfg,
		promptTemplate: tmpl,
		api:            api,
		sleep:          sleepContext,
	}, nil
}

// loadPromptTemplate parses the template at path, or the embedded default
// when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	var (
		content []byte
		err     error
	)
	if path == "" {
		content, err = promptFS.ReadFile("prompts/presentation.tmpl")
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template: %v", generation.ErrInvalidConfig, err)
	}

	tmpl, err := template.New("presentation").Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// GenerateContent implements generation.ContentGenerator.
func (g *Generator) GenerateContent(ctx context.Context, topic string, numSlides int) (*domain.PresentationData, error) {
	prompt, err := g.createPrompt(topic, numSlides)
	if err != nil {
		return nil, err
	}

	data, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "generated presentation content",
		"requested_slides", numSlides,
		"returned_slides", len(data.Slides))
	return data, nil
}

func (g *Generator) createPrompt(topic string, numSlides int) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", generation.ErrEmptyTopic
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{Topic: topic, NumSlides: numSlides}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callWithRetry calls the API up to MaxRetries+1 times. Content blocks,
// malformed responses and permanent API errors are returned immediately.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (*domain.PresentationData, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := time.Duration(g.config.RetryDelaySeconds) * time.Second
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	temperature := float32(g.config.Temperature)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
		Temperature:      &temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		log := g.logger.With("attempt", attempt+1, "max_attempts", maxRetries+1)
		log.DebugContext(ctx, "making Gemini API call")

		resp, err := g.api.GenerateContent(ctx, g.config.ModelName, genai.Text(prompt), genConfig)
		if err == nil {
			var text string
			text, err = responseText(resp)
			if err == nil {
				return parseResponse(text)
			}
			// Permanent: the model answered but the answer is unusable.
			log.WarnContext(ctx, "permanent Gemini error, not retrying", "error", err)
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
		if !isTransient(err) {
			log.WarnContext(ctx, "permanent Gemini API error, not retrying", "error", err)
			return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
		}

		lastErr = err
		log.WarnContext(ctx, "Gemini API call failed", "error", err)
		if attempt == maxRetries {
			break
		}

		// delay = base * 2^attempt * (0.5 + rand[0, 0.5))
		backoff := float64(baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))
		if err := g.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}

	return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
		generation.ErrTransientFailure, maxRetries, lastErr)
}

// isTransient reports whether a failed API call is worth repeating. Errors
// without an HTTP status (network failures) are retried, as are timeouts,
// rate limits and server errors. Any other 4xx is permanent.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	switch {
	case apiErr.Code == http.StatusRequestTimeout, apiErr.Code == http.StatusTooManyRequests:
		return true
	case apiErr.Code >= http.StatusInternalServerError:
		return true
	case apiErr.Code >= http.StatusBadRequest:
		return false
	default:
		return true
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
