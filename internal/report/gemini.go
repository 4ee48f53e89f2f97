package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/brainmetric/quiz-service/internal/config"
	"github.com/brainmetric/quiz-service/internal/models"
)

var (
	ErrNotConfigured = errors.New("report generator is not configured")
	ErrEmptyReport   = errors.New("report generator returned no text")
)

// contentGenerator is the slice of the genai client the generator uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator asks a Gemini model for the narrative part of a result
type GeminiGenerator struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGeminiGenerator connects to the Gemini API
func NewGeminiGenerator(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newGeminiGenerator(client.Models, cfg, logger), nil
}

func newGeminiGenerator(m contentGenerator, cfg config.GeminiConfig, logger *slog.Logger) *GeminiGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GeminiGenerator{
		models:  m,
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// Generate returns the model's text or an error; it never returns an empty string with a nil error
func (g *GeminiGenerator) Generate(ctx context.Context, req models.ReportRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(req)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReport
	}

	g.logger.Info("Report generated", "model", g.model, "duration", time.Since(start), "chars", len(text))
	return text, nil
}
