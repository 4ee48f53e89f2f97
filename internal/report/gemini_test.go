package report

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/brainmetric/quiz-service/internal/config"
	"github.com/brainmetric/quiz-service/internal/models"
)

type fakeModels struct {
	text   string
	err    error
	delay  time.Duration
	prompt string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func newTestGenerator(f *fakeModels, timeout time.Duration) *GeminiGenerator {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return newGeminiGenerator(f, config.GeminiConfig{Model: "gemini-test", Timeout: timeout}, logger)
}

func sampleRequest() models.ReportRequest {
	return models.ReportRequest{
		UserName:       "Aigerim",
		CategoryStats:  map[string]int{"Логика": 2},
		Score:          2,
		TotalQuestions: 3,
		TestKind:       models.TestKindIQ,
		Language:       "ru",
		Audience:       models.ResultAudienceUser,
	}
}

func TestGenerate_ReturnsText(t *testing.T) {
	f := &fakeModels{text: "  Отличный результат  "}
	text, err := newTestGenerator(f, time.Second).Generate(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "Отличный результат", text)
	assert.Contains(t, f.prompt, "Aigerim")
	assert.Contains(t, f.prompt, "Score: 2 of 3")
}

func TestGenerate_EmptyTextIsError(t *testing.T) {
	_, err := newTestGenerator(&fakeModels{text: "   "}, time.Second).Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrEmptyReport)
}

func TestGenerate_UpstreamError(t *testing.T) {
	_, err := newTestGenerator(&fakeModels{err: errors.New("quota")}, time.Second).Generate(context.Background(), sampleRequest())
	assert.Error(t, err)
}

func TestGenerate_Timeout(t *testing.T) {
	f := &fakeModels{text: "late", delay: time.Second}
	_, err := newTestGenerator(f, 20*time.Millisecond).Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), config.GeminiConfig{}, slog.Default())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBuildPrompt_Psychology(t *testing.T) {
	req := sampleRequest()
	req.TestKind = models.TestKindPsychology
	req.Audience = models.ResultAudienceRecruiter
	req.Language = "en"
	req.DetailedAnswers = []models.DetailedAnswer{{Question: "Do you like teams?", SelectedAnswer: "Yes"}}

	prompt := BuildPrompt(req)
	assert.Contains(t, prompt, "recruiter")
	assert.Contains(t, prompt, "English")
	assert.Contains(t, prompt, "1. Do you like teams? -> Yes")
	assert.NotContains(t, prompt, "Score:")
}
