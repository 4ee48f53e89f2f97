package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brainmetric/quiz-service/internal/models"
)

func TestFallbackReport(t *testing.T) {
	tests := []struct {
		name     string
		req      models.ReportRequest
		order    []string
		contains []string
	}{
		{
			name:     "zero score ru",
			req:      models.ReportRequest{UserName: "Аружан", Score: 0, TotalQuestions: 10, Language: "ru"},
			contains: []string{"Здравствуйте, Аружан!", "не дали правильных ответов"},
		},
		{
			name:     "high score en with strongest",
			req:      models.ReportRequest{UserName: "Dana", Score: 7, TotalQuestions: 10, Language: "en", CategoryStats: map[string]int{"Logic": 3, "Math": 4}},
			order:    []string{"Logic", "Math"},
			contains: []string{"Hello, Dana!", "excellent", "Your strongest area: Math."},
		},
		{
			name:     "middle score kk",
			req:      models.ReportRequest{UserName: "Ержан", Score: 3, TotalQuestions: 10, Language: "kk", CategoryStats: map[string]int{"Логика": 3}},
			order:    []string{"Логика"},
			contains: []string{"Сәлеметсіз бе", "өсуге", "Логика"},
		},
		{
			name:     "recruiter",
			req:      models.ReportRequest{UserName: "cand", Score: 4, TotalQuestions: 10, Language: "en", Audience: models.ResultAudienceRecruiter},
			contains: []string{"Candidate cand finished the test: 4 of 10."},
		},
		{
			name:     "psychology",
			req:      models.ReportRequest{UserName: "Dana", Language: "en", TestKind: models.TestKindPsychology},
			contains: []string{"Thank you for taking the test"},
		},
		{
			name:     "unknown language uses default",
			req:      models.ReportRequest{UserName: "X", Score: 1, Language: "de"},
			contains: []string{"Здравствуйте"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := FallbackReport(tt.req, tt.order)
			assert.NotEmpty(t, text)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestFallbackReport_TieGoesToFirstCategory(t *testing.T) {
	req := models.ReportRequest{UserName: "A", Score: 4, Language: "en", CategoryStats: map[string]int{"Math": 2, "Logic": 2}}

	assert.Contains(t, FallbackReport(req, []string{"Logic", "Math"}), "Your strongest area: Logic.")
	assert.Contains(t, FallbackReport(req, []string{"Math", "Logic"}), "Your strongest area: Math.")
}

func TestNarrate(t *testing.T) {
	req := models.ReportRequest{UserName: "Dana", Score: 1, Language: "en"}
	logger := discardLogger()

	assert.Equal(t, "ai text", narrate(context.Background(), &stubGenerator{text: "ai text"}, req, nil, logger))

	fallback := narrate(context.Background(), &stubGenerator{err: errors.New("boom")}, req, nil, logger)
	assert.True(t, strings.HasPrefix(fallback, "Hello, Dana!"))

	blank := narrate(context.Background(), &stubGenerator{text: "  \n"}, req, nil, logger)
	assert.True(t, strings.HasPrefix(blank, "Hello, Dana!"))

	assert.Equal(t, FallbackReport(req, nil), narrate(context.Background(), nil, req, nil, logger))
}
