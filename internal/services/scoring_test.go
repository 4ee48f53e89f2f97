package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/session"
)

func scoringBank() map[uint]*models.Question {
	q := func(id uint, c models.Category) *models.Question {
		return &models.Question{
			ID:       id,
			Text:     "q",
			Category: c,
			Answers: []models.Answer{
				{ID: id*10 + 1, QuestionID: id, Text: "yes", IsCorrect: true},
				{ID: id*10 + 2, QuestionID: id, Text: "no"},
			},
		}
	}
	return map[uint]*models.Question{
		1: q(1, models.CategoryMath),
		2: q(2, models.CategoryLogic),
		3: q(3, models.CategoryLogic),
		4: q(4, models.CategoryMath),
	}
}

func TestScoreAttempt(t *testing.T) {
	state := &session.State{
		Order: []uint{1, 2, 3, 4, 99},
		Answers: map[string]uint{
			"1": 11, // correct
			"2": 21, // correct
			"3": 32, // wrong
			"4": 11, // option of another question
		},
	}

	card := ScoreAttempt(state, scoringBank(), "en", false)
	assert.Equal(t, 2, card.Score)
	assert.Equal(t, 5, card.TotalQuestions)
	assert.Equal(t, map[string]int{"Math": 1, "Logic": 1}, card.CategoryStats)
	assert.Equal(t, []string{"Math", "Logic"}, card.CategoryOrder)
	assert.Empty(t, card.DetailedAnswers)

	require.Len(t, card.Records, 4)
	assert.Nil(t, card.Records[3].SelectedAnswerID)
	assert.False(t, card.Records[3].IsCorrect)

	best, ok := card.Strongest()
	require.True(t, ok)
	assert.Equal(t, "Math", best)
	assert.JSONEq(t, `{"Math":1,"Logic":1}`, string(card.StatsJSON()))
}

func TestScoreAttempt_Detailed(t *testing.T) {
	state := &session.State{Order: []uint{2, 3}, Answers: map[string]uint{"2": 22}}

	card := ScoreAttempt(state, scoringBank(), "en", true)
	require.Len(t, card.DetailedAnswers, 2)
	assert.Equal(t, models.DetailedAnswer{Question: "q", SelectedAnswer: "no", CorrectAnswer: "yes"}, card.DetailedAnswers[0])
	assert.Equal(t, "", card.DetailedAnswers[1].SelectedAnswer)
	assert.Equal(t, 0, card.Score)
	_, ok := card.Strongest()
	assert.False(t, ok)
}

func TestInferTestKind(t *testing.T) {
	tests := []struct {
		title      string
		categories []string
		want       models.TestKind
	}{
		{"IQ тест", []string{"logic", "math"}, models.TestKindIQ},
		{"Психологический портрет", nil, models.TestKindPsychology},
		{"Soft skills", nil, models.TestKindPsychology},
		{"Команда", []string{"logic", "psychology"}, models.TestKindPsychology},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, InferTestKind(tt.title, tt.categories))
		})
	}
}

func TestResultAudience(t *testing.T) {
	general := &models.Test{Audience: models.AudienceGeneral}
	recruiter := &models.Test{Audience: models.AudienceRecruiter}

	assert.Equal(t, models.ResultAudienceUser, resultAudience(general, false))
	assert.Equal(t, models.ResultAudienceRecruiter, resultAudience(general, true))
	assert.Equal(t, models.ResultAudienceRecruiter, resultAudience(recruiter, false))
}
