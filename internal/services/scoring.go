package services

import (
	"encoding/json"
	"strings"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/session"
)

// Scorecard is the outcome of grading one attempt
type Scorecard struct {
	Score          int
	TotalQuestions int
	CategoryStats  map[string]int
	// CategoryOrder lists labels in the order they first scored
	CategoryOrder   []string
	Records         []*models.AnswerRecord
	DetailedAnswers []models.DetailedAnswer
}

// Strongest returns the category with the most correct answers
func (s *Scorecard) Strongest() (string, bool) {
	return models.StrongestCategory(s.CategoryStats, s.CategoryOrder)
}

// StatsJSON is the category_stats column value
func (s *Scorecard) StatsJSON() []byte {
	data, err := json.Marshal(s.CategoryStats)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// ScoreAttempt grades state against the questions it references.
// Questions missing from the bank are skipped and get no record.
// Detailed answers are collected only when detailed is true.
func ScoreAttempt(state *session.State, questions map[uint]*models.Question, lang string, detailed bool) *Scorecard {
	card := &Scorecard{
		TotalQuestions: state.Len(),
		CategoryStats:  map[string]int{},
		Records:        make([]*models.AnswerRecord, 0, state.Len()),
	}

	for _, qid := range state.Order {
		q, ok := questions[qid]
		if !ok {
			continue
		}

		record := &models.AnswerRecord{QuestionID: qid}
		var selected *models.Answer
		if answerID, answered := state.Selected(qid); answered {
			if a, found := q.FindAnswer(answerID); found {
				id := a.ID
				record.SelectedAnswerID = &id
				record.IsCorrect = a.IsCorrect
				selected = a
			}
		}
		card.Records = append(card.Records, record)

		if record.IsCorrect {
			card.Score++
			label := q.Category.Label(lang)
			if _, seen := card.CategoryStats[label]; !seen {
				card.CategoryOrder = append(card.CategoryOrder, label)
			}
			card.CategoryStats[label]++
		}

		if detailed {
			da := models.DetailedAnswer{
				Question:  q.LocalizedText(lang),
				IsCorrect: record.IsCorrect,
			}
			if selected != nil {
				da.SelectedAnswer = selected.LocalizedText(lang)
			}
			if correct, ok := q.FindAnswer(q.CorrectAnswerID()); ok {
				da.CorrectAnswer = correct.LocalizedText(lang)
			}
			card.DetailedAnswers = append(card.DetailedAnswers, da)
		}
	}

	return card
}

// InferTestKind guesses the kind of a newly imported test from its title and
// categories. It is only used when a test is created.
func InferTestKind(title string, categories []string) models.TestKind {
	lower := strings.ToLower(title)
	for _, marker := range []string{"психолог", "psycholog", "soft", "личност", "тұлға"} {
		if strings.Contains(lower, marker) {
			return models.TestKindPsychology
		}
	}
	for _, c := range categories {
		if models.Category(c) == models.CategoryPsychology {
			return models.TestKindPsychology
		}
	}
	return models.TestKindIQ
}

// resultAudience picks who the report is written for
func resultAudience(test *models.Test, fromInvitation bool) models.ResultAudience {
	if fromInvitation || test.IsRecruiterOnly() {
		return models.ResultAudienceRecruiter
	}
	return models.ResultAudienceUser
}
