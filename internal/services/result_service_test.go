package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/validator"
)

// seedResult stores a finished attempt: first question right, second wrong
func seedResult(t *testing.T, repo *fakeRepo, userID *string, kind models.TestKind) *models.Result {
	t.Helper()
	test := &models.Test{Title: "Seeded", Kind: kind}
	questions := repo.addTest(test, 2, models.CategoryMath)

	result := &models.Result{
		UserID:         userID,
		TestID:         test.ID,
		Score:          1,
		TotalQuestions: 2,
		CategoryStats:  []byte(`{"Математика":1}`),
		Audience:       models.ResultAudienceUser,
	}
	require.NoError(t, repo.Result().Create(context.Background(), nil, result))

	right := questions[0].Answers[0].ID
	wrong := questions[1].Answers[1].ID
	require.NoError(t, repo.Result().CreateAnswerRecords(context.Background(), nil, []*models.AnswerRecord{
		{ResultID: result.ID, QuestionID: questions[0].ID, SelectedAnswerID: &right, IsCorrect: true},
		{ResultID: result.ID, QuestionID: questions[1].ID, SelectedAnswerID: &wrong},
	}))
	return result
}

func TestResult_GetByID(t *testing.T) {
	repo := newFakeRepo()
	owner := "owner"
	result := seedResult(t, repo, &owner, models.TestKindIQ)
	svc := NewResultService(repo, nil, discardLogger(), validator.New(), nil)

	view, err := svc.GetByID(context.Background(), result.ID, Viewer{UserID: owner})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Score)
	assert.Equal(t, map[string]int{"Математика": 1}, view.CategoryStats)
	require.NotNil(t, view.StrongestCategory)
	assert.Equal(t, "Математика", *view.StrongestCategory)
	require.Len(t, view.Answers, 2)
	assert.Equal(t, "right", *view.Answers[0].SelectedAnswerText)
	assert.Equal(t, "wrong a", *view.Answers[1].SelectedAnswerText)
	assert.Equal(t, "right", *view.Answers[1].CorrectAnswerText)

	_, err = svc.GetByID(context.Background(), result.ID, Viewer{UserID: "stranger"})
	var permErr *PermissionError
	assert.True(t, errors.As(err, &permErr))

	_, err = svc.GetByID(context.Background(), result.ID, Viewer{Client: "anon"})
	assert.True(t, errors.As(err, &permErr))

	_, err = svc.GetByID(context.Background(), result.ID, Viewer{UserID: "staff", IsSuperuser: true})
	assert.NoError(t, err)

	_, err = svc.GetByID(context.Background(), 9999, Viewer{UserID: owner})
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestResult_AnonymousResultIsPublic(t *testing.T) {
	repo := newFakeRepo()
	result := seedResult(t, repo, nil, models.TestKindIQ)
	svc := NewResultService(repo, nil, discardLogger(), validator.New(), nil)

	_, err := svc.GetByID(context.Background(), result.ID, Viewer{Client: "anyone"})
	assert.NoError(t, err)
}

func TestResult_ListMine(t *testing.T) {
	repo := newFakeRepo()
	owner := "owner"
	seedResult(t, repo, &owner, models.TestKindIQ)
	seedResult(t, repo, &owner, models.TestKindIQ)
	other := "other"
	seedResult(t, repo, &other, models.TestKindIQ)
	svc := NewResultService(repo, nil, discardLogger(), validator.New(), nil)

	list, total, err := svc.ListMine(context.Background(), Viewer{UserID: owner}, repositories.ResultFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "Seeded", list[0].TestTitle)

	_, _, err = svc.ListMine(context.Background(), Viewer{}, repositories.ResultFilters{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResult_RegenerateAnalysis(t *testing.T) {
	repo := newFakeRepo()
	owner := "owner"
	result := seedResult(t, repo, &owner, models.TestKindPsychology)
	gen := &stubGenerator{text: "fresh analysis"}
	svc := NewResultService(repo, nil, discardLogger(), validator.New(), gen)

	_, err := svc.RegenerateAnalysis(context.Background(), result.ID, Viewer{UserID: owner})
	var permErr *PermissionError
	require.True(t, errors.As(err, &permErr))

	view, err := svc.RegenerateAnalysis(context.Background(), result.ID, Viewer{UserID: "staff", IsSuperuser: true})
	require.NoError(t, err)
	assert.Equal(t, "fresh analysis", *view.AIAnalysis)
	assert.Equal(t, "fresh analysis", *repo.results[result.ID].AIAnalysis)
	assert.Len(t, gen.last.DetailedAnswers, 2)
	assert.Equal(t, models.TestKindPsychology, gen.last.TestKind)
}
