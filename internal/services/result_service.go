package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/validator"
)

type resultService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	generator ReportGenerator
}

func NewResultService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, generator ReportGenerator) ResultService {
	return &resultService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		generator: generator,
	}
}

func (s *resultService) GetByID(ctx context.Context, id uint, viewer Viewer) (*models.ResultView, error) {
	result, err := s.repo.Result().GetByIDWithAnswers(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	if !canViewResult(result, viewer) {
		return nil, NewPermissionError(viewer.UserID, id, "result", "view", "result belongs to another user")
	}

	lang := models.DefaultLanguage
	if viewer.Authenticated() {
		if profile, err := loadProfile(ctx, s.repo, s.db, viewer.UserID); err == nil && profile != nil {
			lang = profile.Lang()
		}
	}

	return buildResultView(result, lang), nil
}

func (s *resultService) ListMine(ctx context.Context, viewer Viewer, filters repositories.ResultFilters) ([]*models.ResultSummary, int64, error) {
	if !viewer.Authenticated() {
		return nil, 0, ErrUnauthenticated
	}

	results, total, err := s.repo.Result().ListByUser(ctx, s.db, viewer.UserID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}

	out := make([]*models.ResultSummary, 0, len(results))
	for _, r := range results {
		out = append(out, &models.ResultSummary{
			ID:             r.ID,
			TestID:         r.TestID,
			TestTitle:      r.Test.Title,
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, total, nil
}

// RegenerateAnalysis asks the generator again for a stored result. Staff only.
func (s *resultService) RegenerateAnalysis(ctx context.Context, id uint, viewer Viewer) (*models.ResultView, error) {
	if !viewer.IsSuperuser {
		return nil, NewPermissionError(viewer.UserID, id, "result", "regenerate", "staff only")
	}

	result, err := s.repo.Result().GetByIDWithAnswers(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	view := buildResultView(result, models.DefaultLanguage)
	name := ""
	if result.UserID != nil {
		if user, err := s.repo.User().GetByID(ctx, *result.UserID); err == nil {
			name = user.PreferredName()
		}
	}

	req := models.ReportRequest{
		UserName:       name,
		CategoryStats:  view.CategoryStats,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		TestKind:       result.Test.Kind,
		Language:       models.DefaultLanguage,
		Audience:       result.Audience,
	}
	if result.Test.Kind == models.TestKindPsychology {
		for _, a := range view.Answers {
			da := models.DetailedAnswer{Question: a.QuestionText, IsCorrect: a.IsCorrect}
			if a.SelectedAnswerText != nil {
				da.SelectedAnswer = *a.SelectedAnswerText
			}
			if a.CorrectAnswerText != nil {
				da.CorrectAnswer = *a.CorrectAnswerText
			}
			req.DetailedAnswers = append(req.DetailedAnswers, da)
		}
	}

	analysis := narrate(ctx, s.generator, req, categoryOrder(result, models.DefaultLanguage), s.logger)
	if err := s.repo.Result().UpdateAnalysis(ctx, s.db, id, &analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	view.AIAnalysis = &analysis

	s.logger.Info("Result analysis regenerated", "result_id", id, "by", viewer.UserID)
	return view, nil
}

// canViewResult: owner, staff, or a result nobody owns
func canViewResult(result *models.Result, viewer Viewer) bool {
	if result.UserID == nil || viewer.IsSuperuser {
		return true
	}
	return viewer.Authenticated() && *result.UserID == viewer.UserID
}

func buildResultView(result *models.Result, lang string) *models.ResultView {
	stats := map[string]int{}
	if len(result.CategoryStats) > 0 {
		_ = json.Unmarshal(result.CategoryStats, &stats)
	}

	view := &models.ResultView{
		ID:             result.ID,
		TestID:         result.TestID,
		TestTitle:      result.Test.LocalizedTitle(lang),
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		CategoryStats:  stats,
		AIAnalysis:     result.AIAnalysis,
		Audience:       result.Audience,
		CreatedAt:      result.CreatedAt,
		Answers:        make([]models.AnswerRecordView, 0, len(result.Answers)),
	}

	if best, ok := models.StrongestCategory(stats, categoryOrder(result, lang)); ok {
		view.StrongestCategory = &best
	}

	for i := range result.Answers {
		record := &result.Answers[i]
		rv := models.AnswerRecordView{
			QuestionID:       record.QuestionID,
			QuestionText:     record.Question.LocalizedText(lang),
			Category:         record.Question.Category.Label(lang),
			SelectedAnswerID: record.SelectedAnswerID,
			IsCorrect:        record.IsCorrect,
		}
		if record.SelectedAnswer != nil {
			text := record.SelectedAnswer.LocalizedText(lang)
			rv.SelectedAnswerText = &text
		}
		if correct, ok := record.Question.FindAnswer(record.Question.CorrectAnswerID()); ok {
			text := correct.LocalizedText(lang)
			rv.CorrectAnswerText = &text
		}
		view.Answers = append(view.Answers, rv)
	}

	return view
}

// categoryOrder rebuilds the order in which categories first scored,
// which is the order of the answer records. Labels in the stats were
// written in the language of the attempt, so every language is tried.
func categoryOrder(result *models.Result, lang string) []string {
	var order []string
	seen := map[string]bool{}
	add := func(label string) {
		if !seen[label] {
			seen[label] = true
			order = append(order, label)
		}
	}
	for i := range result.Answers {
		record := &result.Answers[i]
		if !record.IsCorrect {
			continue
		}
		add(record.Question.Category.Label(lang))
		for _, l := range models.SupportedLanguages {
			add(record.Question.Category.Label(l))
		}
	}
	return order
}
