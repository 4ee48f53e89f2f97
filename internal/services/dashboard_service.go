package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

// ===== RESPONSE DTOs =====

type DashboardStatsResponse struct {
	Overview DashboardOverview `json:"overview"`
	Metrics  DashboardMetrics  `json:"metrics"`
}

type DashboardOverview struct {
	TotalTests     int64 `json:"total_tests"`
	TotalQuestions int64 `json:"total_questions"`
	TotalResults   int64 `json:"total_results"`
	ActiveUsers    int64 `json:"active_users"`
	TelegramUsers  int64 `json:"telegram_users"`
}

type DashboardMetrics struct {
	AverageScoreRate         float64 `json:"average_score_rate"`
	InvitationCompletionRate float64 `json:"invitation_completion_rate"`
}

type ActivityTrendResponse struct {
	Period       string  `json:"period"`
	Results      int64   `json:"results"`
	BotAnswers   int64   `json:"bot_answers"`
	AverageScore float64 `json:"average_score"`
}

type QuestionDistributionResponse struct {
	Category   string  `json:"category"`
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CategoryAccuracyResponse struct {
	Category    string  `json:"category"`
	Name        string  `json:"name"`
	Answered    int64   `json:"answered"`
	Correct     int64   `json:"correct"`
	CorrectRate float64 `json:"correct_rate"`
}

// ===== SERVICE IMPLEMENTATION =====

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, activeDays int) (*DashboardStatsResponse, error) {
	s.logger.Info("Getting dashboard stats", "active_days", activeDays)

	if activeDays <= 0 {
		activeDays = 30
	}

	totalTests, err := s.repo.Dashboard().GetTotalTests(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get total tests: %w", err)
	}

	totalQuestions, err := s.repo.Dashboard().GetTotalQuestions(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get total questions: %w", err)
	}

	totalResults, err := s.repo.Dashboard().GetTotalResults(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get total results: %w", err)
	}

	activeUsers, err := s.repo.Dashboard().GetActiveUsers(ctx, s.db, activeDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}

	telegramUsers, err := s.repo.Dashboard().GetTelegramUsers(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get telegram users: %w", err)
	}

	scoreRate, err := s.repo.Dashboard().GetAverageScoreRate(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get average score rate: %w", err)
	}

	invitationRate, err := s.repo.Dashboard().GetInvitationCompletionRate(ctx, s.db)
	if err != nil {
		s.logger.Warn("Failed to get invitation completion rate", "error", err)
		invitationRate = 0
	}

	return &DashboardStatsResponse{
		Overview: DashboardOverview{
			TotalTests:     totalTests,
			TotalQuestions: totalQuestions,
			TotalResults:   totalResults,
			ActiveUsers:    activeUsers,
			TelegramUsers:  telegramUsers,
		},
		Metrics: DashboardMetrics{
			AverageScoreRate:         roundFloat(scoreRate, 1),
			InvitationCompletionRate: roundFloat(invitationRate, 1),
		},
	}, nil
}

func (s *dashboardService) GetActivityTrends(ctx context.Context, days int) ([]ActivityTrendResponse, error) {
	s.logger.Info("Getting activity trends", "days", days)

	if days <= 0 {
		days = 30
	}
	if days > 365 {
		return nil, ValidationErrors{{Field: "days", Message: "must be at most 365", Value: days, Rule: "max"}}
	}

	trends, err := s.repo.Dashboard().GetActivityTrends(ctx, s.db, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity trends: %w", err)
	}

	response := make([]ActivityTrendResponse, len(trends))
	for i, trend := range trends {
		response[i] = ActivityTrendResponse{
			Period:       trend.Period,
			Results:      trend.Results,
			BotAnswers:   trend.BotAnswers,
			AverageScore: roundFloat(trend.AverageScore, 1),
		}
	}

	return response, nil
}

func (s *dashboardService) GetQuestionDistribution(ctx context.Context, lang string) ([]QuestionDistributionResponse, error) {
	s.logger.Info("Getting question distribution")

	distribution, err := s.repo.Dashboard().GetQuestionDistribution(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get question distribution: %w", err)
	}

	response := make([]QuestionDistributionResponse, len(distribution))
	for i, dist := range distribution {
		response[i] = QuestionDistributionResponse{
			Category:   dist.Category,
			Name:       models.Category(dist.Category).Label(lang),
			Count:      dist.Count,
			Percentage: roundFloat(dist.Percentage, 1),
		}
	}

	return response, nil
}

func (s *dashboardService) GetCategoryAccuracy(ctx context.Context, lang string) ([]CategoryAccuracyResponse, error) {
	s.logger.Info("Getting category accuracy")

	rows, err := s.repo.Dashboard().GetCategoryAccuracy(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to get category accuracy: %w", err)
	}

	response := make([]CategoryAccuracyResponse, len(rows))
	for i, row := range rows {
		response[i] = CategoryAccuracyResponse{
			Category:    row.Category,
			Name:        models.Category(row.Category).Label(lang),
			Answered:    row.Answered,
			Correct:     row.Correct,
			CorrectRate: roundFloat(row.CorrectRate, 1),
		}
	}

	return response, nil
}

// ===== HELPER FUNCTIONS =====

func roundFloat(val float64, precision int) float64 {
	ratio := 1.0
	for i := 0; i < precision; i++ {
		ratio *= 10
	}
	return float64(int(val*ratio+0.5)) / ratio
}
