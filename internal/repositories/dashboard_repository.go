package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardRepository interface for staff-facing aggregates
type DashboardRepository interface {
	GetTotalTests(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalQuestions(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalResults(ctx context.Context, tx *gorm.DB) (int64, error)
	GetActiveUsers(ctx context.Context, tx *gorm.DB, days int) (int64, error)
	GetTelegramUsers(ctx context.Context, tx *gorm.DB) (int64, error)

	GetAverageScoreRate(ctx context.Context, tx *gorm.DB) (float64, error)
	GetInvitationCompletionRate(ctx context.Context, tx *gorm.DB) (float64, error)

	GetActivityTrends(ctx context.Context, tx *gorm.DB, days int) ([]ActivityTrendData, error)
	GetQuestionDistribution(ctx context.Context, tx *gorm.DB) ([]QuestionDistributionData, error)
	GetCategoryAccuracy(ctx context.Context, tx *gorm.DB) ([]CategoryAccuracyData, error)
}

type ActivityTrendData struct {
	Period       string    `json:"period"`
	Results      int64     `json:"results"`
	BotAnswers   int64     `json:"bot_answers"`
	AverageScore float64   `json:"average_score"`
	Date         time.Time `json:"date"`
}

type QuestionDistributionData struct {
	Category   string  `json:"category"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CategoryAccuracyData struct {
	Category    string  `json:"category"`
	Answered    int64   `json:"answered"`
	Correct     int64   `json:"correct"`
	CorrectRate float64 `json:"correct_rate"`
}
