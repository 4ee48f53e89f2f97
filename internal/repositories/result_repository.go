package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
)

// ResultRepository interface for completed attempts
type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.Result) error
	CreateAnswerRecords(ctx context.Context, tx *gorm.DB, records []*models.AnswerRecord) error
	UpdateAnalysis(ctx context.Context, tx *gorm.DB, id uint, analysis *string) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) // test preloaded
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters ResultFilters) ([]*models.Result, int64, error)
	// FirstByUser returns the earliest result of the user
	FirstByUser(ctx context.Context, tx *gorm.DB, userID string) (*models.Result, error)
}

// BotResultRepository interface for answers given through the telegram bot
type BotResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.BotResult) error
	AnsweredQuestionIDs(ctx context.Context, tx *gorm.DB, userID string) ([]uint, error)
	CountSince(ctx context.Context, tx *gorm.DB, userID string, since time.Time) (int64, error)
}
