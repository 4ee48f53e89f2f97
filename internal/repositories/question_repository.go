package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
)

// TestRepository interface for test catalogue operations
type TestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*models.Test, error)
	List(ctx context.Context, tx *gorm.DB, filters TestFilters) ([]*models.Test, error)
	Update(ctx context.Context, tx *gorm.DB, test *models.Test) error
}

// QuestionRepository interface for question bank operations
type QuestionRepository interface {
	// Create stores the question together with its answer options
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) // answers preloaded
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)

	// ListIDsByTest returns every question id of the test in bank order
	ListIDsByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]uint, error)
	CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error)
	NextOrder(ctx context.Context, tx *gorm.DB, testID uint) (int, error)

	// Bot
	GetRandomByCategory(ctx context.Context, tx *gorm.DB, filters RandomQuestionFilters) (*models.Question, error)
	GetAnswerByID(ctx context.Context, tx *gorm.DB, answerID uint) (*models.Answer, error)
}
