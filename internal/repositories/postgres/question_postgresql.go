package postgres

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/cache"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// ===== BASIC CRUD OPERATIONS =====

// Create stores the question with its options and invalidates the test's bank
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, q.cacheManager.Question, fmt.Sprintf("test:%d:*", question.TestID))
	return nil
}

// GetByID retrieves a question with its answers, cached
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).
			Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
			First(&dbQuestion, id).Error; err != nil {
			return nil, notFound(err, "question", id)
		}
		return &dbQuestion, nil
	})
	if err != nil {
		return nil, err
	}

	return &question, nil
}

// GetByIDs returns the questions that still exist, in the order of ids
func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}

	var rows []*models.Question
	if err := q.getDB(tx).WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions by IDs: %w", err)
	}

	byID := make(map[uint]*models.Question, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	ordered := make([]*models.Question, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

// ===== TEST BANK =====

func (q *QuestionPostgreSQL) ListIDsByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]uint, error) {
	db := q.getDB(tx)
	var ids []uint

	err := q.cacheManager.Question.CacheOrExecute(ctx, fmt.Sprintf("test:%d:ids", testID), &ids, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbIDs []uint
		if err := db.WithContext(ctx).
			Model(&models.Question{}).
			Where("test_id = ?", testID).
			Order("sort_order ASC, id ASC").
			Pluck("id", &dbIDs).Error; err != nil {
			return nil, fmt.Errorf("failed to list question ids: %w", err)
		}
		return dbIDs, nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (q *QuestionPostgreSQL) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	var count int64
	if err := q.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("test_id = ?", testID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// NextOrder is one past the number of questions already in the test
func (q *QuestionPostgreSQL) NextOrder(ctx context.Context, tx *gorm.DB, testID uint) (int, error) {
	count, err := q.CountByTest(ctx, tx, testID)
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

// ===== BOT =====

// GetRandomByCategory picks a random question of the category, skipping
// ExcludeIDs. When every question is excluded it picks among all of them.
func (q *QuestionPostgreSQL) GetRandomByCategory(ctx context.Context, tx *gorm.DB, filters repositories.RandomQuestionFilters) (*models.Question, error) {
	db := q.getDB(tx)

	candidates := func(exclude []uint) ([]uint, error) {
		var ids []uint
		query := db.WithContext(ctx).
			Model(&models.Question{}).
			Where("category = ?", filters.Category)
		if len(exclude) > 0 {
			query = query.Where("id NOT IN ?", exclude)
		}
		if err := query.Pluck("id", &ids).Error; err != nil {
			return nil, fmt.Errorf("failed to list candidate questions: %w", err)
		}
		return ids, nil
	}

	ids, err := candidates(filters.ExcludeIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 && len(filters.ExcludeIDs) > 0 {
		if ids, err = candidates(nil); err != nil {
			return nil, err
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no questions in category %s: %w", filters.Category, repositories.ErrNotFound)
	}

	return q.GetByID(ctx, tx, ids[rand.IntN(len(ids))])
}

func (q *QuestionPostgreSQL) GetAnswerByID(ctx context.Context, tx *gorm.DB, answerID uint) (*models.Answer, error) {
	var answer models.Answer
	if err := q.getDB(tx).WithContext(ctx).First(&answer, answerID).Error; err != nil {
		return nil, notFound(err, "answer", answerID)
	}
	return &answer, nil
}
