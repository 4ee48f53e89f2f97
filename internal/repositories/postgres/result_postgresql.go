package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

type ResultPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	if err := r.getDB(tx).WithContext(ctx).Omit("Test", "Answers").Create(result).Error; err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

// CreateAnswerRecords bulk inserts the per-question rows of a result
func (r *ResultPostgreSQL) CreateAnswerRecords(ctx context.Context, tx *gorm.DB, records []*models.AnswerRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := r.getDB(tx).WithContext(ctx).
		Omit("Question", "SelectedAnswer").
		CreateInBatches(records, 100).Error; err != nil {
		return fmt.Errorf("failed to create answer records: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) UpdateAnalysis(ctx context.Context, tx *gorm.DB, id uint, analysis *string) error {
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Result{}).
		Where("id = ?", id).
		Update("ai_analysis", analysis).Error; err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}
	return nil
}

// Delete removes a result and its answer records
func (r *ResultPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return r.getDB(tx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("result_id = ?", id).Delete(&models.AnswerRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete answer records: %w", err)
		}
		if err := tx.Delete(&models.Result{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete result: %w", err)
		}
		return nil
	})
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	var result models.Result
	if err := r.getDB(tx).WithContext(ctx).
		Preload("Test").
		First(&result, id).Error; err != nil {
		return nil, notFound(err, "result", id)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	var result models.Result
	if err := r.getDB(tx).WithContext(ctx).
		Preload("Test").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Answers.Question").
		Preload("Answers.Question.Answers").
		Preload("Answers.SelectedAnswer").
		First(&result, id).Error; err != nil {
		return nil, notFound(err, "result", id)
	}
	return &result, nil
}

// ListByUser returns the user's results, newest first
func (r *ResultPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	db := r.getDB(tx)

	query := db.WithContext(ctx).Model(&models.Result{}).Where("user_id = ?", userID)
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count results: %w", err)
	}

	var results []*models.Result
	if err := r.helpers.ApplyPagination(query.Preload("Test").Order("created_at DESC, id DESC"), filters.Limit, filters.Offset).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}

	return results, total, nil
}

func (r *ResultPostgreSQL) FirstByUser(ctx context.Context, tx *gorm.DB, userID string) (*models.Result, error) {
	var result models.Result
	if err := r.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		First(&result).Error; err != nil {
		return nil, notFound(err, "result for user", userID)
	}
	return &result, nil
}

// ===== BOT RESULTS =====

type BotResultPostgreSQL struct {
	db *gorm.DB
}

func NewBotResultPostgreSQL(db *gorm.DB) repositories.BotResultRepository {
	return &BotResultPostgreSQL{db: db}
}

func (b *BotResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return b.db
}

func (b *BotResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.BotResult) error {
	if err := b.getDB(tx).WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create bot result: %w", err)
	}
	return nil
}

func (b *BotResultPostgreSQL) AnsweredQuestionIDs(ctx context.Context, tx *gorm.DB, userID string) ([]uint, error) {
	var ids []uint
	if err := b.getDB(tx).WithContext(ctx).
		Model(&models.BotResult{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("question_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list answered questions: %w", err)
	}
	return ids, nil
}

func (b *BotResultPostgreSQL) CountSince(ctx context.Context, tx *gorm.DB, userID string, since time.Time) (int64, error) {
	var count int64
	if err := b.getDB(tx).WithContext(ctx).
		Model(&models.BotResult{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count bot results: %w", err)
	}
	return count, nil
}
